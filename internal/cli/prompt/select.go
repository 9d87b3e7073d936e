// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"golang.org/x/term"

	"github.com/thoreinstein/miuitask/internal/config"
	"github.com/thoreinstein/miuitask/internal/errors"
)

// Sentinel errors for account selection.
var (
	ErrNoAccounts         = errors.New("no accounts to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// finder picks one of n items by label and returns its index.
type finder func(n int, label func(int) string, preview func(int) string) (int, error)

// Selector handles interactive account selection prompts.
type Selector struct {
	reader      io.Reader
	writer      io.Writer
	interactive bool
	find        finder
}

// NewSelector creates a Selector on stdin and stdout. When both are
// terminals it uses a fuzzy finder, otherwise a numbered prompt.
func NewSelector() *Selector {
	return &Selector{
		reader:      os.Stdin,
		writer:      os.Stdout,
		interactive: isTerminal(os.Stdin) && isTerminal(os.Stdout),
		find:        fuzzyFind,
	}
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
// It always uses the numbered prompt.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: r,
		writer: w,
	}
}

// SelectAccount prompts the user to choose from a list of accounts.
//
// Returns:
//   - ErrNoAccounts if the list is empty
//   - The account if only one exists (auto-selects without prompting)
//   - The selected account based on user input
//   - ErrInvalidSelection if the selection is out of range
//   - ErrSelectionCancelled if input is EOF (e.g., Ctrl+D) or the finder is aborted
func (s *Selector) SelectAccount(accounts []config.Account) (*config.Account, error) {
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	if len(accounts) == 1 {
		return &accounts[0], nil
	}

	if s.interactive && s.find != nil {
		idx, err := s.find(len(accounts),
			func(i int) string { return accounts[i].UID },
			func(i int) string { return describe(&accounts[i]) },
		)
		if err != nil {
			if errors.Is(err, fuzzyfinder.ErrAbort) {
				return nil, ErrSelectionCancelled
			}
			return nil, errors.Wrap(err, "selecting account")
		}
		return &accounts[idx], nil
	}

	fmt.Fprintln(s.writer, "Multiple accounts configured:")
	for i := range accounts {
		fmt.Fprintf(s.writer, "  [%d] %s (%d tasks enabled)\n", i+1, accounts[i].UID, enabledCount(&accounts[i]))
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	reader := bufio.NewReader(s.reader)
	input, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "reading selection")
	}

	input = strings.TrimSpace(input)

	// Default to first option if empty
	if input == "" {
		return &accounts[0], nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}

	if selection < 1 || selection > len(accounts) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(accounts))
	}

	return &accounts[selection-1], nil
}

func fuzzyFind(n int, label func(int) string, preview func(int) string) (int, error) {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return fuzzyfinder.Find(
		items,
		label,
		fuzzyfinder.WithPromptString("account> "),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return preview(i)
		}),
	)
}

func describe(a *config.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "UID: %s\nDevice: %s %s\n\nTasks:\n", a.UID, a.DeviceModel, a.Device)
	for _, task := range a.Tasks() {
		mark := " "
		if task.Enabled {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %s\n", mark, task.Name)
	}
	return b.String()
}

func enabledCount(a *config.Account) int {
	n := 0
	for _, task := range a.Tasks() {
		if task.Enabled {
			n++
		}
	}
	return n
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
