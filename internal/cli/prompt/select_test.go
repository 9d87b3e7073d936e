package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/miuitask/internal/config"
	"github.com/thoreinstein/miuitask/internal/errors"
)

func testAccounts() []config.Account {
	first := config.DefaultAccount()
	first.UID = "1001"
	first.CheckIn = true

	second := config.DefaultAccount()
	second.UID = "1002"
	second.ThumbUp = true
	second.WxSign = true

	return []config.Account{first, second}
}

func TestSelectAccount_EmptyList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	_, err := s.SelectAccount(nil)
	if !errors.Is(err, ErrNoAccounts) {
		t.Fatalf("expected ErrNoAccounts, got: %v", err)
	}
}

func TestSelectAccount_SingleItem(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	accounts := testAccounts()[:1]
	result, err := s.SelectAccount(accounts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UID != "1001" {
		t.Errorf("expected '1001', got %q", result.UID)
	}
	// Should not prompt for single item
	if buf.Len() > 0 {
		t.Errorf("expected no output for single item, got: %s", buf.String())
	}
}

func TestSelectAccount_ValidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantUID string
	}{
		{"explicit first", "1\n", "1001"},
		{"explicit second", "2\n", "1002"},
		{"default on empty", "\n", "1001"},
		{"whitespace trimmed", "  2  \n", "1002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelectorWithIO(strings.NewReader(tt.input), &buf)

			accounts := testAccounts()
			result, err := s.SelectAccount(accounts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.UID != tt.wantUID {
				t.Errorf("expected uid %q, got %q", tt.wantUID, result.UID)
			}
		})
	}
}

func TestSelectAccount_ReturnsPointerIntoSlice(t *testing.T) {
	t.Parallel()

	s := NewSelectorWithIO(strings.NewReader("2\n"), io.Discard)

	accounts := testAccounts()
	result, err := s.SelectAccount(accounts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != &accounts[1] {
		t.Error("expected a pointer to the selected element")
	}
}

func TestSelectAccount_InvalidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"too low", "0\n", "out of range"},
		{"too high", "3\n", "out of range"},
		{"negative", "-1\n", "out of range"},
		{"not a number", "abc\n", "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelectorWithIO(strings.NewReader(tt.input), &buf)

			_, err := s.SelectAccount(testAccounts())
			if !errors.Is(err, ErrInvalidSelection) {
				t.Fatalf("expected ErrInvalidSelection, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestSelectAccount_Cancelled(t *testing.T) {
	t.Parallel()

	// Empty reader simulates EOF (Ctrl+D)
	var buf bytes.Buffer
	s := NewSelectorWithIO(&eofReader{}, &buf)

	_, err := s.SelectAccount(testAccounts())
	if !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got: %v", err)
	}
}

func TestSelectAccount_OutputFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader("1\n"), &buf)

	if _, err := s.SelectAccount(testAccounts()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Multiple accounts configured:") {
		t.Errorf("missing header in output: %s", output)
	}
	if !strings.Contains(output, "[1] 1001 (1 tasks enabled)") {
		t.Errorf("missing first option in output: %s", output)
	}
	if !strings.Contains(output, "[2] 1002 (2 tasks enabled)") {
		t.Errorf("missing second option in output: %s", output)
	}
	if !strings.Contains(output, "Select [1]:") {
		t.Errorf("missing prompt in output: %s", output)
	}
}

func TestSelectAccount_Interactive(t *testing.T) {
	t.Parallel()

	var gotLabels []string
	var gotPreview string
	s := &Selector{
		writer:      io.Discard,
		interactive: true,
		find: func(n int, label func(int) string, preview func(int) string) (int, error) {
			for i := range n {
				gotLabels = append(gotLabels, label(i))
			}
			gotPreview = preview(1)
			return 1, nil
		},
	}

	result, err := s.SelectAccount(testAccounts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UID != "1002" {
		t.Errorf("expected '1002', got %q", result.UID)
	}
	if strings.Join(gotLabels, ",") != "1001,1002" {
		t.Errorf("unexpected labels: %v", gotLabels)
	}
	if !strings.Contains(gotPreview, "[x] ThumbUp") || !strings.Contains(gotPreview, "[ ] CheckIn") {
		t.Errorf("unexpected preview: %s", gotPreview)
	}
}

func TestSelectAccount_InteractiveAbort(t *testing.T) {
	t.Parallel()

	s := &Selector{
		interactive: true,
		find: func(int, func(int) string, func(int) string) (int, error) {
			return 0, fuzzyfinder.ErrAbort
		},
	}

	_, err := s.SelectAccount(testAccounts())
	if !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got: %v", err)
	}
}

// eofReader simulates immediate EOF (like Ctrl+D).
type eofReader struct{}

func (r *eofReader) Read(_ []byte) (int, error) {
	return 0, io.EOF
}
