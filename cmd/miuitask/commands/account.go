package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/miuitask/internal/auth"
	"github.com/thoreinstein/miuitask/internal/cli/prompt"
	"github.com/thoreinstein/miuitask/internal/config"
	"github.com/thoreinstein/miuitask/internal/errors"
	"github.com/thoreinstein/miuitask/pkg/fileutil"
)

// newSelector is replaced in tests.
var newSelector = prompt.NewSelector

var accountShowReveal bool

func init() {
	accountShowCmd.Flags().BoolVar(&accountShowReveal, "reveal", false, "print password and cookies unmasked")

	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountShowCmd)
	rootCmd.AddCommand(accountCmd)
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect configured accounts",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts and their enabled tasks",
	Args:  cobra.NoArgs,
	RunE:  runAccountList,
}

var accountShowCmd = &cobra.Command{
	Use:   "show [uid]",
	Short: "Print one account",
	Long: `Print one account as YAML.

Without a uid, a single account is shown directly. With several accounts
a fuzzy finder opens when running in a terminal, otherwise a numbered
prompt is read from stdin.`,
	Example: `  miuitask account show 100000
  miuitask account show --reveal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccountShow,
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	m, err := manager(cmd)
	if err != nil {
		return err
	}

	accounts := m.Snapshot().Accounts
	w := cmd.OutOrStdout()
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No accounts configured.")
		return nil
	}

	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, bold.Sprint("UID")+"\t"+bold.Sprint("PASSWORD")+"\t"+bold.Sprint("TASKS"))
	for i := range accounts {
		a := &accounts[i]

		var enabled []string
		for _, task := range a.Tasks() {
			if task.Enabled {
				enabled = append(enabled, task.Name)
			}
		}
		tasks := color.HiBlackString("none")
		if len(enabled) > 0 {
			tasks = strings.Join(enabled, ", ")
		}

		password := "no"
		if auth.HasPassword(a.Password) {
			password = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.UID, password, tasks)
	}
	return tw.Flush()
}

func runAccountShow(cmd *cobra.Command, args []string) error {
	m, err := manager(cmd)
	if err != nil {
		return err
	}

	cfg := m.Snapshot()
	if !accountShowReveal {
		cfg = config.Redacted(cfg)
	}

	var account *config.Account
	if len(args) == 1 {
		a, ok := cfg.Account(args[0])
		if !ok {
			return errors.NewUserError(
				errors.Wrapf(errors.ErrNotFound, "account %q", args[0]),
				"Run: miuitask account list")
		}
		account = a
	} else {
		a, err := newSelector().SelectAccount(cfg.Accounts)
		if err != nil {
			if errors.Is(err, prompt.ErrSelectionCancelled) {
				return nil
			}
			return errors.NewUserError(err, "Run: miuitask account list")
		}
		account = a
	}

	data, err := fileutil.EncodeYAML(account)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
