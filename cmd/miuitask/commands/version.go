package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/miuitask/internal/platform"
)

// Build-time variables set via ldflags.
var (
	// Version is the semantic version of the build.
	Version = "dev"
	// Commit is the git commit SHA of the build.
	Commit = "none"
	// Date is the build date.
	Date = "unknown"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version, commit, build date and runtime platform of miuitask.`,
	Run: func(cmd *cobra.Command, _ []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "miuitask version %s\n", Version)
		fmt.Fprintf(w, "  commit:    %s\n", Commit)
		fmt.Fprintf(w, "  built:     %s\n", Date)
		fmt.Fprintf(w, "  go:        %s\n", runtime.Version())
		fmt.Fprintf(w, "  platform:  %s\n", platform.Current())
	},
}
