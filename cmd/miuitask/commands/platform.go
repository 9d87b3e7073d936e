package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/miuitask/internal/platform"
)

func init() {
	rootCmd.AddCommand(platformCmd)
}

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Print the detected runtime platform",
	Long: `Print the platform identifier: qinglong inside a QingLong panel
container, docker inside any other container, otherwise the operating
system (linux, darwin, windows, ...).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := manager(cmd)
		if err != nil {
			return err
		}

		id := m.Platform()
		fmt.Fprintln(cmd.OutOrStdout(), id)
		if platform.InContainer(id) {
			fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", m.Location().Path)
		}
		return nil
	},
}
