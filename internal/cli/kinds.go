package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgretry/internal/registry"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List error kind names accepted by the retryable option",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range registry.Default().Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
