package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/lagoon/internal/meta"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of lagoon",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), meta.GetInfo())
	},
}
