package gen

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd groups the documentation and shell integration generators.
var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate man pages and shell completions for lagoon",
}

func init() {
	RootCmd.AddCommand(ManPagesCmd, CompletionCmd)
}

// ensureDir creates dir when it is missing, reporting progress on cmd's output.
func ensureDir(cmd *cobra.Command, dir string) error {
	if _, err := os.Stat(dir); err == nil || !os.IsNotExist(err) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Directory", dir, "does not exist, creating...")
	return os.MkdirAll(dir, 0750)
}
