package gen

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/luma/lagoon/internal/meta"
)

var manDir string

var ManPagesCmd = &cobra.Command{
	Use:   "man",
	Short: "Generate man pages for lagoon",
	Long: `Writes one man page per lagoon command, including the gateway
client commands (status, watch) and the emulator. Pages go to the "man"
directory under the current directory unless --dir is given.`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Clean(manDir)
		if err := ensureDir(cmd, dir); err != nil {
			return err
		}

		header := &doc.GenManHeader{
			Title:   "LAGOON",
			Section: "1",
			Manual:  "lagoon Manual",
			Source:  meta.GetInfo().String(),
		}

		root := cmd.Root()
		root.DisableAutoGenTag = true

		fmt.Fprintf(cmd.OutOrStdout(), "Generating man pages for %s in %s\n", root.Name(), dir)
		if err := doc.GenManTree(root, header, dir); err != nil {
			return fmt.Errorf("generate man pages: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Done.")

		return nil
	},
}

func init() {
	flags := ManPagesCmd.Flags()
	flags.StringVar(&manDir, "dir", "man", "the directory to write the man pages to")

	if err := flags.SetAnnotation("dir", cobra.BashCompSubdirsInDir, []string{}); err != nil {
		panic(err)
	}
}
