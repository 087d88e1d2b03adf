package gen_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/cmd/gen"
)

var _ = Describe("gen", func() {
	It("writes a man page per command into a new directory", func() {
		tmp, err := os.MkdirTemp("", "lagoon-man")
		Expect(err).To(Succeed())
		defer os.RemoveAll(tmp)
		dir := filepath.Join(tmp, "man")

		var out bytes.Buffer
		gen.ManPagesCmd.SetOut(&out)
		Expect(gen.ManPagesCmd.Flags().Set("dir", dir)).To(Succeed())
		Expect(gen.ManPagesCmd.RunE(gen.ManPagesCmd, nil)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("creating"))
		Expect(filepath.Join(dir, "gen-man.1")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "gen-completion.1")).To(BeAnExistingFile())
	})

	It("prints completion scripts", func() {
		for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
			var out bytes.Buffer
			gen.CompletionCmd.SetOut(&out)
			Expect(gen.CompletionCmd.RunE(gen.CompletionCmd, []string{shell})).To(Succeed())
			Expect(out.Len()).To(BeNumerically(">", 0), shell)
		}
	})

	It("rejects unknown shells", func() {
		Expect(gen.CompletionCmd.RunE(gen.CompletionCmd, []string{"tcsh"})).To(MatchError(ContainSubstring("tcsh")))
	})
})
