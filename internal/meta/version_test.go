package meta_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/internal/meta"
)

var _ = Describe("Info", func() {
	It("describes a release build", func() {
		info := meta.Info{Version: "1.2.0", Build: "abc123", Branch: "main", GoVersion: "go1.20", Platform: "linux amd64"}
		Expect(info.String()).To(Equal("lagoon 1.2.0 (abc123 on main), go1.20, linux amd64"))
	})

	It("describes a local build", func() {
		Expect(meta.GetInfo().String()).To(HavePrefix("lagoon dev, go"))
	})
})
