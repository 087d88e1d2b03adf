package env_test

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lagoon/internal/env"
)

var _ = Describe("env", func() {
	Describe("LoadConfig()", func() {
		keys := []string{"LAGOON_HOST", "LAGOON_PORT", "LAGOON_TIMEOUT", "LAGOON_MAX_RETRIES"}

		AfterEach(func() {
			for _, key := range keys {
				Expect(os.Unsetenv(key)).To(Succeed())
			}
		})

		It("falls back to defaults", func() {
			conf, err := env.LoadConfig(context.Background())
			Expect(err).To(Succeed())

			Expect(conf.Port).To(Equal(80))
			Expect(conf.Timeout).To(Equal(10 * time.Second))
			Expect(conf.MaxRetries).To(Equal(1))
			Expect(conf.RetryDelay).To(Equal(2 * time.Second))
			Expect(conf.KeepAlive).To(Equal(30 * time.Second))
			Expect(conf.HTTPPort).To(Equal(7362))
			Expect(conf.LogLevel).To(Equal("info"))
		})

		It("reads the environment", func() {
			Expect(os.Setenv("LAGOON_HOST", "192.168.1.20")).To(Succeed())
			Expect(os.Setenv("LAGOON_PORT", "500")).To(Succeed())
			Expect(os.Setenv("LAGOON_TIMEOUT", "3s")).To(Succeed())
			Expect(os.Setenv("LAGOON_MAX_RETRIES", "0")).To(Succeed())

			conf, err := env.LoadConfig(context.Background())
			Expect(err).To(Succeed())

			Expect(conf.Addr()).To(Equal("192.168.1.20:500"))
			Expect(conf.Timeout).To(Equal(3 * time.Second))
			Expect(conf.ClientOptions().MaxRetries).To(Equal(-1))
		})
	})

	Describe("MakeLogger()", func() {
		It("accepts zap level names", func() {
			log, err := env.MakeLogger("debug")
			Expect(err).To(Succeed())
			Expect(log.Core().Enabled(-1)).To(BeTrue())
		})

		It("rejects unknown levels", func() {
			_, err := env.MakeLogger("chatty")
			Expect(err).To(HaveOccurred())
		})
	})
})
