package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/lagoon/client"
	"github.com/luma/lagoon/cmd/gen"
	"github.com/luma/lagoon/internal/env"
	"github.com/luma/lagoon/internal/metrics"
)

var (
	// The gateway host, overrides LAGOON_HOST
	host string

	// The gateway port, overrides LAGOON_PORT
	port int
)

var RootCmd = &cobra.Command{
	Use:   "lagoon",
	Short: "Talk to pool equipment gateways",
	Long: `Talk to pool equipment gateways over their local binary protocol.

Configuration is read from the environment and from .env.local, see the
LAGOON_* variables. Flags override the environment.`,
	SilenceUsage: true,
}

func init() {
	flags := RootCmd.PersistentFlags()

	flags.StringVarP(&host, "host", "a", "", "The gateway host")
	flags.IntVarP(&port, "port", "p", 0, "The gateway port")

	RootCmd.AddCommand(StatusCmd)
	RootCmd.AddCommand(WatchCmd)
	RootCmd.AddCommand(EmulateCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and builds the logger.
func setup(ctx context.Context) (*env.Config, *zap.Logger, error) {
	conf, err := env.LoadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	if host != "" {
		conf.Host = host
	}

	if port != 0 {
		conf.Port = port
	}

	log, err := env.MakeLogger(conf.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	return conf, log, nil
}

// connect opens a client session to the configured gateway.
func connect(ctx context.Context, conf *env.Config, log *zap.Logger, registry prometheus.Registerer, onLost func(error)) (*client.Client, error) {
	if conf.Host == "" {
		return nil, errors.New("no gateway host, set LAGOON_HOST or pass --host")
	}

	options := conf.ClientOptions()
	options.Log = log.Named("client")
	options.Metrics = metrics.New(registry)
	options.OnConnectionLost = onLost

	c := client.New(options)
	if err := c.Open(ctx, conf.Host, conf.Port); err != nil {
		return nil, err
	}

	return c, nil
}
