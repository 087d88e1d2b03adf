package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/lagoon/catalog"
	"github.com/luma/lagoon/gateway"
	"github.com/luma/lagoon/protocol"
)

var (
	// Answer every login with LoginRejected
	rejectLogin bool

	// How often pushes are sent to registered clients, zero disables them
	pushInterval time.Duration
)

func init() {
	flags := EmulateCmd.Flags()

	flags.BoolVar(&rejectLogin, "reject-login", false, "Reject every login")
	flags.DurationVar(&pushInterval, "push-interval", 10*time.Second, "How often to push status and chemistry changes, 0 disables pushes")
}

var EmulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Run a gateway emulator",
	Long: `Run a gateway emulator that serves a sample pool and spa system

The emulator listens on --host and --port, answering the same requests a real
gateway does. Commands change its state and are pushed to registered clients.

Usage
	lagoon emulate --host 127.0.0.1 --port 8080

`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, log, err := setup(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		listenHost := conf.Host
		if listenHost == "" {
			listenHost = "0.0.0.0"
		}

		state := catalog.SampleState()
		server := gateway.New(gateway.Options{
			Host:  listenHost,
			Port:  conf.Port,
			State: state,
			Trace: conf.Trace,
			Log:   log.Named("gateway"),
		})

		server.SetFaults(gateway.Faults{RejectLogin: rejectLogin})

		if err := server.Listen(ctx); err != nil {
			return err
		}

		var tick <-chan time.Time
		if pushInterval > 0 {
			ticker := time.NewTicker(pushInterval)
			defer ticker.Stop()
			tick = ticker.C
		}

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop

			case <-tick:
				drift(state)

				for _, code := range []protocol.Code{protocol.CodeStatusChanged, protocol.CodeChemistryChanged} {
					if err := server.PushState(code); err != nil {
						log.Warn("Failed to push", zap.Stringer("message", code), zap.Error(err))
					}
				}
			}
		}

		signalStop()
		log.Info("Shutting down")

		return server.Close()
	},
}

// drift nudges the readings so pushes carry changes.
func drift(state *catalog.State) {
	_ = state.Apply(func(s *catalog.State) error {
		for i := range s.Bodies {
			b := &s.Bodies[i]
			if b.CurrentTemperature < b.HeatSetpoint {
				b.CurrentTemperature++
			} else {
				b.CurrentTemperature--
			}
		}

		s.Chemistry.ORP += 1 - 2*(s.Chemistry.ORP%2)
		s.Chemistry.StatusORP = int32(s.Chemistry.ORP)

		return nil
	})
}
