package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/lagoon/storage"
)

var (
	// Only print the value at this path of the snapshot
	statusPath string
)

func init() {
	flags := StatusCmd.Flags()

	flags.StringVar(&statusPath, "path", "", "Only print the value at this path, e.g. body.pool.current_temperature")
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a snapshot of the gateway state",
	Long: `Connect to the gateway, read its full state and print it as JSON

Usage
	lagoon status --host 192.168.1.20
	lagoon status --path chemistry.ph.value

`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer signalStop()

		conf, log, err := setup(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		c, err := connect(ctx, conf, log, nil, nil)
		if err != nil {
			return err
		}
		defer c.Shutdown()

		if err := c.Update(ctx); err != nil {
			return err
		}

		store := storage.NewInmemoryStore()
		defer store.Close()

		if err := c.Export(ctx, store); err != nil {
			log.Warn("Snapshot is incomplete", zap.Error(err))
		}

		snapshot, err := store.Backup()
		if err != nil {
			return err
		}

		if statusPath != "" {
			result := gjson.GetBytes(snapshot, statusPath)
			if !result.Exists() {
				return fmt.Errorf("nothing at %q", statusPath)
			}

			snapshot = []byte(result.Raw)
		}

		var out bytes.Buffer
		if err := json.Indent(&out, snapshot, "", "  "); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), out.String())

		return nil
	},
}
