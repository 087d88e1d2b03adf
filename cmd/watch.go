package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/luma/lagoon/client"
	"github.com/luma/lagoon/protocol"
	"github.com/luma/lagoon/storage"
)

var (
	// The host to serve the HTTP API on
	httpHost string

	// How often the full state is refreshed
	refreshInterval time.Duration
)

// Pushes the watcher keeps the snapshot current with.
var watchedPushes = []protocol.Code{
	protocol.CodeStatusChanged,
	protocol.CodeChemistryChanged,
	protocol.CodeColorUpdate,
	protocol.CodeWeatherForecastChanged,
}

func init() {
	flags := WatchCmd.Flags()

	flags.StringVar(&httpHost, "http-host", "0.0.0.0", "The host to serve the HTTP API on")
	flags.DurationVar(&refreshInterval, "interval", time.Minute, "How often to refresh the full state")
}

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the gateway and serve its state over HTTP",
	Long: `Follow the gateway and serve its state over HTTP

The state is refreshed on every push and every --interval. The HTTP API serves
	GET /ping           liveness
	GET /state/         the whole snapshot
	GET /state/*path    one branch, e.g. /state/body/pool
	GET /metrics        prometheus metrics
	GET /updates        websocket stream of changed leaves

Usage
	lagoon watch --host 192.168.1.20

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, log, err := setup(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())

		store := storage.NewInmemoryStore()
		defer store.Close()

		c, err := connect(ctx, conf, log, registry, func(err error) {
			if err != nil {
				log.Warn("Gateway connection lost, reconnecting on next refresh", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		defer c.Shutdown()

		refresh := func() {
			if err := c.Update(ctx); err != nil {
				log.Warn("Failed to refresh gateway state", zap.Error(err))
			}

			export(ctx, c, store, log)
		}

		for _, code := range watchedPushes {
			if _, err := c.Subscribe(ctx, code, func(msg protocol.Message) {
				log.Debug("Received push", zap.Stringer("message", msg.Code))
				export(ctx, c, store, log)
			}); err != nil {
				return err
			}
		}

		hub := newUpdateHub(log.Named("updates"))
		defer hub.Close()

		go hub.Run(store.ListenToUpdates())

		refresh()

		router := setupRouter(conf.DebugHTTP, log)
		routeState(router, store, registry, hub)

		s := &http.Server{
			Addr:    net.JoinHostPort(httpHost, strconv.Itoa(conf.HTTPPort)),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Watching gateway",
			zap.String("gateway", conf.Addr()),
			zap.String("httpAddr", s.Addr),
			zap.Duration("interval", refreshInterval))

		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				refresh()
			}
		}

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func export(ctx context.Context, c *client.Client, store storage.Store, log *zap.Logger) {
	if err := c.Export(ctx, store); err != nil {
		log.Warn("Failed to export gateway state", zap.Error(err))
	}
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Logs all requests, like a combined access and error log, in UTC.
	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping", "/metrics", "/updates"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}

func routeState(r *gin.Engine, store storage.Store, gatherer prometheus.Gatherer, hub *updateHub) {
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.GET("/state/*path", func(c *gin.Context) {
		path := strings.ReplaceAll(strings.Trim(c.Param("path"), "/"), "/", ".")

		snapshot, err := store.Backup()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if path == "" {
			c.Data(http.StatusOK, "application/json", snapshot)
			return
		}

		result := gjson.GetBytes(snapshot, path)
		if !result.Exists() {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no state at " + path})
			return
		}

		c.Data(http.StatusOK, "application/json", []byte(result.Raw))
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/updates", gin.WrapH(hub))
}
