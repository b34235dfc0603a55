package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/auto/internal/config"
	"github.com/vango-dev/auto/internal/server"
	"github.com/vango-dev/auto/pkg/auto"
	"github.com/vango-dev/auto/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tick feed server",
		Long: `Start an HTTP server that broadcasts an incrementing counter over
WebSocket.

Endpoints:
  /ws        one text message per tick with the current count
  /metrics   Prometheus metrics (when metrics are enabled)
  /healthz   health check

Examples:
  auto serve
  auto serve --addr=:9090 --interval=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from auto.yaml)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Tick interval (default from auto.yaml)")

	return cmd
}

func runServe(addr string, interval time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if addr != "" {
		cfg.Server.Addr = addr
	}
	tick := cfg.TickInterval()
	if interval > 0 {
		tick = interval
	}

	logger, level := newLogger(cfg, os.Stderr)

	opts := server.Options{
		Addr:         cfg.Server.Addr,
		MetricsPath:  cfg.Server.MetricsPath,
		FeedPath:     cfg.Server.FeedPath,
		TickInterval: tick,
		Logger:       logger,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Gatherer = reg
		opts.Recorder = telemetry.NewRecorder(
			telemetry.WithRegistry(reg),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
		)
	} else {
		opts.Recorder = auto.NoopRecorder{}
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Feed on ws://%s%s", displayAddr(cfg.Server.Addr), cfg.Server.FeedPath)
	if cfg.Metrics.Enabled {
		info("Metrics on http://%s%s", displayAddr(cfg.Server.Addr), cfg.Server.MetricsPath)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Only the log level is applied live; other changes need a restart.
	if cfg.Path() != "" {
		w, err := config.NewWatcher(cfg.Path(), 0, func(next *config.Config) {
			level.Set(next.SlogLevel())
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		info("Watching %s for log level changes", cfg.Path())
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}
	fmt.Println("\n  Shutting down...")
	return nil
}

// displayAddr turns a bare ":port" into "localhost:port".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
