package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/vango-dev/auto/internal/demo"
	"github.com/vango-dev/auto/pkg/telemetry"
)

func demoCmd() *cobra.Command {
	var (
		feedURL     string
		passes      int
		interval    time.Duration
		coalesce    bool
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a dashboard component against the tick feed",
		Long: `Connect to a running 'auto serve' feed and drive a dashboard
component with check passes. A line is printed whenever the component
was marked for check since the previous render.

Examples:
  auto demo
  auto demo --passes=0            # run until interrupted
  auto demo --coalesce --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := demoFlags{
				feedURL:     feedURL,
				passes:      passes,
				interval:    interval,
				coalesce:    coalesce,
				showMetrics: showMetrics,
				passesSet:   cmd.Flags().Changed("passes"),
			}
			return runDemo(opts)
		},
	}

	cmd.Flags().StringVarP(&feedURL, "feed", "f", "", "Feed URL (default from auto.yaml)")
	cmd.Flags().IntVarP(&passes, "passes", "n", 0, "Number of check passes, 0 runs until interrupted (default from auto.yaml)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Time between check passes (default from auto.yaml)")
	cmd.Flags().BoolVar(&coalesce, "coalesce", false, "Call MarkForCheck at most once per pass")
	cmd.Flags().BoolVarP(&showMetrics, "metrics", "m", false, "Print host metrics when done")

	return cmd
}

type demoFlags struct {
	feedURL     string
	passes      int
	interval    time.Duration
	coalesce    bool
	showMetrics bool
	passesSet   bool
}

func runDemo(flags demoFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if flags.feedURL != "" {
		cfg.Demo.FeedURL = flags.feedURL
	}
	if flags.passesSet {
		cfg.Demo.Passes = flags.passes
	}
	checkInterval := cfg.CheckInterval()
	if flags.interval > 0 {
		checkInterval = flags.interval
	}
	if flags.coalesce {
		cfg.Checks.Coalesce = true
	}

	logger, _ := newLogger(cfg, os.Stderr)

	opts := demo.Options{
		FeedURL:  cfg.Demo.FeedURL,
		Passes:   cfg.Demo.Passes,
		Interval: checkInterval,
		Coalesce: cfg.Checks.Coalesce,
		Logger:   logger,
		Out:      os.Stdout,
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled && flags.showMetrics {
		reg = prometheus.NewRegistry()
		opts.Recorder = telemetry.NewRecorder(
			telemetry.WithRegistry(reg),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
		)
	} else if flags.showMetrics {
		warn("Metrics are disabled by configuration (metrics.enabled: false)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := demo.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Println()
	success("%d passes, %d renders, %d marks", stats.Passes, stats.Renders, stats.Marks)
	if stats.Last != "" {
		info("Last render: %s", stats.Last)
	}

	if reg != nil {
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		fmt.Println()
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
				return err
			}
		}
	}
	return nil
}
