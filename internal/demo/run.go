package demo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vango-dev/auto/internal/errors"
	"github.com/vango-dev/auto/pkg/auto"
	"github.com/vango-dev/auto/pkg/scope"
	"github.com/vango-dev/auto/pkg/stream"
)

// Options configures Run.
type Options struct {
	// FeedURL is the WebSocket URL of the tick feed.
	FeedURL string

	// Passes is the number of check passes; 0 runs until ctx is done.
	Passes int

	// Interval is the period between check passes.
	Interval time.Duration

	// Coalesce calls MarkForCheck at most once per pass.
	Coalesce bool

	// Recorder receives the dashboard's metric hooks.
	Recorder auto.Recorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Out receives one line per render. Nil discards them.
	Out io.Writer
}

// Stats summarizes a run.
type Stats struct {
	Passes  int
	Renders int
	Marks   int64
	Last    string
}

// Run connects to the feed, mounts a Dashboard in a scope and drives it
// with check passes. A pass renders when the scope was marked since the
// previous render. The dashboard is destroyed before Run returns.
func Run(ctx context.Context, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "demo")
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}

	defineOpts := []auto.DefineOption{auto.WithLogger(logger)}
	if opts.Recorder != nil {
		defineOpts = append(defineOpts, auto.WithRecorder(opts.Recorder))
	}
	if opts.Coalesce {
		defineOpts = append(defineOpts, auto.CoalesceChecks())
	}
	class, err := Define(auto.NewRegistry(), defineOpts...)
	if err != nil {
		return Stats{}, err
	}

	feed, err := stream.Dial(ctx, opts.FeedURL, stream.WithFeedLogger(logger))
	if err != nil {
		return Stats{}, errors.New("A030").
			WithDetail("Could not connect to " + opts.FeedURL).
			Wrap(err)
	}

	root := scope.New(nil, scope.WithName("demo"))
	view := scope.New(root, scope.WithName("dashboard"))
	dash := NewDashboard(feed)
	scope.Mount(view, class, dash)
	defer root.Dispose()

	logger.Info("connected", "feed", opts.FeedURL, "passes", opts.Passes)

	var stats Stats
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		root.Check()
		stats.Passes++
		if root.TakeDirty() {
			stats.Renders++
			stats.Last = dash.Label
			fmt.Fprintf(out, "[%s] %s\n", time.Now().Format("15:04:05.000"), dash.Label)
		}
		if opts.Passes > 0 && stats.Passes >= opts.Passes {
			break
		}

		select {
		case <-ctx.Done():
			stats.Marks = view.Marks()
			return stats, nil
		case <-feed.Done():
			stats.Marks = view.Marks()
			if err := feed.Err(); err != nil {
				return stats, errors.New("A030").WithDetail("Feed closed: " + err.Error()).Wrap(err)
			}
			return stats, nil
		case <-ticker.C:
		}
	}

	stats.Marks = view.Marks()
	logger.Info("finished", "passes", stats.Passes, "renders", stats.Renders, "marks", stats.Marks)
	return stats, nil
}
