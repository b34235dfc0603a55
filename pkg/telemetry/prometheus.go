package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/auto/pkg/auto"
)

// MetricsConfig configures the Prometheus recorder.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "auto").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: fine-grained buckets from 10µs to 100ms.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus recorder.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Check passes are usually microseconds; prometheus.DefBuckets start at 5ms.
var defaultBuckets = []float64{.00001, .000025, .00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .1}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "auto",
		Buckets:   defaultBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder is an auto.Recorder backed by Prometheus collectors.
//
// Metrics collected (with the default namespace):
//   - auto_mark_for_check_total: MarkForCheck calls by class and source
//   - auto_subscriptions_total: subscriptions installed by class and field
//   - auto_releases_total: subscriptions and resources released by class, field and kind
//   - auto_close_errors_total: io.Closer failures at destroy by class and field
//   - auto_pass_duration_seconds: check and destroy pass duration by class
//   - auto_active_hosts: bound, undestroyed hosts by class
type Recorder struct {
	markForCheck  *prometheus.CounterVec
	subscriptions *prometheus.CounterVec
	releases      *prometheus.CounterVec
	closeErrors   *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	activeHosts   *prometheus.GaugeVec
}

var _ auto.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder and registers its collectors. It panics if
// the collectors are already registered with the same registry.
func NewRecorder(opts ...MetricsOption) *Recorder {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Recorder{
		markForCheck: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mark_for_check_total",
			Help:        "Total number of MarkForCheck calls issued by augmented hosts",
			ConstLabels: config.ConstLabels,
		}, []string{"class", "source"}),

		subscriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriptions_total",
			Help:        "Total number of stream subscriptions installed",
			ConstLabels: config.ConstLabels,
		}, []string{"class", "field"}),

		releases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "releases_total",
			Help:        "Total number of subscriptions and resources released",
			ConstLabels: config.ConstLabels,
		}, []string{"class", "field", "kind"}),

		closeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "close_errors_total",
			Help:        "Total number of resources whose Close failed at destroy",
			ConstLabels: config.ConstLabels,
		}, []string{"class", "field"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Duration of check and destroy passes in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"class", "pass"}),

		activeHosts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_hosts",
			Help:        "Number of bound hosts not yet destroyed",
			ConstLabels: config.ConstLabels,
		}, []string{"class"}),
	}
}

func (r *Recorder) IncMarkForCheck(class, source string) {
	r.markForCheck.WithLabelValues(class, source).Inc()
}

func (r *Recorder) IncSubscribe(class, field string) {
	r.subscriptions.WithLabelValues(class, field).Inc()
}

func (r *Recorder) IncRelease(class, field string, kind auto.Kind) {
	r.releases.WithLabelValues(class, field, kind.String()).Inc()
}

func (r *Recorder) IncCloseError(class, field string) {
	r.closeErrors.WithLabelValues(class, field).Inc()
}

func (r *Recorder) ObservePass(class, pass string, d time.Duration) {
	r.passDuration.WithLabelValues(class, pass).Observe(d.Seconds())
}

func (r *Recorder) SetActiveHosts(class string, n int) {
	r.activeHosts.WithLabelValues(class).Set(float64(n))
}
