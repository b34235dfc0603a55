package auto

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for augmented hosts.
const defaultTracerName = "auto"

// DefineOption configures Define. Annotations (Check, Subscribe,
// Unsubscribe) and class options (WithLogger, WithRecorder, WithTracer,
// CoalesceChecks) are both DefineOptions.
type DefineOption interface {
	applyDefine(d *definition)
}

// definition accumulates the options passed to Define.
type definition struct {
	annotations []Annotation
	cfg         classConfig
}

// classConfig holds per-class runtime configuration.
type classConfig struct {
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	coalesce bool
}

func defaultClassConfig() classConfig {
	return classConfig{
		recorder: NoopRecorder{},
	}
}

// resolve fills in defaults that depend on global state at definition time.
func (c *classConfig) resolve(class string) {
	if c.logger == nil {
		c.logger = slog.Default().With("component", "auto")
	}
	c.logger = c.logger.With("class", class)
	if c.recorder == nil {
		c.recorder = NoopRecorder{}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(defaultTracerName)
	}
}

// Annotation records one field under one kind.
type Annotation struct {
	Field string
	Kind  Kind
}

func (a Annotation) applyDefine(d *definition) {
	d.annotations = append(d.annotations, a)
}

// Check annotates field as a check field: identity changes between passes
// call MarkForCheck.
func Check(field string) Annotation {
	return Annotation{Field: field, Kind: KindCheck}
}

// Subscribe annotates field as a subscribe field: the host keeps one
// subscription to the stream the field currently holds.
func Subscribe(field string) Annotation {
	return Annotation{Field: field, Kind: KindSubscribe}
}

// Unsubscribe annotates field as an unsubscribe field: its resource is
// completed and unsubscribed at destroy.
func Unsubscribe(field string) Annotation {
	return Annotation{Field: field, Kind: KindUnsubscribe}
}

type optionFunc func(*classConfig)

func (f optionFunc) applyDefine(d *definition) { f(&d.cfg) }

// WithLogger sets the logger used by the class's hosts.
// Default: slog.Default().With("component", "auto").
func WithLogger(logger *slog.Logger) DefineOption {
	return optionFunc(func(c *classConfig) {
		c.logger = logger
	})
}

// WithRecorder sets the metrics recorder. Default: NoopRecorder.
func WithRecorder(r Recorder) DefineOption {
	return optionFunc(func(c *classConfig) {
		c.recorder = r
	})
}

// WithTracer sets the tracer used for check and destroy spans.
// Default: the global OpenTelemetry tracer named "auto".
func WithTracer(t trace.Tracer) DefineOption {
	return optionFunc(func(c *classConfig) {
		c.tracer = t
	})
}

// CoalesceChecks makes the check engine call MarkForCheck at most once per
// pass, however many check fields changed. By default every changed field
// produces its own call.
func CoalesceChecks() DefineOption {
	return optionFunc(func(c *classConfig) {
		c.coalesce = true
	})
}
