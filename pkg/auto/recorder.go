package auto

import "time"

// Sources of a MarkForCheck call, as reported to a Recorder.
const (
	SourceCheck  = "check"
	SourceStream = "stream"
)

// Lifecycle passes, as reported to a Recorder.
const (
	PassCheck   = "check"
	PassDestroy = "destroy"
)

// Recorder receives observability hooks from augmented hosts. Implementations
// may forward to Prometheus (see package telemetry) or any other backend and
// must be safe for concurrent use, since stream emissions can arrive from
// other goroutines.
type Recorder interface {
	// IncMarkForCheck counts one MarkForCheck call caused by source.
	IncMarkForCheck(class, source string)
	// IncSubscribe counts one subscription installed for a field.
	IncSubscribe(class, field string)
	// IncRelease counts one release: a subscription handle being
	// unsubscribed (KindSubscribe) or a resource being disposed
	// (KindUnsubscribe).
	IncRelease(class, field string, kind Kind)
	// IncCloseError counts an io.Closer that failed during destroy.
	IncCloseError(class, field string)
	// ObservePass records the duration of one lifecycle pass.
	ObservePass(class, pass string, d time.Duration)
	// SetActiveHosts reports the number of bound, undestroyed hosts.
	SetActiveHosts(class string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when none is set).
type NoopRecorder struct{}

func (NoopRecorder) IncMarkForCheck(string, string)             {}
func (NoopRecorder) IncSubscribe(string, string)                {}
func (NoopRecorder) IncRelease(string, string, Kind)            {}
func (NoopRecorder) IncCloseError(string, string)               {}
func (NoopRecorder) ObservePass(string, string, time.Duration)  {}
func (NoopRecorder) SetActiveHosts(string, int)                 {}
