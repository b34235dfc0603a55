package auto

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// countingDetector counts MarkForCheck calls.
type countingDetector struct {
	n int
}

func (d *countingDetector) MarkForCheck() { d.n++ }

// spyStream is a test stream of ints with observer counting. With replay
// set, Subscribe delivers the current value synchronously.
type spyStream struct {
	name   string
	log    *[]string
	replay bool

	current    int
	observers  map[int]func(int)
	nextID     int
	subscribes int

	// onSubscribe runs at the start of Subscribe.
	onSubscribe func()
}

func newSpyStream(name string, log *[]string, replay bool, initial int) *spyStream {
	return &spyStream{
		name:      name,
		log:       log,
		replay:    replay,
		current:   initial,
		observers: make(map[int]func(int)),
	}
}

func (s *spyStream) Subscribe(fn func(int)) *spyHandle {
	if s.onSubscribe != nil {
		s.onSubscribe()
	}
	s.subscribes++
	s.record("subscribe")

	s.nextID++
	id := s.nextID
	s.observers[id] = fn
	if s.replay {
		fn(s.current)
	}
	return &spyHandle{stream: s, id: id}
}

func (s *spyStream) Emit(v int) {
	s.current = v
	for _, fn := range s.observers {
		fn(v)
	}
}

func (s *spyStream) Active() int { return len(s.observers) }

func (s *spyStream) record(event string) {
	if s.log != nil {
		*s.log = append(*s.log, s.name+"."+event)
	}
}

// spyHandle is the subscription handle returned by spyStream.
type spyHandle struct {
	stream *spyStream
	id     int
}

func (h *spyHandle) Unsubscribe() {
	h.stream.record("unsubscribe")
	delete(h.stream.observers, h.id)
}

// funcStream returns a plain unsubscribe func from Subscribe.
type funcStream struct {
	observers map[int]func(string)
	nextID    int
}

func newFuncStream() *funcStream {
	return &funcStream{observers: make(map[int]func(string))}
}

func (s *funcStream) Subscribe(fn func(string)) func() {
	s.nextID++
	id := s.nextID
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

func (s *funcStream) Emit(v string) {
	for _, fn := range s.observers {
		fn(v)
	}
}

// leakyStream ignores unsubscription.
type leakyStream struct {
	fns []func(int)
}

func (s *leakyStream) Subscribe(fn func(int)) func() {
	s.fns = append(s.fns, fn)
	return func() {}
}

func (s *leakyStream) Emit(v int) {
	for _, fn := range s.fns {
		fn(v)
	}
}

// spyResource supports both Complete and Unsubscribe.
type spyResource struct {
	name string
	log  *[]string

	completes    int
	unsubscribes int
}

func (r *spyResource) Complete() {
	r.completes++
	*r.log = append(*r.log, r.name+".complete")
}

func (r *spyResource) Unsubscribe() {
	r.unsubscribes++
	*r.log = append(*r.log, r.name+".unsubscribe")
}

// spyCloser is an io.Closer only.
type spyCloser struct {
	closes int
	err    error
}

func (c *spyCloser) Close() error {
	c.closes++
	return c.err
}

var _ io.Closer = (*spyCloser)(nil)

var errCloseFailed = errors.New("close failed")

// spyRecorder counts recorder hooks.
type spyRecorder struct {
	mu          sync.Mutex
	marks       map[string]int
	subscribes  int
	releases    map[Kind]int
	closeErrors int
	passes      map[string]int
	active      int
}

func newSpyRecorder() *spyRecorder {
	return &spyRecorder{
		marks:    make(map[string]int),
		releases: make(map[Kind]int),
		passes:   make(map[string]int),
	}
}

func (r *spyRecorder) IncMarkForCheck(_, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks[source]++
}

func (r *spyRecorder) IncSubscribe(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribes++
}

func (r *spyRecorder) IncRelease(_, _ string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases[kind]++
}

func (r *spyRecorder) IncCloseError(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeErrors++
}

func (r *spyRecorder) ObservePass(_, pass string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes[pass]++
}

func (r *spyRecorder) SetActiveHosts(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
