package scope

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/auto/pkg/auto"
)

var globalIDCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Scope owns a set of hosts and child scopes. Disposing a Scope destroys
// every host and child it contains.
type Scope struct {
	id   uint64
	name string

	// parent is nil for the root scope.
	parent *Scope

	children   []*Scope
	childrenMu sync.Mutex

	// hosts are driven by Check and destroyed by Dispose.
	hosts   []auto.Lifecycle
	hostsMu sync.Mutex

	// cleanups are manual cleanup functions registered via OnCleanup.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// scheduler is notified on every MarkForCheck; only the root's is used.
	scheduler func(*Scope)

	dirty    atomic.Bool
	marks    atomic.Int64
	checks   atomic.Int64
	disposed atomic.Bool
}

// Option configures a Scope.
type Option func(*Scope)

// WithName names the scope for logs and diagnostics.
func WithName(name string) Option {
	return func(s *Scope) {
		s.name = name
	}
}

// WithScheduler sets the function called with the marked scope on every
// MarkForCheck. Only the root scope's scheduler is used. It may be called
// from stream goroutines.
func WithScheduler(fn func(*Scope)) Option {
	return func(s *Scope) {
		s.scheduler = fn
	}
}

// New creates a Scope. If parent is non-nil the scope is registered as its
// child.
func New(parent *Scope, opts ...Option) *Scope {
	s := &Scope{
		id:     nextID(),
		parent: parent,
	}
	for _, opt := range opts {
		opt(s)
	}

	if parent != nil {
		parent.addChild(s)
	}
	return s
}

// Mount binds inst to class with s as its ChangeDetector and attaches the
// resulting host to s.
func Mount[T any](s *Scope, class *auto.Class[T], inst *T) *auto.Host[T] {
	h := class.Bind(inst, s)
	s.Attach(h)
	return h
}

// ID returns the unique identifier of the scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Name returns the scope's name, if any.
func (s *Scope) Name() string {
	return s.name
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Root returns the outermost ancestor of s.
func (s *Scope) Root() *Scope {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// IsDisposed returns true if the scope has been disposed.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

func (s *Scope) addChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	s.children = append(s.children, child)
}

func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// Children returns a snapshot of the child scopes.
func (s *Scope) Children() []*Scope {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	return append([]*Scope(nil), s.children...)
}

// Attach adds a host to the scope. Attaching to a disposed scope destroys
// the host immediately.
func (s *Scope) Attach(h auto.Lifecycle) {
	if s.disposed.Load() {
		h.OnDestroy()
		return
	}

	s.hostsMu.Lock()
	defer s.hostsMu.Unlock()
	s.hosts = append(s.hosts, h)
}

// OnCleanup registers a cleanup function to run when the scope is disposed.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		// Already disposed, run cleanup immediately
		fn()
		return
	}

	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// MarkForCheck marks s and its ancestors dirty and notifies the root's
// scheduler. It implements auto.ChangeDetector and is safe to call from any
// goroutine.
func (s *Scope) MarkForCheck() {
	if s.disposed.Load() {
		return
	}
	s.marks.Add(1)
	for cur := s; cur != nil; cur = cur.parent {
		cur.dirty.Store(true)
	}
	if fn := s.Root().scheduler; fn != nil {
		fn(s)
	}
}

// Marks returns how many times MarkForCheck was called on s.
func (s *Scope) Marks() int64 {
	return s.marks.Load()
}

// Checks returns how many Check passes s has run.
func (s *Scope) Checks() int64 {
	return s.checks.Load()
}

// Dirty reports whether s was marked since the last TakeDirty.
func (s *Scope) Dirty() bool {
	return s.dirty.Load()
}

// TakeDirty reports whether s was marked and clears the mark on s and all
// of its descendants.
func (s *Scope) TakeDirty() bool {
	dirty := s.dirty.Swap(false)
	for _, child := range s.Children() {
		if child.TakeDirty() {
			dirty = true
		}
	}
	return dirty
}

// Check runs one render-check pass: OnCheck on every host of s in attach
// order, then on every child scope, depth first.
func (s *Scope) Check() {
	if s.disposed.Load() {
		return
	}
	s.checks.Add(1)

	s.hostsMu.Lock()
	hosts := append([]auto.Lifecycle(nil), s.hosts...)
	s.hostsMu.Unlock()

	for _, h := range hosts {
		h.OnCheck()
	}

	for _, child := range s.Children() {
		child.Check()
	}
}

// Dispose disposes the scope: children first (last created first), then
// the scope's hosts in reverse attach order, then its cleanups in reverse
// registration order. After disposal the scope ignores Check and
// MarkForCheck.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		// Already disposed
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.childrenMu.Lock()
	children := s.children
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.hostsMu.Lock()
	hosts := s.hosts
	s.hosts = nil
	s.hostsMu.Unlock()

	for i := len(hosts) - 1; i >= 0; i-- {
		hosts[i].OnDestroy()
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
