package stream

import (
	"sync"
	"sync/atomic"
)

// Subscription is a handle to a subscription or any other disposable
// resource. Unsubscribe runs its teardown functions once, in reverse order
// of registration.
type Subscription struct {
	id     uint64
	closed atomic.Bool

	mu        sync.Mutex
	teardowns []func()
}

// NewSubscription creates a subscription with an optional teardown.
func NewSubscription(teardown func()) *Subscription {
	s := &Subscription{id: nextID()}
	if teardown != nil {
		s.teardowns = append(s.teardowns, teardown)
	}
	return s
}

// closedSubscription returns a subscription that is already closed.
func closedSubscription() *Subscription {
	s := &Subscription{id: nextID()}
	s.closed.Store(true)
	return s
}

// ID returns the unique identifier of the subscription.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Closed reports whether Unsubscribe has run.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

// Add registers an additional teardown. If the subscription is already
// closed, fn runs immediately.
func (s *Subscription) Add(fn func()) {
	if fn == nil {
		return
	}
	if s.closed.Load() {
		fn()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardowns = append(s.teardowns, fn)
}

// Unsubscribe releases the subscription. Only the first call has effect.
func (s *Subscription) Unsubscribe() {
	if s.closed.Swap(true) {
		return
	}

	s.mu.Lock()
	teardowns := s.teardowns
	s.teardowns = nil
	s.mu.Unlock()

	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
}
