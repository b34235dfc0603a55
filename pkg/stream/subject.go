package stream

import (
	"sync"
)

// Stream is the subscribe side of a stream of T.
type Stream[T any] interface {
	Subscribe(fn func(T)) *Subscription
}

// observer is one subscriber of a Subject.
type observer[T any] struct {
	sub *Subscription
	fn  func(T)
}

// Subject multicasts values to its current subscribers.
type Subject[T any] struct {
	mu        sync.RWMutex
	observers []observer[T]

	// completed is set by Complete, closed by Unsubscribe.
	completed bool
	closed    bool
}

// NewSubject creates a Subject with no subscribers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Subscribe registers fn for every value passed to Next. Subscribing to a
// completed or closed subject returns an already closed Subscription.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed || s.closed {
		return closedSubscription()
	}

	sub := NewSubscription(nil)
	sub.Add(func() { s.remove(sub.ID()) })
	s.observers = append(s.observers, observer[T]{sub: sub, fn: fn})
	return sub
}

// remove drops the observer with the given subscription ID.
func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.observers {
		if o.sub.ID() == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Next delivers v to every current subscriber, in subscription order.
// Values sent after Complete or Unsubscribe are dropped.
func (s *Subject[T]) Next(v T) {
	// Copy subscribers while holding lock
	s.mu.RLock()
	if s.completed || s.closed {
		s.mu.RUnlock()
		return
	}
	observers := make([]observer[T], len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		if !o.sub.Closed() {
			o.fn(v)
		}
	}
}

// Complete ends the stream: every subscription is closed and later values
// are dropped.
func (s *Subject[T]) Complete() {
	s.mu.Lock()
	if s.completed || s.closed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, o := range observers {
		o.sub.Unsubscribe()
	}
}

// Unsubscribe closes the subject, dropping every subscriber without
// completing them.
func (s *Subject[T]) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	observers := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, o := range observers {
		o.sub.Unsubscribe()
	}
}

// Observers returns the number of live subscribers.
func (s *Subject[T]) Observers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// Completed reports whether Complete has been called.
func (s *Subject[T]) Completed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completed
}

// Closed reports whether Unsubscribe has been called.
func (s *Subject[T]) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
