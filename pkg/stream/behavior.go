package stream

import "sync"

// Behavior is a Subject that holds a current value and replays it to each
// new subscriber before any later value.
type Behavior[T any] struct {
	Subject[T]

	mu    sync.RWMutex
	value T
}

// NewBehavior creates a Behavior seeded with initial.
func NewBehavior[T any](initial T) *Behavior[T] {
	return &Behavior[T]{value: initial}
}

// Subscribe registers fn and immediately calls it with the current value.
// Values sent while the replay runs are queued and delivered after it.
func (b *Behavior[T]) Subscribe(fn func(T)) *Subscription {
	g := &replayGate[T]{fn: fn, replaying: true}

	b.mu.RLock()
	current := b.value
	sub := b.Subject.Subscribe(g.deliver)
	b.mu.RUnlock()

	if sub.Closed() {
		return sub
	}
	fn(current)
	g.drain(sub)
	return sub
}

// replayGate holds back values for one subscriber until its replay is done.
type replayGate[T any] struct {
	fn func(T)

	mu        sync.Mutex
	replaying bool
	queue     []T
}

func (g *replayGate[T]) deliver(v T) {
	g.mu.Lock()
	if g.replaying {
		g.queue = append(g.queue, v)
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.fn(v)
}

// drain delivers queued values in order and then opens the gate.
func (g *replayGate[T]) drain(sub *Subscription) {
	for {
		g.mu.Lock()
		if len(g.queue) == 0 {
			g.replaying = false
			g.mu.Unlock()
			return
		}
		queued := g.queue
		g.queue = nil
		g.mu.Unlock()

		for _, v := range queued {
			if sub.Closed() {
				break
			}
			g.fn(v)
		}
	}
}

// Next stores v as the current value and delivers it to subscribers.
func (b *Behavior[T]) Next(v T) {
	b.mu.Lock()
	if b.Subject.Completed() || b.Subject.Closed() {
		b.mu.Unlock()
		return
	}
	b.value = v
	b.mu.Unlock()

	b.Subject.Next(v)
}

// Value returns the current value.
func (b *Behavior[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value
}
