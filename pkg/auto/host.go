package auto

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	autoerr "github.com/vango-dev/auto/internal/errors"
)

// Host is an instance of T augmented with its class's behaviors. It
// implements Lifecycle, so a host runtime drives it exactly like the bare
// instance; the instance's own OnCheck/OnDestroy always run first.
type Host[T any] struct {
	class *Class[T]
	inst  *T
	cd    ChangeDetector

	// st is allocated on the first lifecycle call.
	st *hostState

	destroyed atomic.Bool
}

// hostState is the per-instance tracking state. Slices are indexed by the
// position of the field within its kind.
type hostState struct {
	// Check engine snapshot.
	seen []bool
	last []reflect.Value

	// Subscribe engine subscriptions.
	subs []activeSubscription
}

// activeSubscription is the subscription held for one subscribe field.
type activeSubscription struct {
	// bound is set once the field has been observed.
	bound bool
	// stream is the stream value the subscription belongs to.
	stream reflect.Value
	// release unsubscribes; nil when no subscription is live.
	release func()
}

var _ Lifecycle = (*Host[struct{}])(nil)

// Instance returns the augmented instance.
func (h *Host[T]) Instance() *T {
	return h.inst
}

// Class returns the host's class.
func (h *Host[T]) Class() *Class[T] {
	return h.class
}

// Destroyed reports whether OnDestroy has run.
func (h *Host[T]) Destroyed() bool {
	return h.destroyed.Load()
}

// Subscribed reports whether the subscribe field name currently holds a
// live subscription.
func (h *Host[T]) Subscribed(name string) bool {
	if h.st == nil {
		return false
	}
	for i, f := range h.class.subs {
		if f.Name == name {
			return h.st.subs[i].release != nil
		}
	}
	return false
}

func (h *Host[T]) state() *hostState {
	if h.st == nil {
		c := h.class
		h.st = &hostState{
			seen: make([]bool, len(c.checks)),
			last: make([]reflect.Value, len(c.checks)),
			subs: make([]activeSubscription, len(c.subs)),
		}
	}
	return h.st
}

// OnCheck runs a render-check pass. See CheckContext.
func (h *Host[T]) OnCheck() {
	h.CheckContext(context.Background())
}

// CheckContext runs the instance's own OnCheck, then the check engine, then
// the subscribe engine. ctx only carries trace context. After OnDestroy the
// whole call is a no-op, including the instance's own OnCheck.
func (h *Host[T]) CheckContext(ctx context.Context) {
	if h.destroyed.Load() {
		return
	}
	if c, ok := any(h.inst).(Checker); ok {
		c.OnCheck()
	}

	c := h.class
	if len(c.checks) == 0 && len(c.subs) == 0 {
		return
	}

	start := time.Now()
	_, span := c.cfg.tracer.Start(ctx, "auto.check",
		trace.WithAttributes(attribute.String("auto.class", c.name)),
	)
	defer span.End()

	st := h.state()
	v := reflect.ValueOf(h.inst).Elem()
	marks := h.runChecks(st, v)
	switched := h.runSubscribe(st, v)

	span.SetAttributes(
		attribute.Int("auto.marks", marks),
		attribute.Int("auto.switched", switched),
	)
	span.SetStatus(codes.Ok, "")
	c.cfg.recorder.ObservePass(c.name, PassCheck, time.Since(start))
}

// OnDestroy tears the host down. See DestroyContext.
func (h *Host[T]) OnDestroy() {
	h.DestroyContext(context.Background())
}

// DestroyContext runs the instance's own OnDestroy, then the unsubscribe
// engine, then releases every subscription held by the subscribe engine.
// Only the first call has any effect. A host destroyed before its first
// check only runs the unsubscribe engine, as nothing was ever subscribed.
func (h *Host[T]) DestroyContext(ctx context.Context) {
	if h.destroyed.Swap(true) {
		return
	}
	defer h.class.unbind(h.inst)

	if d, ok := any(h.inst).(Destroyer); ok {
		d.OnDestroy()
	}

	c := h.class
	if len(c.unsubs) == 0 && len(c.subs) == 0 {
		return
	}

	start := time.Now()
	_, span := c.cfg.tracer.Start(ctx, "auto.destroy",
		trace.WithAttributes(attribute.String("auto.class", c.name)),
	)
	defer span.End()

	st := h.state()
	disposed := h.runUnsubscribe(reflect.ValueOf(h.inst).Elem())
	released := h.releaseSubscriptions(st)

	span.SetAttributes(
		attribute.Int("auto.disposed", disposed),
		attribute.Int("auto.released", released),
	)
	span.SetStatus(codes.Ok, "")
	c.cfg.recorder.ObservePass(c.name, PassDestroy, time.Since(start))
}

// markForCheck notifies the change detector. A missing detector is a host
// runtime configuration error and panics.
func (h *Host[T]) markForCheck(source string) {
	if h.cd == nil {
		panic(autoerr.New("A010").
			WithField(h.class.name, "").
			WithSuggestion("Pass the runtime's ChangeDetector to Class.Bind").
			Wrap(ErrNoChangeDetector))
	}
	h.class.cfg.recorder.IncMarkForCheck(h.class.name, source)
	h.cd.MarkForCheck()
}

// fieldValue reads f from the host struct. A field promoted through a nil
// embedded pointer reads as its zero value.
func fieldValue(host reflect.Value, f Field) reflect.Value {
	v, err := host.FieldByIndexErr(f.Index)
	if err != nil {
		return reflect.Zero(f.Type)
	}
	return v
}
