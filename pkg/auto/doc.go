// Package auto adds declarative lifecycle bookkeeping to host components.
//
// A host is a struct whose instances are driven by a reactive UI runtime
// through two lifecycle events: OnCheck, called on every render-check pass,
// and OnDestroy, called once at teardown. Fields of the host are annotated
// with one of three kinds and the augmented host performs the matching chore
// after the host's own lifecycle logic has run:
//
//   - check: when the field's value changes by identity, MarkForCheck is
//     called on the host's ChangeDetector.
//   - subscribe: the field holds a live stream; the host keeps exactly one
//     subscription to whichever stream the field currently holds, and every
//     emission calls MarkForCheck.
//   - unsubscribe: the field holds a resource that is completed (when it
//     supports Complete) and then unsubscribed at destroy.
//
// # Annotating
//
// Fields are annotated with struct tags or with annotator options:
//
//	type Counter struct {
//	    Count  int                      `auto:"check"`
//	    Ticks  *stream.Behavior[int]    `auto:"subscribe"`
//	    Socket *stream.Feed             `auto:"unsubscribe"`
//	}
//
//	counter := auto.MustDefine[Counter](registry)
//
// or equivalently:
//
//	counter := auto.MustDefine[Counter](registry,
//	    auto.Check("Count"),
//	    auto.Subscribe("Ticks"),
//	    auto.Unsubscribe("Socket"),
//	)
//
// Conflicting annotations (one field, two kinds) abort the definition.
//
// # Binding
//
// Each instance is bound once to the ChangeDetector supplied by the runtime:
//
//	host := counter.Bind(&Counter{Ticks: stream.NewBehavior(0)}, detector)
//	host.OnCheck()   // every render-check pass
//	host.OnDestroy() // once
//
// # Identity
//
// "Changed" always means identity inequality, never deep equality: pointers,
// maps, channels and funcs compare by address and slices by their header.
// Mutating a value through the same pointer is not a change.
//
// # Thread Safety
//
// A host's lifecycle methods must not be called concurrently with each
// other. Stream emissions may arrive from other goroutines, so
// ChangeDetector implementations must tolerate concurrent MarkForCheck calls.
// Registries and classes are safe for concurrent use.
package auto
