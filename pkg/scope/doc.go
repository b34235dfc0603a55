// Package scope is a minimal host runtime for augmented hosts.
//
// A Scope mirrors one component in a component tree. It drives the
// lifecycle of the hosts attached to it (OnCheck on every Check pass,
// OnDestroy once on Dispose) and is the ChangeDetector those hosts report
// to: MarkForCheck marks the scope and all of its ancestors dirty and
// notifies the root's scheduler.
//
//	root := scope.New(nil, scope.WithScheduler(func(s *scope.Scope) {
//	    renderQueue <- s
//	}))
//	counter := scope.Mount(scope.New(root), counterClass, &Counter{})
//
//	root.Check()          // runs OnCheck on every host, depth first
//	if root.TakeDirty() { // something changed since the last pass
//	    render()
//	}
//	root.Dispose()        // OnDestroy on every host, children first
package scope
