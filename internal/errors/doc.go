// Package errors provides structured, coded errors for the auto module.
//
// Every error raised while annotating host classes or running lifecycle
// passes carries a unique code (e.g. "A001") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Error Categories
//
//   - registration: annotation-time errors (conflicting kinds, unknown fields)
//   - runtime: lifecycle-pass errors (missing change detector)
//   - config: configuration file errors
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("A001").
//	    WithField("app.Counter", "Count").
//	    WithSuggestion(`Annotate "Count" with a single kind`).
//	    Wrap(auto.ErrFieldConflict)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR A001: Field annotated with conflicting kinds
//	//
//	//   app.Counter.Count
//	//
//	//   A field can carry exactly one of check, subscribe or unsubscribe.
//	//
//	//   Hint: Annotate "Count" with a single kind
package errors
