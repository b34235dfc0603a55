// Package stream provides small push-based streams that satisfy the stream
// and disposable capabilities of package auto.
//
// # Core Types
//
// Subject[T] multicasts values to its subscribers:
//
//	s := stream.NewSubject[string]()
//	sub := s.Subscribe(func(v string) { fmt.Println(v) })
//	s.Next("hello")
//	sub.Unsubscribe()
//
// Behavior[T] is a Subject that remembers its current value and replays it
// to every new subscriber:
//
//	count := stream.NewBehavior(0)
//	count.Subscribe(func(n int) { ... }) // called with 0 immediately
//	count.Next(1)
//
// Subscription is the handle returned by Subscribe. It can also be used on
// its own as a bag of teardown functions:
//
//	sub := stream.NewSubscription(nil)
//	sub.Add(func() { conn.Close() })
//	sub.Unsubscribe() // runs teardowns once
//
// Feed is a Subject of WebSocket messages read from a connection.
//
// # Completion and Closing
//
// Complete ends a stream gracefully: subscribers are released and later
// values are dropped. Unsubscribe on a Subject closes it outright. Both are
// idempotent.
//
// # Thread Safety
//
// All types are safe for concurrent use. Subscriber callbacks run on the
// goroutine that calls Next and are invoked without internal locks held.
package stream
