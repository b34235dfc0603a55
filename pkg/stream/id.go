package stream

import "sync/atomic"

var globalIDCounter uint64

// nextID returns the next unique ID for a subscription. IDs are
// monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
