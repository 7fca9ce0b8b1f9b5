// Package vsource provides a recoverable weak-reference value source: a
// holder for an expensive-to-compute value that starts out strongly
// referenced, is persisted to secondary storage in the background on first
// access, and is then held only weakly so the garbage collector may reclaim
// it. Later accessors transparently get the value back, either from the
// still-live weak reference or by recovering it from storage.
//
// # Lifecycle
//
// A [Source] is created with an initial value via [New]. The first call to
// [Source.Get] returns that value and schedules exactly one save onto the
// shared [taskqueue.Queue]. Once the save completes, the strong reference is
// dropped and the value lives on only through a weak pointer. From then on
// Get either resolves the weak pointer (no locking, no I/O) or, if the value
// has been collected, recovers it through the [Storage] hook.
//
// This is not an LRU or TTL cache: nothing is ever evicted by policy. A
// value disappears from memory only when the garbage collector reclaims it,
// and it is always recoverable afterwards.
//
// # Concurrency
//
// Any number of goroutines may call Get and TryGet concurrently. Concurrent
// first-time accessors serialize through an internal gate so that recovery
// runs once and the save is scheduled once. Saves from all sources sharing a
// queue execute one at a time, in scheduling order, so a burst of first
// accesses (say, opening many documents at once) produces at most one
// background persistence operation in flight.
package vsource
