// Package taskqueue provides a serialized background work queue. Units of
// work submitted from any goroutine run one at a time, in submission order,
// on background goroutines. A unit that fails or panics is logged and does
// not prevent later units from running.
package taskqueue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agentuity/go-recoverable/logger"
)

// Unit is a single piece of background work. The context passed to it is
// derived from the queue's base context and is never canceled by the
// goroutine that enqueued the unit.
type Unit func(ctx context.Context) error

// Queue executes units strictly one at a time in Enqueue order. A single
// Queue is typically shared by many producers so that a burst of submissions
// results in at most one unit of background work in flight.
type Queue struct {
	ctx     context.Context
	log     logger.Logger
	mu      sync.Mutex
	tail    chan struct{} // closed when the last enqueued unit has completed
	pending atomic.Int64
}

// New returns a Queue whose units run with a context derived from ctx.
// Canceling ctx cancels units that are still running or yet to run; it is
// not tied to any enqueuing caller.
func New(ctx context.Context, log logger.Logger) *Queue {
	if log == nil {
		log = logger.NewConsoleLogger(logger.LevelNone)
	}
	return &Queue{ctx: ctx, log: log.WithPrefix("taskqueue")}
}

// Enqueue schedules unit to run after every previously enqueued unit has
// completed. It never blocks the caller. name identifies the unit in logs.
//
// Completion of the predecessor, not its success, is what unblocks a unit:
// errors and panics are logged and swallowed.
func (q *Queue) Enqueue(name string, unit Unit) {
	done := make(chan struct{})

	// Splice after the current tail. The lock is held only for the swap,
	// never while a unit executes.
	q.mu.Lock()
	prev := q.tail
	q.tail = done
	q.mu.Unlock()

	q.pending.Add(1)
	go func() {
		defer close(done)
		defer q.pending.Add(-1)
		if prev != nil {
			<-prev
		}
		q.run(name, unit)
	}()
}

func (q *Queue) run(name string, unit Unit) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("unit %s panicked: %v", name, r)
		}
	}()
	if err := unit(q.ctx); err != nil {
		q.log.Error("unit %s failed: %s", name, err)
	}
}

// Wait blocks until every unit enqueued before the call has completed, or
// until ctx is canceled. Units enqueued while waiting are not waited for.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	tail := q.tail
	q.mu.Unlock()
	if tail == nil {
		return nil
	}
	select {
	case <-tail:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len reports the number of units that have been enqueued but not yet
// completed, including the one currently running.
func (q *Queue) Len() int {
	return int(q.pending.Load())
}
