// Package gate provides a mutual exclusion primitive that supports both
// blocking and context-aware acquisition. Unlike sync.Mutex, a goroutine
// waiting on a Gate can abandon the wait when its context is canceled
// without affecting other waiters.
//
// The zero value is ready to use; the underlying semaphore is constructed
// lazily on first acquisition so an uncontended Gate costs a single pointer.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate is a mutual exclusion lock with context-aware acquisition.
// It must not be copied after first use.
type Gate struct {
	sem atomic.Pointer[semaphore.Weighted]
}

func (g *Gate) get() *semaphore.Weighted {
	if s := g.sem.Load(); s != nil {
		return s
	}
	s := semaphore.NewWeighted(1)
	if g.sem.CompareAndSwap(nil, s) {
		return s
	}
	return g.sem.Load()
}

// Acquire takes the gate, waiting cooperatively until it is available.
// If ctx is canceled while waiting, Acquire returns ctx.Err() and the
// gate is left unchanged.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.get().Acquire(ctx, 1)
}

// Lock takes the gate, blocking until it is available.
func (g *Gate) Lock() {
	// Acquire with a background context never returns an error.
	_ = g.get().Acquire(context.Background(), 1)
}

// TryAcquire takes the gate if it is free and returns true, without waiting.
func (g *Gate) TryAcquire() bool {
	return g.get().TryAcquire(1)
}

// Release frees the gate. It must only be called by the current holder.
func (g *Gate) Release() {
	g.get().Release(1)
}

// Do runs fn while holding the gate. The gate is released on every exit
// path, including a panic inside fn. If ctx is canceled before the gate is
// acquired, fn never runs and ctx.Err() is returned.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}
