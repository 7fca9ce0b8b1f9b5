package vsource

import (
	"context"
	"sync/atomic"
	"weak"

	"github.com/cockroachdb/errors"

	"github.com/agentuity/go-recoverable/gate"
	"github.com/agentuity/go-recoverable/taskqueue"
)

// Storage persists and reconstructs a single value. Implementations are
// supplied by the owner of a Source; package storage provides several.
type Storage[T any] interface {
	// Save persists v. It is called at most once per Source, from the
	// background queue, with a context that is not tied to any accessor.
	Save(ctx context.Context, v *T) error
	// Recover reconstructs the value from storage. Unlike Save it may be
	// called many times over the life of a Source. It must return a
	// non-nil value or an error.
	Recover(ctx context.Context) (*T, error)
}

// Source holds a value of type T, strongly until it has been persisted and
// weakly afterwards. The zero value is not usable; construct with New.
type Source[T any] struct {
	storage Storage[T]
	queue   *taskqueue.Queue
	name    string

	gate gate.Gate
	// initial is the strong reference. It is cleared by the save unit once
	// the value has been durably written, never before.
	initial atomic.Pointer[T]
	// weakRef is refreshed on every adoption and never reset to nil.
	weakRef atomic.Pointer[weak.Pointer[T]]
	// saved transitions false to true exactly once, under the gate.
	saved atomic.Bool
}

type config struct {
	name string
}

// Option configures a Source.
type Option func(*config)

// WithName sets the name used to identify this source's save unit in queue
// logs. Defaults to "save".
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// New returns a Source holding initial. st recovers and persists the value;
// q executes the one-time background save. All three must be non-nil.
func New[T any](initial *T, st Storage[T], q *taskqueue.Queue, opts ...Option) *Source[T] {
	if initial == nil {
		panic("vsource: initial value must not be nil")
	}
	if st == nil {
		panic("vsource: storage must not be nil")
	}
	if q == nil {
		panic("vsource: queue must not be nil")
	}
	cfg := config{name: "save"}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Source[T]{storage: st, queue: q, name: cfg.name}
	s.initial.Store(initial)
	return s
}

// TryGet returns the value if it is currently resident in memory, either
// strongly or through a live weak reference. It never blocks, never recovers
// from storage, and never schedules a save.
func (s *Source[T]) TryGet() (*T, bool) {
	if v := s.initial.Load(); v != nil {
		return v, true
	}
	if v := s.weakValue(); v != nil {
		return v, true
	}
	return nil, false
}

// Get returns the value, recovering it from storage if it is no longer in
// memory. The common case after the first access is a single atomic load and
// a weak-pointer resolution with no locking.
//
// The first successful Get schedules exactly one background save of the
// value onto the queue; the caller does not wait for it.
//
// If ctx is canceled while waiting for a concurrent accessor to finish, Get
// returns ctx.Err(). Errors from the Storage.Recover hook are returned
// unchanged and leave the source untouched, so a later call may retry.
func (s *Source[T]) Get(ctx context.Context) (*T, error) {
	// Fast path: the weak reference is still live.
	if v := s.weakValue(); v != nil {
		return v, nil
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.gate.Release()

	// Re-check under the gate: another caller may have recovered the value
	// while we waited.
	if v := s.weakValue(); v != nil {
		return v, nil
	}

	v := s.initial.Load()
	if v == nil {
		var err error
		v, err = s.storage.Recover(ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errors.New("vsource: storage recovered a nil value")
		}
	}

	s.adopt(v)
	return v, nil
}

// adopt refreshes the weak reference to point at v and, on the very first
// adoption, schedules the one-time background save. Caller must hold the
// gate.
func (s *Source[T]) adopt(v *T) {
	wp := weak.Make(v)
	s.weakRef.Store(&wp)

	if s.saved.Load() {
		return
	}
	s.saved.Store(true)
	s.queue.Enqueue(s.name, func(ctx context.Context) error {
		if err := s.storage.Save(ctx, v); err != nil {
			// Keep the strong reference so the value is never lost; the
			// queue logs the failure. There is no retry: the save is
			// attempted exactly once per source.
			return err
		}
		s.initial.Store(nil)
		return nil
	})
}

func (s *Source[T]) weakValue() *T {
	if wp := s.weakRef.Load(); wp != nil {
		return wp.Value()
	}
	return nil
}
