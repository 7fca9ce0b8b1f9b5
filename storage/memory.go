package storage

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/agentuity/go-recoverable/vsource"
)

// Memory is a Storage that keeps the msgpack encoding of the value in
// process memory. It round-trips through real serialization, so a recovered
// value is always a fresh object, like the durable backends. Useful for
// tests and as the fast tier of composed setups.
type Memory[T any] struct {
	mu   sync.Mutex
	data []byte
}

var _ vsource.Storage[int] = (*Memory[int])(nil)

// NewMemory returns an empty in-memory storage slot.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{}
}

func (m *Memory[T]) Save(_ context.Context, v *T) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "storage: marshal value")
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *Memory[T]) Recover(_ context.Context) (*T, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return nil, ErrNotSaved
	}
	var v T
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "storage: unmarshal value")
	}
	return &v, nil
}
