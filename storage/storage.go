// Package storage provides ready-made implementations of the vsource.Storage
// contract: a process-memory slot for tests, a checksummed temp file, a
// SQLite-backed store and a Redis-backed slot. All backends serialize values
// with msgpack, so any value that round-trips through msgpack can be used.
package storage

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNotSaved is returned by Recover when nothing has been persisted yet.
var ErrNotSaved = errors.New("storage: no value has been saved")

// DefaultQueryTimeout is the per-operation timeout for backends that perform
// I/O (SQLite, Redis). Prevents indefinite hangs on slow or unresponsive
// storage.
const DefaultQueryTimeout = 5 * time.Second

// config holds the resolved configuration for a storage backend.
type config struct {
	queryTimeout time.Duration
	prefix       string
	dir          string
}

// Option configures a storage backend.
type Option func(*config)

func applyOptions(opts []Option) config {
	cfg := config{queryTimeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed storage
// (SQLite, Redis). Defaults to DefaultQueryTimeout (5 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithPrefix sets the key prefix for namespacing slot keys.
// Applies to the Redis backend. Defaults to empty (no prefix).
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}

// WithDir sets the directory the File backend writes to.
// Defaults to os.TempDir().
func WithDir(dir string) Option {
	return func(c *config) { c.dir = dir }
}

func (c config) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.queryTimeout)
}
