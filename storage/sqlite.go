package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/agentuity/go-recoverable/vsource"
)

// SQLiteStore is a shared SQLite database holding any number of value slots,
// one row per slot key. Open it once and derive typed slots with
// NewSQLiteSlot.
type SQLiteStore struct {
	db  *sql.DB
	cfg config
}

// NewSQLiteStore opens (or creates) the database at dbPath. If dbPath is
// empty or ":memory:", an in-memory database is used. WAL mode is enabled
// for concurrent read performance.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	cfg := applyOptions(opts)
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "storage: open sqlite database")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "storage: enable WAL")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "storage: create slots table")
	}

	return &SQLiteStore{db: db, cfg: cfg}, nil
}

// Close closes the underlying database. Slots derived from the store are
// unusable afterwards.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SQLiteSlot is a typed single-value slot inside a SQLiteStore.
type SQLiteSlot[T any] struct {
	store *SQLiteStore
	key   string
}

var _ vsource.Storage[int] = (*SQLiteSlot[int])(nil)

// NewSQLiteSlot returns the slot for key inside store. Two slots with the
// same key address the same row.
func NewSQLiteSlot[T any](store *SQLiteStore, key string) *SQLiteSlot[T] {
	return &SQLiteSlot[T]{store: store, key: key}
}

func (s *SQLiteSlot[T]) Save(ctx context.Context, v *T) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "storage: marshal value")
	}
	qctx, cancel := s.store.cfg.queryCtx(ctx)
	defer cancel()
	_, err = s.store.db.ExecContext(qctx,
		`INSERT INTO slots (key, value, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, saved_at = excluded.saved_at`,
		s.key, data, time.Now().UnixNano())
	if err != nil {
		return errors.Wrapf(err, "storage: save slot %s", s.key)
	}
	return nil
}

func (s *SQLiteSlot[T]) Recover(ctx context.Context) (*T, error) {
	qctx, cancel := s.store.cfg.queryCtx(ctx)
	defer cancel()
	var data []byte
	err := s.store.db.QueryRowContext(qctx,
		`SELECT value FROM slots WHERE key = ?`, s.key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotSaved
	}
	if err != nil {
		return nil, errors.Wrapf(err, "storage: recover slot %s", s.key)
	}
	var v T
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrapf(err, "storage: unmarshal slot %s", s.key)
	}
	return &v, nil
}
