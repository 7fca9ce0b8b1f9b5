package storage

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/agentuity/go-recoverable/vsource"
)

// file layout: 4-byte magic, 8-byte big-endian xxhash of the body, body.
var fileMagic = []byte{'A', 'G', 'R', '1'}

const fileHeaderSize = 4 + 8

// File is a Storage backed by a single file. The value is stored as a
// msgpack body behind a checksummed header, and the write is atomic (temp
// file plus rename), so Recover either sees a complete value or fails —
// never a torn one.
type File[T any] struct {
	path string
}

var _ vsource.Storage[int] = (*File[int])(nil)

// NewFile returns a file-backed storage slot with a unique path under the
// configured directory (os.TempDir() by default). The file is created on
// Save, not here.
func NewFile[T any](opts ...Option) *File[T] {
	cfg := applyOptions(opts)
	dir := cfg.dir
	if dir == "" {
		dir = os.TempDir()
	}
	return &File[T]{
		path: filepath.Join(dir, "recoverable-"+uuid.NewString()+".bin"),
	}
}

// Path returns the file this slot writes to.
func (f *File[T]) Path() string {
	return f.path
}

func (f *File[T]) Save(_ context.Context, v *T) error {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "storage: marshal value")
	}
	buf := make([]byte, fileHeaderSize+len(body))
	copy(buf, fileMagic)
	binary.BigEndian.PutUint64(buf[4:], xxhash.Sum64(body))
	copy(buf[fileHeaderSize:], body)

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o600); err != nil {
		return errors.Wrapf(err, "storage: write %s", tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrapf(err, "storage: rename %s", f.path)
	}
	return nil
}

func (f *File[T]) Recover(_ context.Context) (*T, error) {
	buf, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNotSaved
	}
	if err != nil {
		return nil, errors.Wrapf(err, "storage: read %s", f.path)
	}
	if len(buf) < fileHeaderSize || string(buf[:4]) != string(fileMagic) {
		return nil, errors.Newf("storage: %s is not a recoverable value file", f.path)
	}
	body := buf[fileHeaderSize:]
	if sum := binary.BigEndian.Uint64(buf[4:]); sum != xxhash.Sum64(body) {
		return nil, errors.Newf("storage: %s failed checksum verification", f.path)
	}
	var v T
	if err := msgpack.Unmarshal(body, &v); err != nil {
		return nil, errors.Wrapf(err, "storage: unmarshal %s", f.path)
	}
	return &v, nil
}

// Remove deletes the backing file. The owner should call it once the value
// no longer needs to be recoverable.
func (f *File[T]) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "storage: remove %s", f.path)
	}
	return nil
}
