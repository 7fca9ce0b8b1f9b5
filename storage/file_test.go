package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecoverBeforeSave(t *testing.T) {
	f := NewFile[note](WithDir(t.TempDir()))
	_, err := f.Recover(context.Background())
	assert.ErrorIs(t, err, ErrNotSaved)
}

func TestFileRoundTrip(t *testing.T) {
	f := NewFile[note](WithDir(t.TempDir()))
	in := &note{Title: "t", Body: strings.Repeat("x", 4096)}
	require.NoError(t, f.Save(context.Background(), in))

	out, err := f.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *in, *out)

	// No stray temp file left behind by the atomic write.
	_, err = os.Stat(f.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileUniquePaths(t *testing.T) {
	dir := t.TempDir()
	a := NewFile[note](WithDir(dir))
	b := NewFile[note](WithDir(dir))
	assert.NotEqual(t, a.Path(), b.Path())
	assert.Equal(t, dir, filepath.Dir(a.Path()))
}

func TestFileChecksumVerification(t *testing.T) {
	f := NewFile[note](WithDir(t.TempDir()))
	require.NoError(t, f.Save(context.Background(), &note{Title: "t"}))

	// Flip a byte in the body.
	buf, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	buf[len(buf)-1] ^= 0xff
	require.NoError(t, os.WriteFile(f.Path(), buf, 0o600))

	_, err = f.Recover(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum")
}

func TestFileRejectsForeignContent(t *testing.T) {
	f := NewFile[note](WithDir(t.TempDir()))
	require.NoError(t, os.WriteFile(f.Path(), []byte("not ours"), 0o600))
	_, err := f.Recover(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotSaved)
}

func TestFileRemove(t *testing.T) {
	f := NewFile[note](WithDir(t.TempDir()))
	require.NoError(t, f.Save(context.Background(), &note{Title: "t"}))
	require.NoError(t, f.Remove())
	_, err := f.Recover(context.Background())
	assert.ErrorIs(t, err, ErrNotSaved)

	// Removing an already-removed slot is fine.
	assert.NoError(t, f.Remove())
}
