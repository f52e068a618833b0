package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/inkwell/pkg/core"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage(Config{Path: t.TempDir()})
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStorageReadWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.Write(ctx, "/notes/today.txt", []byte("hello")))

	data, err := s.Read(ctx, "/notes/today.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Names without a leading separator resolve to the same stream.
	data, err = s.Read(ctx, "notes/today.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := s.Stat(ctx, "notes/today.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "/notes/today.txt", info.Name)
}

func TestStorageMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Read(ctx, "/nope.txt")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Stat(ctx, "/nope.txt")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "/nope.txt"), core.ErrNotFound)
	assert.ErrorIs(t, s.Rename(ctx, "/nope.txt", "/other.txt"), core.ErrNotFound)
}

func TestStorageRejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	assert.Error(t, s.Write(ctx, "../outside.txt", []byte("x")))
	_, err := s.Read(ctx, "/")
	assert.Error(t, err)
}

func TestStorageAppendDeleteRename(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.Append(ctx, "/log.txt", []byte("a")))
	require.NoError(t, s.Append(ctx, "/log.txt", []byte("b")))
	data, err := s.Read(ctx, "/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))

	require.NoError(t, s.Rename(ctx, "/log.txt", "/archive/log.txt"))
	assert.NoFileExists(t, filepath.Join(s.Path, "log.txt"))
	assert.FileExists(t, filepath.Join(s.Path, "archive", "log.txt"))

	require.NoError(t, s.Delete(ctx, "/archive/log.txt"))
	assert.NoFileExists(t, filepath.Join(s.Path, "archive", "log.txt"))
}

func TestStorageGlob(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.Write(ctx, "/b.txt", nil))
	require.NoError(t, s.Write(ctx, "/a.txt", nil))
	require.NoError(t, s.Write(ctx, "/journal/2024.txt", nil))
	require.NoError(t, s.Write(ctx, "/image.bin", nil))
	require.NoError(t, s.Write(ctx, "/"+DefaultSystemDir+"/metadata.txt", nil))

	names, err := s.Glob(ctx, "**/*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.txt", "/b.txt", "/journal/2024.txt"}, names)
}

func TestStorageAvailability(t *testing.T) {
	root := filepath.Join(t.TempDir(), "card")
	s := NewStorage(Config{Path: root, MustExist: true})

	assert.False(t, s.Available())
	assert.Error(t, s.Initialize(context.Background()))

	require.NoError(t, os.MkdirAll(root, 0755))
	assert.True(t, s.Available())
	assert.NoError(t, s.Initialize(context.Background()))
}

func TestStorageInitializeSweepsStagedFiles(t *testing.T) {
	root := t.TempDir()
	leftover := filepath.Join(root, TempFilePrefix+"crash")
	require.NoError(t, os.WriteFile(leftover, []byte("partial"), 0644))

	s := NewStorage(Config{Path: root})
	require.NoError(t, s.Initialize(context.Background()))
	assert.NoFileExists(t, leftover)
}
