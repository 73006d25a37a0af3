package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	exists, err := s.Exists(ctx, "subs/a.yaml")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Read(ctx, "subs/a.yaml")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(ctx, "subs/b.yaml", []byte("b")))
	require.NoError(t, s.Write(ctx, "subs/a.yaml", []byte("a")))
	require.NoError(t, s.Write(ctx, "other/c.yaml", []byte("c")))

	data, err := s.Read(ctx, "subs/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)

	exists, err = s.Exists(ctx, "subs/a.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	paths, err := s.List(ctx, "subs")
	require.NoError(t, err)
	assert.Equal(t, []string{"subs/a.yaml", "subs/b.yaml"}, paths)

	paths, err = s.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, s.Delete(ctx, "subs/a.yaml"))
	assert.ErrorIs(t, s.Delete(ctx, "subs/a.yaml"), ErrNotFound)

	paths, err = s.List(ctx, "subs")
	require.NoError(t, err)
	assert.Equal(t, []string{"subs/b.yaml"}, paths)
}

func TestMemoryStorage(t *testing.T) {
	testStorage(t, NewMemoryStorage())
}

func TestLocalStorage(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	testStorage(t, s)
}

func TestLocalStorage_StaysInsideBaseDir(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(base, "data"))
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "../escape.yaml", []byte("x")))

	_, err = os.Stat(filepath.Join(base, "escape.yaml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "data", "escape.yaml"))
	assert.NoError(t, err)
}

func TestLocalStorage_OwnerOnlyFiles(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), "subs/a.yaml", []byte("a")))

	info, err := os.Stat(filepath.Join(base, "subs", "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMemoryStorage_CopiesData(t *testing.T) {
	s := NewMemoryStorage()
	buf := []byte("abc")
	require.NoError(t, s.Write(context.Background(), "k", buf))
	buf[0] = 'x'

	got, err := s.Read(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}
