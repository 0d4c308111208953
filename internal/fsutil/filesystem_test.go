package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	assert.True(t, fsys.Exists(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.drlog"), []byte("DRVR"), 0o644))

	entries, err := fsys.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.drlog", entries[0].Name())

	info, err := fsys.Stat(filepath.Join(dir, "x.drlog"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())

	require.NoError(t, fsys.Remove(filepath.Join(dir, "x.drlog")))
	assert.False(t, fsys.Exists(filepath.Join(dir, "x.drlog")))
}

func TestMemoryFileSystem(t *testing.T) {
	m := NewMemoryFileSystem()
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	m.WriteFile("/logs/b.drlog", []byte("bb"), at)
	m.WriteFile("/logs/a.drlog", []byte("a"), at)
	m.WriteFile("/logs/nested/c.drlog", nil, at)

	t.Run("parents exist", func(t *testing.T) {
		assert.True(t, m.Exists("/logs"))
		assert.True(t, m.Exists("/logs/nested"))
		assert.True(t, m.Exists("/logs/./a.drlog"))
		assert.False(t, m.Exists("/other"))
	})

	t.Run("read dir sorted", func(t *testing.T) {
		entries, err := m.ReadDir("/logs")
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.Equal(t, []string{"a.drlog", "b.drlog", "nested"}, names)
		assert.True(t, entries[2].IsDir())

		_, err = m.ReadDir("/missing")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("stat", func(t *testing.T) {
		info, err := m.Stat("/logs/b.drlog")
		require.NoError(t, err)
		assert.Equal(t, int64(2), info.Size())
		assert.Equal(t, at, info.ModTime())
		assert.False(t, info.IsDir())

		info, err = m.Stat("/logs")
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		_, err = m.Stat("/logs/zzz")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("read copies", func(t *testing.T) {
		data, err := m.ReadFile("/logs/b.drlog")
		require.NoError(t, err)
		data[0] = 'x'
		again, err := m.ReadFile("/logs/b.drlog")
		require.NoError(t, err)
		assert.Equal(t, []byte("bb"), again)
	})

	t.Run("remove", func(t *testing.T) {
		err := m.Remove("/logs/nested")
		assert.ErrorIs(t, err, fs.ErrExist, "directory is not empty")
		require.NoError(t, m.Remove("/logs/nested/c.drlog"))
		require.NoError(t, m.Remove("/logs/nested"))
		assert.False(t, m.Exists("/logs/nested"))
		assert.ErrorIs(t, m.Remove("/logs/nested"), fs.ErrNotExist)
	})
}
