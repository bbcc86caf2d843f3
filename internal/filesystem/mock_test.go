package filesystem

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockFileSystem_WalkDirOrderAndSkip(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/lib/a/x.js", []byte("x"))
	mfs.AddFile("/lib/a-b/y.js", []byte("y"))
	mfs.AddFile("/lib/skip/z.js", []byte("z"))
	mfs.AddFile("/lib/b.js", []byte("b"))

	var visited []string
	err := mfs.WalkDir("/lib", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() && d.Name() == "skip" {
			return filepath.SkipDir
		}
		visited = append(visited, path)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"/lib",
		"/lib/a",
		"/lib/a/x.js",
		"/lib/a-b",
		"/lib/a-b/y.js",
		"/lib/b.js",
	}, visited)
}

func TestMockFileSystem_FailOn(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/lib/locked/secret.js", []byte("s"))
	mfs.AddFile("/lib/open.js", []byte("o"))
	mfs.FailOn("/lib/locked", fs.ErrPermission)

	_, err := mfs.ReadFile("/lib/locked/secret.js")
	require.ErrorIs(t, err, fs.ErrPermission)

	data, err := mfs.ReadFile("/lib/open.js")
	require.NoError(t, err)
	require.Equal(t, "o", string(data))

	require.ErrorIs(t, mfs.WriteFile("/lib/locked/new.js", nil, 0644), fs.ErrPermission)
}

func TestMockFileSystem_WriteFileNeedsParent(t *testing.T) {
	mfs := NewMockFileSystem()

	err := mfs.WriteFile("/missing/file.txt", []byte("x"), 0644)
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, mfs.MkdirAll("/missing", 0755))
	require.NoError(t, mfs.WriteFile("/missing/file.txt", []byte("x"), 0644))
	require.Equal(t, []string{"file.txt"}, mfs.Tree("/missing"))
}
