package fsys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerate(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.txt"), []byte("z"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub2"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub1"), 0755))

	files, subdirs, err := Enumerate(dir)
	require.NoError(t, err)

	// Order is lexicographic and load-bearing: it feeds the hash input.
	assert.Equal(t, []string{"a.txt", "b.txt", "z.txt"}, files)
	assert.Equal(t, []string{"sub1", "sub2"}, subdirs)
}

func TestEnumerateMissingDirectory(t *testing.T) {
	_, _, err := Enumerate(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello"), 0644))

	digest, err := HashFile(dir, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", digest)
}

func TestHashFileEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), nil, 0644))

	digest, err := HashFile(dir, "empty")
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", digest)
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), []byte("12345"), 0644))

	size, mtime, err := Stat(dir, "f")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.False(t, mtime.IsZero())
}
