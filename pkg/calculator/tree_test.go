package calculator

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treesum/pkg/errors"
	"treesum/pkg/record"
)

func TestCalculateTreeWritesRecord(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, fixtureEntries())

	var lastTotal, lastDone atomic.Int64
	err := CalculateTree(dir, Options{
		Parallel: 1,
		Progress: func(total, done int64) {
			lastTotal.Store(total)
			lastDone.Store(done)
		},
	})
	require.NoError(t, err)

	root, err := record.Load(filepath.Join(dir, record.FileName))
	require.NoError(t, err)
	assert.True(t, root.Complete())
	assert.NotEmpty(t, root.CalculatedAt)
	assert.Contains(t, root.Subdirectories, "a")
	assert.Contains(t, root.Subdirectories, "b")
	assert.Contains(t, root.Subdirectories, "c")
	assert.Equal(t, lastTotal.Load(), lastDone.Load())
	assert.Positive(t, lastDone.Load())
}

func TestCalculateTreeRejectsConflictingModes(t *testing.T) {
	dir := t.TempDir()
	err := CalculateTree(dir, Options{StartNew: true, ContinuePrevious: true})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))

	// No partial work may have happened.
	_, statErr := os.Stat(filepath.Join(dir, record.FileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCalculateTreeRejectsMissingTarget(t *testing.T) {
	err := CalculateTree(filepath.Join(t.TempDir(), "nope"), Options{Parallel: 1})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeEnumerate, errors.TypeOf(err))
}

func rootChecksum(t *testing.T, dir string) string {
	t.Helper()
	root, err := record.Load(filepath.Join(dir, record.FileName))
	require.NoError(t, err)
	require.True(t, root.Complete())
	return root.MD5
}

func TestCalculateTreeDeterministicAcrossParallelism(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, fixtureEntries())

	require.NoError(t, CalculateTree(dir, Options{Parallel: 1}))
	sequential := rootChecksum(t, dir)

	require.NoError(t, CalculateTree(dir, Options{Parallel: 4}))
	assert.Equal(t, sequential, rootChecksum(t, dir))
}

func TestSubtreeRecalculationRestoresAncestors(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, fixtureEntries())

	require.NoError(t, CalculateTree(dir, Options{Parallel: 1}))
	before := rootChecksum(t, dir)

	// Change a file deep in the tree, then recompute only that subtree.
	// The ancestor chain must be invalidated and restored so the root
	// checksum matches a full from-scratch calculation.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "deep", "three.txt"), []byte("new content"), 0644))
	require.NoError(t, CalculateTree(filepath.Join(dir, "a", "deep"), Options{Parallel: 1}))
	restored := rootChecksum(t, dir)
	assert.NotEqual(t, before, restored)

	require.NoError(t, os.Remove(filepath.Join(dir, record.FileName)))
	require.NoError(t, CalculateTree(dir, Options{Parallel: 1}))
	assert.Equal(t, rootChecksum(t, dir), restored)
}

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, fixtureEntries())

	require.NoError(t, CalculateTree(dir, Options{Parallel: 1}))
	uninterrupted := rootChecksum(t, dir)

	// Simulate an interrupted run: the subtree under a/ and every
	// ancestor up to the root lost their checksums before the process
	// died, but b/ and c/ completed.
	recordFile := filepath.Join(dir, record.FileName)
	root, err := record.Load(recordFile)
	require.NoError(t, err)
	root.Invalidate()
	root.Subdirectories["a"].Clear()
	require.NoError(t, record.Save(recordFile, root))

	require.NoError(t, CalculateTree(dir, Options{Parallel: 1, ContinuePrevious: true}))
	assert.Equal(t, uninterrupted, rootChecksum(t, dir))
}

func TestPartialFailureKeepsAncestorsInvalidated(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, fixtureEntries())
	require.NoError(t, CalculateTree(dir, Options{Parallel: 1}))

	// Break the nested target so its recomputation fails.
	require.NoError(t, os.Symlink(
		filepath.Join(dir, "missing-target"),
		filepath.Join(dir, "b", "nested", "dangling")))

	err := CalculateTree(filepath.Join(dir, "b", "nested"), Options{Parallel: 1})
	require.Error(t, err)

	// The partial record was checkpointed with the ancestor chain still
	// stripped, ready for a later resume.
	root, loadErr := record.Load(filepath.Join(dir, record.FileName))
	require.NoError(t, loadErr)
	assert.False(t, root.Complete())
	assert.False(t, root.Subdirectories["b"].Complete())
	assert.True(t, root.Subdirectories["a"].Complete())
}

func TestStartNewDiscardsExistingRecord(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "hello"})

	require.NoError(t, CalculateTree(dir, Options{Parallel: 1}))
	first := rootChecksum(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed"), 0644))
	require.NoError(t, CalculateTree(dir, Options{Parallel: 1, StartNew: true}))
	assert.NotEqual(t, first, rootChecksum(t, dir))
}

func TestDetailFilesPersisted(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"data.txt": "payload"})

	require.NoError(t, CalculateTree(dir, Options{Parallel: 1, DetailFiles: true}))

	root, err := record.Load(filepath.Join(dir, record.FileName))
	require.NoError(t, err)
	require.Contains(t, root.FileListing, "data.txt")
	assert.Equal(t, md5hex("payload"), root.FileListing["data.txt"].MD5)
	assert.Equal(t, int64(7), root.FileListing["data.txt"].Size)
}
