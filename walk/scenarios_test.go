package walk_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsum/dirsum/digest"
	"github.com/dirsum/dirsum/digest/blake3"
	"github.com/dirsum/dirsum/entry"
	"github.com/dirsum/dirsum/reader/file"
	"github.com/dirsum/dirsum/reader/mmap"
	"github.com/dirsum/dirsum/strategy"
	"github.com/dirsum/dirsum/walk"
)

// writeDeepTree builds folders folder_0..folder_4, each with files at three
// nesting levels, and returns the total file count.
func writeDeepTree(t *testing.T, root string) int {
	t.Helper()
	total := 0
	exts := []string{"aaa", "bbb", "ccc"}
	for folder := 0; folder < 5; folder++ {
		dir := filepath.Join(root, fmt.Sprintf("folder_%d", folder))
		for depth := 0; depth < 3; depth++ {
			dir = filepath.Join(dir, fmt.Sprintf("level_%d", depth))
			require.NoError(t, os.MkdirAll(dir, 0o755))
			for i := 0; i < 10; i++ {
				name := fmt.Sprintf("file_%d.%s", i, exts[i%len(exts)])
				content := fmt.Sprintf("folder=%d depth=%d i=%d", folder, depth, i)
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
				total++
			}
		}
	}
	return total
}

func hashTree(t *testing.T, root string, threads int, opts ...entry.Option) []byte {
	t.Helper()
	e, err := entry.New(root, opts...)
	require.NoError(t, err)
	w, err := walk.NewOptions().
		WithEntry(e).
		WithDigest(blake3.New()).
		WithReader(file.New()).
		WithThreads(threads).
		Build()
	require.NoError(t, err)
	require.NoError(t, w.Collect(context.Background()))
	sum, err := w.Hash(context.Background())
	require.NoError(t, err)
	return sum
}

func TestDeepTreeBackToBackHashesAreEqual(t *testing.T) {
	root := t.TempDir()
	total := writeDeepTree(t, root)

	w := newWalker(t, root)
	require.NoError(t, w.Collect(context.Background()))
	require.Equal(t, total, w.Count())

	sum1, err := w.Hash(context.Background())
	require.NoError(t, err)
	sum2, err := w.Hash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2)
}

func TestDeepTreeAppendedBytesChangeSummary(t *testing.T) {
	root := t.TempDir()
	writeDeepTree(t, root)
	before := hashTree(t, root, 2)

	victim := filepath.Join(root, "folder_2", "level_0", "level_1", "file_3.aaa")
	f, err := os.OpenFile(victim, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	after := hashTree(t, root, 2)
	assert.NotEqual(t, before, after)
}

func TestSummaryIndependentOfThreadCount(t *testing.T) {
	root := t.TempDir()
	writeDeepTree(t, root)

	sum1 := hashTree(t, root, 1)
	sumMax := hashTree(t, root, 2*runtime.NumCPU())
	assert.Equal(t, sum1, sumMax)
}

func TestExcludeFoldersPrunesWholeSubtrees(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"exclude_a/one.txt": "1",
		"b_exclude/two.txt": "2",
		"keep/three.txt":    "3",
		"keep/four.txt":     "4",
	})

	e, err := entry.New(root, entry.Exclude(entry.Folders("*exclude*")))
	require.NoError(t, err)
	w, err := walk.NewOptions().
		WithEntry(e).
		WithDigest(blake3.New()).
		WithReader(file.New()).
		WithThreads(2).
		Build()
	require.NoError(t, err)

	require.NoError(t, w.Collect(context.Background()))
	sum, err := w.Hash(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sum)

	for _, fd := range w.Iter() {
		assert.Contains(t, fd.Path, string(filepath.Separator)+"keep"+string(filepath.Separator))
	}
	assert.Equal(t, 2, w.Count())
}

func TestContextIgnoreOmitsSecretSubtrees(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"visible.txt":            "v",
		"secret/hidden.txt":      "h",
		"nested/secret/deep.txt": "d",
		"nested/open.txt":        "o",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, ".ignore"), []byte("**/secret/**\n"), 0o644))

	w := newWalker(t, root, entry.Context(entry.IgnoreFile(".ignore")))
	require.NoError(t, w.Collect(context.Background()))
	_, err := w.Hash(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, fd := range w.Iter() {
		rel, rerr := filepath.Rel(root, fd.Path)
		require.NoError(t, rerr)
		paths = append(paths, filepath.ToSlash(rel))
	}
	sort.Strings(paths)
	assert.Equal(t, []string{".ignore", "nested/open.txt", "visible.txt"}, paths)
}

func TestEmptyDirectoryYieldsEmptySummary(t *testing.T) {
	root := t.TempDir()

	w := newWalker(t, root)
	require.NoError(t, w.Collect(context.Background()))
	require.Equal(t, 0, w.Count())

	sum, err := w.Hash(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum)
	assert.Empty(t, w.Items())
}

func TestVanishedFileIsRetainedAsHashErr(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"stays.txt": "here",
		"goes.txt":  "gone soon",
	})

	w := newWalker(t, root)
	require.NoError(t, w.Collect(context.Background()))
	require.Equal(t, 2, w.Count())

	require.NoError(t, os.Remove(filepath.Join(root, "goes.txt")))

	sum, err := w.Hash(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sum)

	items := w.Items()
	require.Len(t, items, 2)
	byState := map[walk.HashState]walk.HashItem{}
	for _, item := range items {
		byState[item.State] = item
	}

	ok := byState[walk.HashOk]
	assert.Contains(t, ok.Path, "stays.txt")
	assert.NotEmpty(t, ok.Hash)

	failed := byState[walk.HashErr]
	assert.Contains(t, failed.Path, "goes.txt")
	var werr *walk.Error
	require.True(t, errors.As(failed.Err, &werr))
	assert.Equal(t, walk.FileMissing, werr.Kind)
}

func TestVanishedFileStopsRunUnderStopOnErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"stays.txt": "here",
		"goes.txt":  "gone soon",
	})

	e, err := entry.New(root)
	require.NoError(t, err)
	w, err := walk.NewOptions().
		WithEntry(e).
		WithDigest(blake3.New()).
		WithReader(file.New()).
		WithTolerance(walk.StopOnErrors).
		WithThreads(2).
		Build()
	require.NoError(t, err)

	require.NoError(t, w.Collect(context.Background()))
	require.NoError(t, os.Remove(filepath.Join(root, "goes.txt")))

	_, err = w.Hash(context.Background())
	require.Error(t, err)
	var werr *walk.Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, walk.FileMissing, werr.Kind)
}

func TestMultipleEntriesAreConcatenated(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeTree(t, rootA, map[string]string{"a.txt": "alpha"})
	writeTree(t, rootB, map[string]string{"b.txt": "bravo"})

	ea, err := entry.New(rootA)
	require.NoError(t, err)
	eb, err := entry.New(rootB)
	require.NoError(t, err)

	w, err := walk.NewOptions().
		WithEntry(ea).
		WithEntry(eb).
		WithDigest(blake3.New()).
		WithReader(file.New()).
		WithThreads(2).
		Build()
	require.NoError(t, err)

	require.NoError(t, w.Collect(context.Background()))
	assert.Equal(t, 2, w.Count())
	_, err = w.Hash(context.Background())
	require.NoError(t, err)
}

func TestMemoryMappedStrategyMatchesBuffered(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":      "alpha",
		"sub/b.txt":  "bravo",
		"sub/c.bin":  string(make([]byte, 100*1024)),
		"empty.file": "",
	})

	buffered := hashTree(t, root, 2)

	e, err := entry.New(root)
	require.NoError(t, err)
	w, err := walk.NewOptions().
		WithEntry(e).
		WithDigest(blake3.New()).
		WithReader(mmap.New()).
		WithReadingStrategy(strategy.Leaf(strategy.MemoryMapped)).
		WithThreads(2).
		Build()
	require.NoError(t, err)
	require.NoError(t, w.Collect(context.Background()))
	mapped, err := w.Hash(context.Background())
	require.NoError(t, err)

	assert.Equal(t, buffered, mapped, "reading strategy must not affect the summary")
}

func TestMemoryMappedStrategyRequiresCapableReader(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "alpha"})

	e, err := entry.New(root)
	require.NoError(t, err)
	w, err := walk.NewOptions().
		WithEntry(e).
		WithDigest(blake3.New()).
		WithReader(file.New()).
		WithReadingStrategy(strategy.Leaf(strategy.MemoryMapped)).
		WithTolerance(walk.StopOnErrors).
		WithThreads(1).
		Build()
	require.NoError(t, err)

	require.NoError(t, w.Collect(context.Background()))
	_, err = w.Hash(context.Background())
	require.Error(t, err)
	var werr *walk.Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, walk.MemoryMappingUnsupported, werr.Kind)
}

func TestScenarioStrategyMatchesUniformStrategy(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.txt": "tiny",
		"large.bin": string(make([]byte, 64*1024)),
	})

	uniform := hashTree(t, root, 2)

	scenario, err := strategy.NewScenario(
		strategy.Range{Start: 0, End: 4 * 1024, Kind: strategy.Complete},
		strategy.Range{Start: 4 * 1024, End: strategy.Unbounded, Kind: strategy.Buffer},
	)
	require.NoError(t, err)

	e, err := entry.New(root)
	require.NoError(t, err)
	w, err := walk.NewOptions().
		WithEntry(e).
		WithDigest(blake3.New()).
		WithReader(file.New()).
		WithReadingStrategy(scenario).
		WithThreads(2).
		Build()
	require.NoError(t, err)
	require.NoError(t, w.Collect(context.Background()))
	routed, err := w.Hash(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uniform, routed)
}

// abortingDigest wraps a real digest and trips an abort hook on the first
// Absorb call, so cancellation-liveness tests don't have to race a timer
// against the pool.
type abortingDigest struct {
	inner digest.Digest
	abort func()
}

func (d *abortingDigest) Setup() (digest.Digest, error) {
	fresh, err := d.inner.Setup()
	if err != nil {
		return nil, err
	}
	return &abortingDigest{inner: fresh, abort: d.abort}, nil
}

func (d *abortingDigest) Absorb(data []byte) error {
	d.abort()
	return d.inner.Absorb(data)
}

func (d *abortingDigest) Finish() error         { return d.inner.Finish() }
func (d *abortingDigest) Hash() ([]byte, error) { return d.inner.Hash() }
func (d *abortingDigest) Reset() error          { return d.inner.Reset() }
func (d *abortingDigest) Clone() digest.Digest {
	return &abortingDigest{inner: d.inner.Clone(), abort: d.abort}
}
func (d *abortingDigest) Name() string { return d.inner.Name() }

func TestAbortMidHashReturnsAborted(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 100; i++ {
		files[fmt.Sprintf("f_%03d.txt", i)] = fmt.Sprintf("content %d", i)
	}
	writeTree(t, root, files)

	var w *walk.Walker
	d := &abortingDigest{
		inner: blake3.New(),
		abort: func() { w.Breaker().Abort() },
	}

	e, err := entry.New(root)
	require.NoError(t, err)
	w, err = walk.NewOptions().
		WithEntry(e).
		WithDigest(d).
		WithReader(file.New()).
		WithThreads(2).
		Build()
	require.NoError(t, err)

	require.NoError(t, w.Collect(context.Background()))
	_, err = w.Hash(context.Background())
	require.Error(t, err)
	var werr *walk.Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, walk.Aborted, werr.Kind)

	// The breaker survives Hash; only Collect resets it.
	assert.True(t, w.Breaker().IsAborted())
}

func TestSymlinkToFileIsHashedAsFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("content"), 0o644))
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w := newWalker(t, root)
	require.NoError(t, w.Collect(context.Background()))
	assert.Equal(t, 2, w.Count())
	_, err := w.Hash(context.Background())
	require.NoError(t, err)
}
