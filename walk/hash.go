package walk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dirsum/dirsum/progress"
	"github.com/dirsum/dirsum/reader"
	"github.com/dirsum/dirsum/strategy"
)

// minPathsPerJob and maxPathsPerJob bound the batch size the hashing pool
// dispatches to each worker.
const (
	minPathsPerJob = 2
	maxPathsPerJob = 500
)

// fileHash is one file's path and sealed digest, produced by the Hashing
// Pool and consumed by the deterministic aggregation step.
type fileHash struct {
	path string
	hash []byte
}

// batchSize implements clamp(ceil(0.05*total), minPathsPerJob, maxPathsPerJob),
// further capped at total when total is positive (batchSize(1) is 1).
func batchSize(total int) int {
	n := int(math.Ceil(0.05 * float64(total)))
	if n < minPathsPerJob {
		n = minPathsPerJob
	}
	if n > maxPathsPerJob {
		n = maxPathsPerJob
	}
	if n > total && total > 0 {
		n = total
	}
	return n
}

// hash runs the Hashing Pool over files and returns their digests sorted by
// path, ready for deterministic aggregation, plus the per-path failures
// retained per the configured Tolerance. The Breaker is consulted but,
// unlike collect, never reset here: a caller who aborts mid-hash and then
// calls hash again on the same Walker must explicitly Reset the Breaker
// first.
//
// Before batching, every path is re-stat'd: one that has vanished since
// Collect becomes a FileMissing error item, subject to the same Tolerance
// as any other hashing failure.
func (w *Walker) hashFiles(ctx context.Context, files []collectedFile) ([]fileHash, []HashItem, error) {
	logger := slog.Default().With("component", "walk.hash")

	var failed []HashItem
	var failedMu sync.Mutex
	recordFailure := func(path string, kind Kind, cause error) *Error {
		werr := newError(kind, fmt.Sprintf("hashing %s", path), cause)
		failedMu.Lock()
		failed = append(failed, HashItem{Path: path, State: HashErr, Err: werr})
		failedMu.Unlock()
		if w.opts.tolerance == LogErrors {
			logger.Warn("failed to hash path", "path", path, "error", werr)
		}
		return werr
	}

	live := make([]collectedFile, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f.path); err != nil {
			if werr := recordFailure(f.path, FileMissing, err); w.opts.tolerance == StopOnErrors {
				return nil, failed, werr
			}
			continue
		}
		live = append(live, f)
	}

	total := len(live)
	totalTicks := len(files)
	if total == 0 {
		return nil, failed, nil
	}
	bs := batchSize(total)

	batches := make([][]collectedFile, 0, (total+bs-1)/bs)
	for i := 0; i < total; i += bs {
		end := i + bs
		if end > total {
			end = total
		}
		batches = append(batches, live[i:end])
	}

	results := make([]fileHash, 0, total)
	var resultsMu sync.Mutex
	var done atomic.Uint64
	done.Add(uint64(len(files) - total))

	next := make(chan []collectedFile, len(batches))
	for _, b := range batches {
		next <- b
	}
	close(next)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.threads; i++ {
		g.Go(func() error {
			for batch := range next {
				if w.breaker.IsAborted() {
					return newError(Aborted, "hashing aborted", nil)
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				for _, f := range batch {
					if w.breaker.IsAborted() {
						return newError(Aborted, "hashing aborted", nil)
					}
					h, err := w.hashOne(f)
					if err != nil {
						var werr *Error
						kind := IO
						if asError(err, &werr) {
							kind = werr.Kind
						}
						if w.opts.tolerance == StopOnErrors {
							recordFailure(f.path, kind, err)
							return err
						}
						recordFailure(f.path, kind, err)
						d := done.Add(1)
						w.progress.Notify(progress.Hashing, d, uint64(totalTicks))
						continue
					}
					resultsMu.Lock()
					results = append(results, h)
					resultsMu.Unlock()
					d := done.Add(1)
					w.progress.Notify(progress.Hashing, d, uint64(totalTicks))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var walkErr *Error
		if asError(err, &walkErr) {
			return nil, failed, walkErr
		}
		return nil, failed, newError(Join, "hashing pool failed", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })
	return results, failed, nil
}

// hashOne reads and hashes a single file according to the configured
// Reading Strategy.
func (w *Walker) hashOne(f collectedFile) (fileHash, error) {
	kind, err := w.opts.strategy.Resolve(uint64(f.size))
	if err != nil {
		return fileHash{}, newError(NoRangeForScenario, fmt.Sprintf("file %s (size %d)", f.path, f.size), err)
	}

	r, err := w.opts.reader.Setup(f.path)
	if err != nil {
		return fileHash{}, newError(ReaderError, fmt.Sprintf("opening %s", f.path), err)
	}
	defer r.Close()

	d, err := w.opts.digest.Setup()
	if err != nil {
		return fileHash{}, newError(HasherError, fmt.Sprintf("setting up digest for %s", f.path), err)
	}

	switch kind {
	case strategy.MemoryMapped:
		mm, ok := r.(reader.MemoryMapper)
		if !ok {
			return fileHash{}, newError(MemoryMappingUnsupported, fmt.Sprintf("reader does not support memory mapping for %s", f.path), nil)
		}
		data, err := mm.MemoryMap()
		if err != nil {
			return fileHash{}, newError(ReaderError, fmt.Sprintf("memory-mapping %s", f.path), err)
		}
		if err := d.Absorb(data); err != nil {
			return fileHash{}, newError(HasherError, fmt.Sprintf("absorbing %s", f.path), err)
		}
	case strategy.Complete:
		data, err := io.ReadAll(r)
		if err != nil {
			return fileHash{}, newError(ReaderError, fmt.Sprintf("reading %s", f.path), err)
		}
		if err := d.Absorb(data); err != nil {
			return fileHash{}, newError(HasherError, fmt.Sprintf("absorbing %s", f.path), err)
		}
	default: // strategy.Buffer
		buf := make([]byte, 32*1024)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if aerr := d.Absorb(buf[:n]); aerr != nil {
					return fileHash{}, newError(HasherError, fmt.Sprintf("absorbing %s", f.path), aerr)
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return fileHash{}, newError(ReaderError, fmt.Sprintf("reading %s", f.path), err)
			}
		}
	}

	if err := d.Finish(); err != nil {
		return fileHash{}, newError(HasherError, fmt.Sprintf("finishing digest for %s", f.path), err)
	}
	h, err := d.Hash()
	if err != nil {
		return fileHash{}, newError(HasherError, fmt.Sprintf("reading digest for %s", f.path), err)
	}
	return fileHash{path: f.path, hash: h}, nil
}
