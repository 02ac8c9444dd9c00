package walk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dirsum/dirsum/entry"
	"github.com/dirsum/dirsum/progress"
)

// action tags a traversal worker's Delegate/Processed/Error messages.
// scanDir returns them to the worker that scanned the directory, which acts
// on them itself; only Delegate'd directories go back onto the dirQueue
// shared by every worker. Determinism only depends on the final sorted path
// list, not on the order in which directories are scanned.
type action int

const (
	actionDelegate  action = iota // a newly discovered subdirectory to scan
	actionProcessed                // a file accepted by the active filters
	actionError                    // a path that failed to stat/read
)

type actionMsg struct {
	kind   action
	path   string
	isLoop bool
	err    error
}

// collectedFile is one file that survived filtering, ready for hashing.
type collectedFile struct {
	path string
	size int64
}

// dirQueue is an unbounded FIFO of pending directories with built-in
// completion detection: Done() returns once the queue is empty and no
// worker still holds an item it might expand into more subdirectories.
type dirQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	pending int // items in the queue or currently being processed
	closed  bool
}

func newDirQueue(root string) *dirQueue {
	q := &dirQueue{items: []string{root}, pending: 1}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *dirQueue) push(dir string) {
	q.mu.Lock()
	q.items = append(q.items, dir)
	q.pending++
	q.cond.Broadcast()
	q.mu.Unlock()
}

// pop blocks until an item is available or the queue is permanently done, in
// which case ok is false.
func (q *dirQueue) pop() (dir string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && q.pending > 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	dir = q.items[0]
	q.items = q.items[1:]
	return dir, true
}

// done marks one previously popped item as fully processed (including
// having pushed any subdirectories it contained).
func (q *dirQueue) done() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}

// collect runs the Traversal Pool over every Entry in o.entries and returns
// the deterministic, path-sorted list of files that survived filtering.
func (w *Walker) collect(ctx context.Context) ([]collectedFile, error) {
	logger := slog.Default().With("component", "walk.collect")
	w.breaker.Reset()

	var all []collectedFile
	var invalid []error

	for _, e := range w.opts.entries {
		files, errs, err := w.collectEntry(ctx, e, logger)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
		invalid = append(invalid, errs...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].path < all[j].path })

	w.invalid = invalid
	return all, nil
}

func (w *Walker) collectEntry(ctx context.Context, e *entry.Entry, logger *slog.Logger) ([]collectedFile, []error, error) {
	queue := newDirQueue(e.Root)
	visited := make(map[string]bool)
	var visitedMu sync.Mutex

	var resultsMu sync.Mutex
	var results []collectedFile
	var softErrors []error

	if bindings := e.ContextBindings(); bindings != nil {
		if err := bindings.Consider(e.Root); err != nil {
			return nil, nil, newError(IO, "reading context file", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.threads; i++ {
		g.Go(func() error {
			for {
				if w.breaker.IsAborted() {
					return newError(Aborted, "collecting aborted", nil)
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				dir, ok := queue.pop()
				if !ok {
					return nil
				}

				msgs := w.scanDir(dir, e, visited, &visitedMu)
				for _, m := range msgs {
					switch m.kind {
					case actionDelegate:
						queue.push(m.path)
					case actionProcessed:
						info, err := os.Stat(m.path)
						resultsMu.Lock()
						if err != nil {
							softErrors = append(softErrors, fmt.Errorf("stat %s: %w", m.path, err))
						} else {
							results = append(results, collectedFile{path: m.path, size: info.Size()})
						}
						resultsMu.Unlock()
						w.progress.Notify(progress.Collecting, uint64(len(results)), uint64(len(results)+queueLen(queue)))
					case actionError:
						if w.opts.tolerance == StopOnErrors {
							resultsMu.Lock()
							softErrors = append(softErrors, m.err)
							resultsMu.Unlock()
							queue.done()
							return newError(IO, "collecting error", m.err)
						}
						if w.opts.tolerance == LogErrors {
							logger.Warn("skipping path", "path", m.path, "error", m.err)
						}
						resultsMu.Lock()
						softErrors = append(softErrors, m.err)
						resultsMu.Unlock()
					}
				}
				queue.done()
			}
		})
	}

	if err := g.Wait(); err != nil {
		var walkErr *Error
		if ok := asError(err, &walkErr); ok {
			return nil, nil, walkErr
		}
		return nil, nil, newError(Join, "collecting pool failed", err)
	}

	return results, softErrors, nil
}

func queueLen(q *dirQueue) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// scanDir reads one directory's entries, applies symlink resolution and the
// Entry's filters/context, and returns the Action messages describing what
// was found.
func (w *Walker) scanDir(dir string, e *entry.Entry, visited map[string]bool, visitedMu *sync.Mutex) []actionMsg {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []actionMsg{{kind: actionError, path: dir, err: fmt.Errorf("reading dir %s: %w", dir, err)}}
	}

	if bindings := e.ContextBindings(); bindings != nil {
		if err := bindings.Consider(dir); err != nil {
			return []actionMsg{{kind: actionError, path: dir, err: err}}
		}
	}

	var msgs []actionMsg
	for _, de := range entries {
		full := filepath.Join(dir, de.Name())

		isSymlink := de.Type()&os.ModeSymlink != 0
		realPath := full
		if isSymlink {
			resolved, err := filepath.EvalSymlinks(full)
			if err != nil {
				msgs = append(msgs, actionMsg{kind: actionError, path: full, err: fmt.Errorf("dangling symlink %s: %w", full, err)})
				continue
			}
			visitedMu.Lock()
			loop := visited[resolved]
			if !loop {
				visited[resolved] = true
			}
			visitedMu.Unlock()
			if loop {
				continue
			}
			realPath = resolved
		}

		info, err := os.Stat(realPath)
		if err != nil {
			msgs = append(msgs, actionMsg{kind: actionError, path: full, err: fmt.Errorf("stat %s: %w", full, err)})
			continue
		}

		isDir := info.IsDir()
		if !e.Filtered(full, isDir) {
			continue
		}

		if isDir {
			msgs = append(msgs, actionMsg{kind: actionDelegate, path: realPath})
			continue
		}
		msgs = append(msgs, actionMsg{kind: actionProcessed, path: full})
	}
	return msgs
}

// asError is a small errors.As helper kept local to avoid importing errors
// just for this one call site in two places.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
