package walk

import (
	"context"
	"sort"

	"github.com/dirsum/dirsum/breaker"
	"github.com/dirsum/dirsum/digest"
	"github.com/dirsum/dirsum/progress"
)

// state is the Walker's position in its Uninit -> Idle -> Collected ->
// Hashed state machine. Collect() and Hash() validate the current state
// before acting and advance it on success.
type state int

const (
	stateUninit state = iota // zero value of a Walker not built via Options
	stateIdle
	stateCollected
	stateHashed
)

// Walker is the facade over the Traversal Pool, Hashing Pool, and
// deterministic aggregation step. Construct one with Options.Build, then
// call Collect followed by Hash to obtain a summary digest. A Walker may be
// reused for further Collect/Hash cycles; Collect always resets the
// Breaker, Hash never does.
type Walker struct {
	opts    *Options
	threads int

	breaker  breaker.Breaker
	progCh   progress.Channel
	progress *progress.Progress

	state state

	files     []collectedFile
	invalid   []error
	hashes    []fileHash
	hashFails []HashItem
	summary   []byte
}

// Progress returns the channel progress ticks are delivered on, or nil if
// WithProgress was never called on the Options that built this Walker.
func (w *Walker) Progress() progress.Channel {
	w.ensureProgress()
	return w.progCh
}

// Invalid returns the soft errors accumulated during the most recent
// Collect call (paths skipped due to tolerance LogErrors/DoNotLogErrors).
func (w *Walker) Invalid() []error {
	return w.invalid
}

// Breaker returns the cancellation token controlling this Walker. Call
// Abort on it from another goroutine to cancel an in-flight Collect or
// Hash.
func (w *Walker) Breaker() *breaker.Breaker {
	return &w.breaker
}

func (w *Walker) ensureProgress() {
	if w.progress != nil || !w.opts.hasProgress {
		return
	}
	p, ch := progress.New(w.opts.progress)
	w.progress = p
	w.progCh = ch
}

// Collect runs the Traversal Pool, populating the set of files that survive
// the configured Entry filters. It resets the Breaker before starting, so
// any prior abort does not carry over. Calling Collect from any state is
// allowed and always moves the Walker to Collected on success (restarting
// the state machine), since a Walker is meant to be reusable across runs.
func (w *Walker) Collect(ctx context.Context) error {
	w.ensureProgress()
	files, err := w.collect(ctx)
	if err != nil {
		return err
	}
	w.files = files
	w.hashes = nil
	w.summary = nil
	w.state = stateCollected
	return nil
}

// Hash runs the Hashing Pool over the files from the most recent Collect and
// aggregates their digests into a summary digest. It requires the Walker to
// be in the Collected or Hashed state (Hash may be called again after a
// prior Hash, e.g. to retry after an abort, without re-collecting). Unlike
// Collect, Hash never resets the Breaker.
func (w *Walker) Hash(ctx context.Context) ([]byte, error) {
	w.ensureProgress()
	if w.state != stateCollected && w.state != stateHashed {
		return nil, newError(Bound, "Hash called before Collect", nil)
	}

	hashes, fails, err := w.hashFiles(ctx, w.files)
	if err != nil {
		w.hashFails = fails
		return nil, err
	}
	w.hashes = hashes
	w.hashFails = fails

	// An empty path set yields an empty summary, not the digest of zero
	// bytes, so "nothing was hashed" stays distinguishable from "an empty
	// input was hashed".
	if len(hashes) == 0 {
		w.summary = []byte{}
		w.state = stateHashed
		return w.summary, nil
	}

	perFile := make([][]byte, len(hashes))
	for i, h := range hashes {
		perFile[i] = h.hash
	}
	summary, err := digest.Summary(w.opts.digest, perFile)
	if err != nil {
		return nil, newError(HasherError, "aggregating summary digest", err)
	}
	w.summary = summary
	w.state = stateHashed
	return summary, nil
}

// Count returns the number of files collected by the most recent Collect
// call. It is valid once the Walker has reached the Collected state.
func (w *Walker) Count() int {
	return len(w.files)
}

// FileDigest is one file's path (relative to nothing in particular -- the
// absolute path as seen during traversal) and its sealed per-file digest,
// exposed via Iter after Hash.
type FileDigest struct {
	Path string
	Hash []byte
}

// Iter returns the per-file digests from the most recent Hash call, sorted
// by path for deterministic iteration.
func (w *Walker) Iter() []FileDigest {
	out := make([]FileDigest, len(w.hashes))
	for i, h := range w.hashes {
		out[i] = FileDigest{Path: h.path, Hash: h.hash}
	}
	return out
}

// Summary returns the aggregate digest from the most recent Hash call.
func (w *Walker) Summary() []byte {
	return w.summary
}

// Items returns every collected path's HashItem from the most recent Hash
// call, sorted by path. Paths
// that hashed successfully carry State HashOk and a non-nil Hash; paths
// that failed (vanished since Collect, or a Reader/Digest error retained
// under LogErrors/DoNotLogErrors tolerance) carry State HashErr and a
// non-nil Err; collected paths the Hash run did not reach (e.g. because
// StopOnErrors cut it short) carry State Unhashed.
func (w *Walker) Items() []HashItem {
	out := make([]HashItem, 0, len(w.files))
	seen := make(map[string]bool, len(w.hashes)+len(w.hashFails))
	for _, h := range w.hashes {
		out = append(out, HashItem{Path: h.path, State: HashOk, Hash: h.hash})
		seen[h.path] = true
	}
	for _, f := range w.hashFails {
		out = append(out, f)
		seen[f.Path] = true
	}
	for _, f := range w.files {
		if !seen[f.path] {
			out = append(out, HashItem{Path: f.path, State: Unhashed})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
