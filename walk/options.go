package walk

import (
	"fmt"
	"runtime"

	"github.com/dirsum/dirsum/digest"
	"github.com/dirsum/dirsum/entry"
	"github.com/dirsum/dirsum/reader"
	"github.com/dirsum/dirsum/strategy"
)

// Tolerance controls how both the traversal pool and the hashing pool react
// to per-path errors (permission denied, vanished files, dangling symlinks,
// a Reader/Digest failure) encountered during their respective phases. It
// applies only to IO-like errors; configuration errors always fail
// immediately, and an abort is never suppressed. A path excluded under
// LogErrors/DoNotLogErrors simply carries no digest and is absent from the
// summary's input; a hashing failure is still reported, as a HashErr
// HashItem, via Walker.Items, and a traversal failure via Walker.Invalid.
type Tolerance int

const (
	// LogErrors records each error via slog and continues, excluding the
	// offending path from the result. This is the default.
	LogErrors Tolerance = iota
	// DoNotLogErrors behaves like LogErrors but suppresses the log line,
	// for callers that surface errors through their own channel.
	DoNotLogErrors
	// StopOnErrors aborts the whole phase (collecting or hashing) on the
	// first error.
	StopOnErrors
)

// Options configures a Walker. Build one with NewOptions and the With*
// setters, then call Build to validate and obtain a *Walker.
type Options struct {
	entries     []*entry.Entry
	tolerance   Tolerance
	progress    int
	hasProgress bool
	threads     int
	strategy    strategy.Strategy
	digest      digest.Digest
	reader      reader.Reader
}

// NewOptions returns Options with its defaults: LogErrors tolerance,
// strategy.Buffer, no progress reporting, and thread count defaulted to
// runtime.NumCPU() at Build time.
func NewOptions() *Options {
	return &Options{
		tolerance: LogErrors,
		strategy:  strategy.Leaf(strategy.Buffer),
	}
}

// WithEntry adds an Entry (root + filters) to be traversed. Multiple
// entries may be added; collect() runs each independently and concatenates
// their collected paths before hashing, preserving each entry's own filter
// scoping.
func (o *Options) WithEntry(e *entry.Entry) *Options {
	o.entries = append(o.entries, e)
	return o
}

// WithTolerance sets the error tolerance of both the collecting and the
// hashing phase.
func (o *Options) WithTolerance(t Tolerance) *Options {
	o.tolerance = t
	return o
}

// WithProgress enables progress reporting with the given channel capacity
// (the recommended capacity is 10). Ticks that find the channel full are
// dropped; with capacity 0 a tick is delivered only if a receiver is
// already waiting for it.
func (o *Options) WithProgress(capacity int) *Options {
	o.progress = capacity
	o.hasProgress = true
	return o
}

// WithThreads overrides the worker count used by both the Traversal Pool
// and the Hashing Pool. If never called, Build defaults to runtime.NumCPU().
func (o *Options) WithThreads(n int) *Options {
	o.threads = n
	return o
}

// WithReadingStrategy sets how file bytes flow into the digest.
func (o *Options) WithReadingStrategy(s strategy.Strategy) *Options {
	o.strategy = s
	return o
}

// WithDigest sets the Digest Capability used to hash each file and to
// aggregate the summary digest.
func (o *Options) WithDigest(d digest.Digest) *Options {
	o.digest = d
	return o
}

// WithReader sets the Reader Capability used to read file bytes.
func (o *Options) WithReader(r reader.Reader) *Options {
	o.reader = r
	return o
}

// Build validates Options and returns a ready-to-use Walker in the Idle
// state.
func (o *Options) Build() (*Walker, error) {
	if len(o.entries) == 0 {
		return nil, newError(Bound, "at least one entry is required", nil)
	}
	if o.digest == nil {
		return nil, newError(Bound, "a digest capability is required", nil)
	}
	if o.reader == nil {
		return nil, newError(Bound, "a reader capability is required", nil)
	}
	threads := o.threads
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	if max := 2 * runtime.NumCPU(); threads < 1 || threads > max {
		return nil, newError(ThreadCountInvalid, fmt.Sprintf("thread count must be in [1, %d], got %d", max, threads), nil)
	}

	w := &Walker{
		opts:    o,
		threads: threads,
		state:   stateIdle,
	}
	return w, nil
}
