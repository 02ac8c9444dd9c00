// Package breaker provides a cheap, clonable cancellation signal shared
// between a Walker's coordinator and its worker pools.
package breaker

import "sync/atomic"

// Breaker is a cancellation token. Its zero value is ready to use and starts
// in the non-aborted state. A Breaker is safe for concurrent use; Clone
// returns an independent handle that observes the same underlying signal.
type Breaker struct {
	aborted *atomic.Bool
}

// New returns a Breaker in the non-aborted state.
func New() *Breaker {
	return &Breaker{aborted: &atomic.Bool{}}
}

// Abort flips the breaker into the aborted state. It is idempotent.
func (b *Breaker) Abort() {
	b.ensure()
	b.aborted.Store(true)
}

// IsAborted reports whether Abort has been called since the last Reset.
func (b *Breaker) IsAborted() bool {
	b.ensure()
	return b.aborted.Load()
}

// Reset clears the aborted state, allowing the breaker to be reused for a
// subsequent run. Callers that clone a Breaker before Reset will observe the
// reset too, since the underlying flag is shared.
func (b *Breaker) Reset() {
	b.ensure()
	b.aborted.Store(false)
}

// Clone returns a handle sharing the same underlying flag. Aborting or
// resetting either handle affects both, which is what lets a coordinator pass
// cancellation into every worker goroutine it spawns.
func (b *Breaker) Clone() *Breaker {
	b.ensure()
	return &Breaker{aborted: b.aborted}
}

// String implements fmt.Stringer for log-friendly output.
func (b *Breaker) String() string {
	if b.IsAborted() {
		return "breaker(aborted)"
	}
	return "breaker(active)"
}

func (b *Breaker) ensure() {
	if b.aborted == nil {
		b.aborted = &atomic.Bool{}
	}
}
