// Package progress reports collecting/hashing progress over a channel that
// callers can select on without blocking the Walker.
package progress

import "fmt"

// JobType identifies which phase of a run a Tick describes.
type JobType int

const (
	// Collecting indicates the tick describes directory traversal progress.
	Collecting JobType = iota
	// Hashing indicates the tick describes file hashing progress.
	Hashing
)

// String implements fmt.Stringer.
func (j JobType) String() string {
	switch j {
	case Collecting:
		return "collecting"
	case Hashing:
		return "hashing"
	default:
		return "unknown"
	}
}

// Tick is a single progress notification.
type Tick struct {
	Done  uint64
	Total uint64
	Job   JobType
}

// String renders a Tick as "job: done/total (pp%)".
func (t Tick) String() string {
	pct := 0.0
	if t.Total > 0 {
		pct = float64(t.Done) / float64(t.Total) * 100
	}
	return fmt.Sprintf("%s: %d/%d (%.1f%%)", t.Job, t.Done, t.Total, pct)
}

// Channel is the progress notification channel type, shared by producers
// (Walker's traversal/hashing pools) and consumers (callers).
type Channel chan Tick

// Progress wraps a send-only Channel that tolerates a full buffer by
// dropping the tick rather than blocking the caller that's trying to report
// it. A nil Progress is valid and Notify becomes a no-op, so progress
// reporting is entirely optional.
type Progress struct {
	tx Channel
}

// New creates a Progress with the given channel capacity. A capacity of 0
// creates an unbuffered channel; there is no unbounded variant. Because
// Notify never blocks, with capacity 0 a tick is delivered only if a
// receiver is already waiting for it and is dropped otherwise. The returned
// Channel is the receive side that callers should range over.
func New(capacity int) (*Progress, Channel) {
	ch := make(Channel, capacity)
	return &Progress{tx: ch}, ch
}

// Notify sends a tick, dropping it silently if the channel buffer is full
// rather than blocking the producer. It is a no-op if p is nil or has no
// channel, which lets Walker hold an optional *Progress unconditionally.
func (p *Progress) Notify(job JobType, done, total uint64) {
	if p == nil || p.tx == nil {
		return
	}
	select {
	case p.tx <- Tick{Done: done, Total: total, Job: job}:
	default:
	}
}

// Close closes the underlying channel. Safe to call once; callers that hold
// the receive-side Channel returned by New should stop reading after Close.
func (p *Progress) Close() {
	if p == nil || p.tx == nil {
		return
	}
	close(p.tx)
}
