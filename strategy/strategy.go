// Package strategy decides how a file's bytes get from disk into a Digest:
// streamed in chunks, read whole, or memory-mapped, selected either
// globally or per file size via a Scenario.
package strategy

import (
	"fmt"
	"math"
)

// Kind names a leaf reading strategy (never Scenario -- Scenario is
// resolved away by Resolve before a Walker acts on it).
type Kind int

const (
	// Buffer reads the file chunk by chunk through a bounded buffer,
	// absorbing each chunk into the digest as it's read. Low peak memory,
	// more IO operations. This is the default.
	Buffer Kind = iota
	// Complete reads the whole file into memory first, then absorbs it in
	// one call. Fewer IO operations, higher peak memory.
	Complete
	// MemoryMapped maps the file into memory and absorbs the mapped
	// region directly, avoiding a userspace copy. Requires the configured
	// reader.Reader to implement reader.MemoryMapper.
	MemoryMapped
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Buffer:
		return "buffer"
	case Complete:
		return "complete"
	case MemoryMapped:
		return "memory-mapped"
	default:
		return "unknown"
	}
}

// Range covers file sizes [Start, End) in bytes, routed to Kind.
type Range struct {
	Start, End uint64
	Kind       Kind
}

// Strategy is either one leaf Kind, applied uniformly to every file, or a
// Scenario: a set of contiguous, non-overlapping size Ranges each routed to
// a leaf Kind. A Strategy built via NewScenario is validated at
// construction: ranges must be contiguous starting from zero and each Range
// routes to a leaf Kind, never to another Scenario.
type Strategy struct {
	kind     Kind
	scenario []Range // non-nil only when this Strategy is a Scenario
}

// Leaf wraps a single Kind as a Strategy applied to every file regardless of
// size.
func Leaf(k Kind) Strategy {
	return Strategy{kind: k}
}

// NewScenario validates and constructs a size-routed Strategy. Ranges must
// be supplied in ascending, contiguous order starting at 0 (e.g.
// [0,1KiB)->Buffer, [1KiB,1MiB)->Complete, ...); gaps or overlaps are
// rejected immediately rather than surfacing at hash time.
func NewScenario(ranges ...Range) (Strategy, error) {
	var from uint64
	for _, r := range ranges {
		if r.Start != from {
			return Strategy{}, fmt.Errorf("reading strategy scenario: non-contiguous range starting at %d, expected %d", r.Start, from)
		}
		if r.End <= r.Start {
			return Strategy{}, fmt.Errorf("reading strategy scenario: range [%d,%d) is empty or inverted", r.Start, r.End)
		}
		from = r.End
	}
	cp := make([]Range, len(ranges))
	copy(cp, ranges)
	return Strategy{scenario: cp}, nil
}

// IsScenario reports whether s routes by file size rather than applying one
// Kind uniformly.
func (s Strategy) IsScenario() bool {
	return s.scenario != nil
}

// Resolve returns the leaf Kind that applies to a file of the given size.
// For a non-Scenario Strategy this is always the same Kind. For a Scenario,
// it flattens one level: the range covering size is returned, or an error
// if size falls outside every configured range (e.g. past the last range's
// End, which is left open-ended only when the caller supplies
// math.MaxUint64 as the final End).
func (s Strategy) Resolve(size uint64) (Kind, error) {
	if !s.IsScenario() {
		return s.kind, nil
	}
	for _, r := range s.scenario {
		if size >= r.Start && size < r.End {
			return r.Kind, nil
		}
	}
	return 0, fmt.Errorf("no reading-strategy range covers file size %d", size)
}

// Unbounded is a convenience End value for a Scenario's final Range, so
// callers don't need to spell out math.MaxUint64 themselves.
const Unbounded = uint64(math.MaxUint64)
