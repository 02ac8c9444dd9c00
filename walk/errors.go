// Package walk implements the Traversal Pool, Hashing Pool, and Walker
// facade: the concurrent engine that turns an Options-configured set of
// Entry roots into a single summary digest.
package walk

import "fmt"

// Kind classifies an Error.
type Kind int

const (
	// PatternInvalid means a glob or pattern filter failed to compile.
	PatternInvalid Kind = iota
	// PathNotAbsolute means an Entry root was not an absolute path.
	PathNotAbsolute
	// PathNotDirectory means an Entry root did not point at a directory.
	PathNotDirectory
	// IO covers filesystem errors other than the more specific kinds below.
	IO
	// FileMissing means a path vanished between listing and reading it.
	FileMissing
	// Aborted means a Breaker was tripped mid-run.
	Aborted
	// NoWorkers means a pool was configured with zero threads.
	NoWorkers
	// ThreadCountInvalid means an explicit thread count failed validation.
	ThreadCountInvalid
	// ReadingStrategyInvalid means a Scenario's ranges failed validation.
	ReadingStrategyInvalid
	// NoRangeForScenario means a file's size matched no Scenario range.
	NoRangeForScenario
	// MemoryMappingUnsupported means MemoryMapped was requested with a
	// reader.Reader that doesn't implement reader.MemoryMapper.
	MemoryMappingUnsupported
	// ReaderError wraps a failure from a reader.Reader.
	ReaderError
	// HasherError wraps a failure from a digest.Digest.
	HasherError
	// Bound means an operation was attempted in the wrong Walker state
	// (see the state machine in walker.go), or that Options.Build was
	// called without an entry, a digest or a reader.
	Bound
	// Channel means sending or receiving on an internal coordination
	// channel failed unexpectedly (e.g. a closed channel was written to).
	Channel
	// Join means waiting for worker goroutines to finish returned an
	// aggregate error.
	Join
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case PatternInvalid:
		return "pattern-invalid"
	case PathNotAbsolute:
		return "path-not-absolute"
	case PathNotDirectory:
		return "path-not-directory"
	case IO:
		return "io"
	case FileMissing:
		return "file-missing"
	case Aborted:
		return "aborted"
	case NoWorkers:
		return "no-workers"
	case ThreadCountInvalid:
		return "thread-count-invalid"
	case ReadingStrategyInvalid:
		return "reading-strategy-invalid"
	case NoRangeForScenario:
		return "no-range-for-scenario"
	case MemoryMappingUnsupported:
		return "memory-mapping-unsupported"
	case ReaderError:
		return "reader-error"
	case HasherError:
		return "hasher-error"
	case Bound:
		return "bound"
	case Channel:
		return "channel"
	case Join:
		return "join"
	default:
		return "unknown"
	}
}

// Error is the structured error type every walk/entry/strategy/reader/digest
// failure surfaces as once it reaches a Walker method: a message plus a
// wrapped cause and a classifying Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// newError constructs an *Error of the given Kind.
func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, enabling errors.Is/errors.As to traverse
// the chain down into the originating package's error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, letting callers
// write errors.Is(err, &walk.Error{Kind: walk.Aborted}) without needing a
// sentinel value per kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}
