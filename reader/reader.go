// Package reader defines the Reader Capability: an io.Reader bound to a
// file path, with an optional memory-mapping extension used by the
// MemoryMapped/Scenario reading strategies.
package reader

import "io"

// Reader reads a single file's bytes for hashing. Setup binds a fresh
// instance to path; the returned Reader must be independently closeable
// from the instance Setup was called on.
type Reader interface {
	io.ReadCloser

	// Setup returns a Reader bound to path, independent of the receiver's
	// current state.
	Setup(path string) (Reader, error)
}

// MemoryMapper is an optional capability a Reader may implement: instead of
// streaming reads through Read, the caller obtains the whole file's bytes
// mapped into memory. strategy.MemoryMapped requires the configured Reader
// to implement this; strategy.Buffer and strategy.Complete do not use it.
type MemoryMapper interface {
	// MemoryMap returns the file's contents mapped into memory. The
	// returned slice is valid until Close is called on the Reader.
	MemoryMap() ([]byte, error)
}
