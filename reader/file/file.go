// Package file implements reader.Reader with a plain buffered os.File,
// backing the Buffer and Complete reading strategies.
package file

import (
	"bufio"
	"io"
	"os"

	"github.com/dirsum/dirsum/reader"
)

const defaultBufferSize = 64 * 1024

// Reader implements reader.Reader over os.File with a bufio.Reader in
// front, the "classic" chunk-by-chunk strategy: many small IO operations,
// low peak memory.
type Reader struct {
	f  *os.File
	br *bufio.Reader
}

var _ reader.Reader = (*Reader)(nil)

// New returns an unbound Reader; call Setup before Read.
func New() *Reader {
	return &Reader{}
}

// Setup implements reader.Reader.
func (r *Reader) Setup(path string) (reader.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{f: f, br: bufio.NewReaderSize(f, defaultBufferSize)}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.br.Read(p)
}

// Close implements io.Closer.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	return r.f.Close()
}

// Complete opens path and reads it fully into memory in one call: fewer IO
// operations than Buffer at the cost of holding the whole file's bytes at
// once. The Walker's strategy.Complete does not call it; it reads the whole
// file through the configured Reader instead.
func Complete(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
