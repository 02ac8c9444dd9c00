// Package mmap implements reader.Reader and reader.MemoryMapper over
// github.com/edsrzf/mmap-go, backing strategy.MemoryMapped and any Scenario
// range configured to use it.
package mmap

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/dirsum/dirsum/reader"
)

// Reader implements reader.Reader by mapping the whole file into memory
// instead of streaming reads through the kernel's read(2) path.
type Reader struct {
	f      *os.File
	region mmap.MMap
	at     int
}

var _ reader.Reader = (*Reader)(nil)
var _ reader.MemoryMapper = (*Reader)(nil)

// New returns an unbound Reader; call Setup before Read or MemoryMap.
func New() *Reader {
	return &Reader{}
}

// Setup implements reader.Reader.
func (r *Reader) Setup(path string) (reader.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		// mmap-go rejects zero-length mappings; an empty Reader behaves
		// as an empty file for both Read and MemoryMap.
		return &Reader{f: f}, nil
	}
	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, region: region}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.at >= len(r.region) {
		return 0, io.EOF
	}
	n := copy(p, r.region[r.at:])
	r.at += n
	return n, nil
}

// MemoryMap implements reader.MemoryMapper.
func (r *Reader) MemoryMap() ([]byte, error) {
	return []byte(r.region), nil
}

// Close implements io.Closer.
func (r *Reader) Close() error {
	var err error
	if r.region != nil {
		err = r.region.Unmap()
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
