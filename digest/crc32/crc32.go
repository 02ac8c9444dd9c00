// Package crc32 implements digest.Digest over github.com/klauspost/crc32, a
// checksum-grade digest for callers who only need fast corruption detection
// rather than collision resistance.
package crc32

import (
	"encoding/binary"
	"hash"

	"github.com/klauspost/crc32"

	"github.com/dirsum/dirsum/digest"
)

// Digest implements digest.Digest using the IEEE CRC-32 polynomial.
type Digest struct {
	h      hash.Hash32
	sealed uint32
	done   bool
}

// New returns a ready-to-Absorb Digest.
func New() *Digest {
	return &Digest{h: crc32.NewIEEE()}
}

var _ digest.Digest = (*Digest)(nil)

// Setup implements digest.Digest.
func (d *Digest) Setup() (digest.Digest, error) {
	return New(), nil
}

// Absorb implements digest.Digest.
func (d *Digest) Absorb(data []byte) error {
	_, err := d.h.Write(data)
	return err
}

// Finish implements digest.Digest.
func (d *Digest) Finish() error {
	d.sealed = d.h.Sum32()
	d.done = true
	return nil
}

// Hash implements digest.Digest.
func (d *Digest) Hash() ([]byte, error) {
	if !d.done {
		return nil, nil
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, d.sealed)
	return buf, nil
}

// Reset implements digest.Digest.
func (d *Digest) Reset() error {
	d.h.Reset()
	d.sealed = 0
	d.done = false
	return nil
}

// Clone implements digest.Digest.
func (d *Digest) Clone() digest.Digest {
	return New()
}

// Name implements digest.Digest.
func (d *Digest) Name() string { return "crc32" }
