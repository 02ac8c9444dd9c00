// Package xxh3 implements digest.Digest over github.com/zeebo/xxh3, a fast
// non-cryptographic hash suited to change-detection workloads that don't
// need collision resistance.
package xxh3

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/dirsum/dirsum/digest"
)

// Digest implements digest.Digest using xxh3's streaming hasher.
type Digest struct {
	h      *xxh3.Hasher
	sealed uint64
	done   bool
}

// New returns a ready-to-Absorb Digest.
func New() *Digest {
	return &Digest{h: xxh3.New()}
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
	d.sealed = d.h.Sum64()
	d.done = true
	return nil
}

// Hash implements digest.Digest.
func (d *Digest) Hash() ([]byte, error) {
	if !d.done {
		return nil, nil
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, d.sealed)
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
func (d *Digest) Name() string { return "xxh3" }
