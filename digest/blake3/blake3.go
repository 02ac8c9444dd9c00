// Package blake3 implements digest.Digest over github.com/zeebo/blake3,
// the default hash for this module: cryptographic, fast, and incremental.
package blake3

import (
	"github.com/zeebo/blake3"

	"github.com/dirsum/dirsum/digest"
)

// Digest implements digest.Digest using blake3's streaming hasher.
type Digest struct {
	h      *blake3.Hasher
	sealed []byte
	done   bool
}

// New returns a ready-to-Absorb Digest using blake3's default 32-byte
// output size.
func New() *Digest {
	return &Digest{h: blake3.New()}
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
	d.sealed = d.h.Sum(nil)
	d.done = true
	return nil
}

// Hash implements digest.Digest.
func (d *Digest) Hash() ([]byte, error) {
	if !d.done {
		return nil, nil
	}
	return d.sealed, nil
}

// Reset implements digest.Digest.
func (d *Digest) Reset() error {
	d.h.Reset()
	d.sealed = nil
	d.done = false
	return nil
}

// Clone implements digest.Digest.
func (d *Digest) Clone() digest.Digest {
	return New()
}

// Name implements digest.Digest.
func (d *Digest) Name() string { return "blake3" }
