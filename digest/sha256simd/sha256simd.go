// Package sha256simd implements digest.Digest over github.com/minio/sha256-simd,
// a drop-in crypto/sha256-shaped digest with SIMD acceleration, for callers
// who need FIPS-familiar SHA-256 sums rather than a BLAKE3 or xxh3 hash.
package sha256simd

import (
	"hash"

	"github.com/minio/sha256-simd"

	"github.com/dirsum/dirsum/digest"
)

// Digest implements digest.Digest using sha256-simd's hash.Hash.
type Digest struct {
	h      hash.Hash
	sealed []byte
	done   bool
}

// New returns a ready-to-Absorb Digest.
func New() *Digest {
	return &Digest{h: sha256.New()}
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
func (d *Digest) Name() string { return "sha256" }
