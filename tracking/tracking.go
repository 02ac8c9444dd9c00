// Package tracking remembers the last summary digest observed for a given
// Walker configuration so a caller can ask "has anything changed since last
// time" without keeping its own state.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/dirsum/dirsum/digest"
	"github.com/dirsum/dirsum/walk"
)

var bucketName = []byte("tracking")

// DefaultPath returns the per-user path a Store opens by default: the
// user's home directory if available, falling back to a cache directory,
// joined with ".dirsum/tracking.db".
func DefaultPath() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".dirsum", "tracking.db"), nil
	}
	if cache, err := os.UserCacheDir(); err == nil && cache != "" {
		return filepath.Join(cache, "dirsum", "tracking.db"), nil
	}
	return "", errors.New("tracking: no home or cache directory available for the default store path")
}

// Store is a small embedded key-value store mapping a configuration alias
// to the most recently observed summary digest.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) a Store backed by a bbolt database at
// path. Callers should Close the Store when done.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("tracking: preparing directory for %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("tracking: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("tracking: preparing bucket: %w", err)
	}
	return &Store{db: db, logger: slog.Default().With("component", "tracking")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Alias computes the stable key a Walker's configuration maps to: the
// configured Digest hashing a canonical encoding of its collected file
// paths is not available before a Collect, so instead the alias is derived
// from a caller-supplied configuration fingerprint (e.g. the resolved
// roots, filters, and digest name) -- giving callers full control over what
// counts as "the same configuration" without tracking needing to reach
// into Options' unexported fields.
func Alias(d digest.Digest, configFingerprint string) (string, error) {
	fresh, err := d.Setup()
	if err != nil {
		return "", err
	}
	if err := fresh.Absorb([]byte(configFingerprint)); err != nil {
		return "", err
	}
	if err := fresh.Finish(); err != nil {
		return "", err
	}
	h, err := fresh.Hash()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h), nil
}

func (s *Store) get(alias string) ([]byte, bool) {
	var value []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if v := b.Get([]byte(alias)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, value != nil
}

func (s *Store) put(alias string, hash []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(alias), hash)
	})
}

// IsSame re-collects and re-hashes w, compares the resulting summary digest
// against the value stored under alias, updates the stored value to the
// freshly computed digest, and reports whether the two matched. The first
// call for a given alias always returns false (nothing stored yet) and
// seeds the store.
func (s *Store) IsSame(ctx context.Context, alias string, w *walk.Walker) (bool, error) {
	if err := w.Collect(ctx); err != nil {
		return false, err
	}
	summary, err := w.Hash(ctx)
	if err != nil {
		return false, err
	}

	previous, existed := s.get(alias)
	if err := s.put(alias, summary); err != nil {
		return false, fmt.Errorf("tracking: recording digest for %s: %w", alias, err)
	}

	if !existed {
		s.logger.Debug("no previous digest recorded", "alias", alias)
		return false, nil
	}

	same := string(previous) == string(summary)
	s.logger.Debug("compared digest", "alias", alias, "same", same)
	return same, nil
}
