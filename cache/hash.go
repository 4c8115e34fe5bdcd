package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	rv "github.com/rowpipe/validator"
)

// SHA256Hasher computes the default content hash: a cryptographic digest
// over the input's full byte content.
type SHA256Hasher struct{}

var _ rv.Hasher = SHA256Hasher{}

// Hash implements rv.Hasher.
func (SHA256Hasher) Hash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing input: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// XXHasher computes a 64-bit xxHash digest. Far cheaper than SHA-256 on
// very large inputs, at the price of collision resistance; use it when
// cache keys only need to distinguish accidental changes, not adversarial
// ones.
type XXHasher struct{}

var _ rv.Hasher = XXHasher{}

// Hash implements rv.Hasher.
func (XXHasher) Hash(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing input: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// HashFile digests a file's full contents with the given hasher.
func HashFile(h rv.Hasher, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()
	return h.Hash(f)
}
