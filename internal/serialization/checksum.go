package serialization

import (
	"crypto/sha256"
	"hash"
	"io"
)

// ComputeChecksum computes the SHA-256 checksum of data.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares computed checksum against stored checksum.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// checksumWriter hashes everything written through it.
type checksumWriter struct {
	w io.Writer
	h hash.Hash
	n int64
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w, h: sha256.New()}
}

func (c *checksumWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.h.Write(p[:n])
	c.n += int64(n)
	return n, err
}

// Sum returns the checksum of everything written so far.
func (c *checksumWriter) Sum() [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	copy(sum[:], c.h.Sum(nil))
	return sum
}
