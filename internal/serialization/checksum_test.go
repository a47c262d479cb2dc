package serialization

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

// TestValidateChecksum verifies checksum validation.
func TestValidateChecksum(t *testing.T) {
	checksum := ComputeChecksum([]byte("test data"))

	if err := ValidateChecksum(checksum, checksum); err != nil {
		t.Errorf("Expected no error for matching checksums, got: %v", err)
	}

	wrong := [ChecksumSize]byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := ValidateChecksum(checksum, wrong); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got: %v", err)
	}
}

// TestKnownVectorSHA256 verifies SHA-256 produces correct known vectors.
func TestKnownVectorSHA256(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "hello world",
			input:    "hello world",
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checksum := ComputeChecksum([]byte(tt.input))
			if got := hex.EncodeToString(checksum[:]); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

// TestChecksumWriter verifies the streaming checksum matches the direct one.
func TestChecksumWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := newChecksumWriter(&buf)
	for _, chunk := range []string{"hello", " ", "world"} {
		if _, err := cw.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	if cw.Sum() != ComputeChecksum([]byte("hello world")) {
		t.Error("Streaming checksum should match direct checksum")
	}
	if cw.n != int64(buf.Len()) {
		t.Errorf("Expected %d bytes counted, got %d", buf.Len(), cw.n)
	}
}
