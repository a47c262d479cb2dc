package data

import (
	"fmt"
	"sync"

	"github.com/born-ml/braincore/internal/layer"
)

// SliceSource serves samples of an in-memory dataset in order, wrapping
// around at the end.
//
// Example:
//
//	inputs, _ := data.NewSliceSource("inputs", 2, []float32{0, 0, 0, 1, 1, 0, 1, 1})
//	batch := inputs.NextBatch(4) // all four samples
type SliceSource struct {
	layer.Identity

	size   int
	values []float32

	mu     sync.Mutex
	cursor int // Next sample
}

// NewSliceSource creates a source of samples of size values each.
// len(values) must be a positive multiple of size.
func NewSliceSource(name string, size int, values []float32) (*SliceSource, error) {
	if size <= 0 {
		return nil, fmt.Errorf("slice source %q: size must be positive, got %d", name, size)
	}
	if len(values) == 0 || len(values)%size != 0 {
		return nil, &layer.SizeMismatchError{
			Layer: name,
			What:  fmt.Sprintf("dataset of samples of %d values", size),
			Want:  (len(values)/size + 1) * size,
			Got:   len(values),
		}
	}
	return &SliceSource{
		Identity: layer.NewIdentity(name),
		size:     size,
		values:   append([]float32(nil), values...),
	}, nil
}

// OutputSize returns the number of values per sample.
func (s *SliceSource) OutputSize() int {
	return s.size
}

// Len returns the number of samples.
func (s *SliceSource) Len() int {
	return len(s.values) / s.size
}

// NextBatch returns the next batchSize samples. It panics if batchSize is
// less than 1.
func (s *SliceSource) NextBatch(batchSize int) layer.Blob {
	if batchSize < 1 {
		panic(&layer.ContractViolation{Layer: layer.Describe(s), Reason: fmt.Sprintf("batch size %d", batchSize)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.Len()
	blob := layer.NewBlob(batchSize, s.size)
	for i := 0; i < batchSize; i++ {
		sample := s.values[s.cursor*s.size : (s.cursor+1)*s.size]
		copy(blob.Row(i, s.size), sample)
		s.cursor = (s.cursor + 1) % n
	}
	return blob
}

// Reset moves back to the first sample.
func (s *SliceSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
}
