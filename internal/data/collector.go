package data

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/braincore/internal/layer"
)

// Collector is a sink that keeps the last batch it consumed.
type Collector struct {
	layer.Identity

	size      int
	batchSize int
	onBatch   func(layer.Blob) error

	mu      sync.Mutex
	last    layer.Blob
	batches int
}

// NewCollector creates a sink for batches of batchSize elements of size
// values each.
func NewCollector(name string, size, batchSize int) *Collector {
	return NewCollectorFunc(name, size, batchSize, nil)
}

// NewCollectorFunc is like NewCollector and also calls fn with every
// accepted batch. An error returned by fn is returned by Consume.
func NewCollectorFunc(name string, size, batchSize int, fn func(layer.Blob) error) *Collector {
	if size <= 0 || batchSize <= 0 {
		panic(fmt.Sprintf("data: collector %q: size and batch size must be positive, got %d and %d", name, size, batchSize))
	}
	return &Collector{
		Identity:  layer.NewIdentity(name),
		size:      size,
		batchSize: batchSize,
		onBatch:   fn,
	}
}

// InputSize returns the number of values per batch element.
func (c *Collector) InputSize() int {
	return c.size
}

// BatchSize returns the number of batch elements every consumed batch must
// hold.
func (c *Collector) BatchSize() int {
	return c.batchSize
}

// Consume validates and stores a copy of input.
func (c *Collector) Consume(input layer.Blob) error {
	if err := input.Check(c.batchSize, c.size); err != nil {
		var sizeErr *layer.SizeMismatchError
		if errors.As(err, &sizeErr) {
			sizeErr.Layer = layer.Describe(c)
		}
		return err
	}

	c.mu.Lock()
	c.last = append(c.last[:0], input...)
	c.batches++
	batch := append(layer.Blob(nil), input...)
	c.mu.Unlock()

	if c.onBatch != nil {
		return c.onBatch(batch)
	}
	return nil
}

// Last returns a copy of the last consumed batch, or nil.
func (c *Collector) Last() layer.Blob {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	return append(layer.Blob(nil), c.last...)
}

// Batches returns the number of batches consumed.
func (c *Collector) Batches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches
}
