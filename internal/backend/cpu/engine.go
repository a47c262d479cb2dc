// Package cpu implements the reference CPU execution engine.
//
// The engine owns a table of float32 buffers, a registry of kernels and the
// invocations bound to them. Linear kernels go through gonum BLAS; element-wise
// kernels are split across goroutines with internal/parallel.
package cpu

import (
	"context"
	"fmt"
	"sync"

	catalog "github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/parallel"
)

// Config controls the CPU engine.
type Config struct {
	// Capacity is the maximum number of float32 values that may be allocated
	// at the same time. Zero means unlimited.
	Capacity int

	// Parallel controls element-wise kernel parallelism.
	Parallel parallel.Config
}

// Engine executes invocations on the CPU.
//
// Buffer allocation and invocation creation are safe for concurrent use.
// Execute runs one invocation list at a time, in order.
type Engine struct {
	cfg Config

	mu      sync.RWMutex
	kernels map[string]Kernel
	buffers map[*Buffer]struct{}

	// Memory tracking
	allocated int
	peak      int
	total     int

	execMu sync.Mutex
}

// New creates a CPU engine with unlimited capacity and default parallelism.
func New() *Engine {
	return NewWithConfig(Config{Parallel: parallel.DefaultConfig()})
}

// NewWithConfig creates a CPU engine with the given configuration.
func NewWithConfig(cfg Config) *Engine {
	e := &Engine{
		cfg:     cfg,
		kernels: make(map[string]Kernel),
		buffers: make(map[*Buffer]struct{}),
	}
	registerBuiltins(e)
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "CPU"
}

// Register adds or replaces a kernel.
//
// Layer authors use this to run kernels outside the built-in catalogue.
func (e *Engine) Register(name string, k Kernel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kernels[name] = k
}

// NewBuffer allocates a zeroed buffer holding size values.
//
// Returns an error wrapping layer.ErrCapacityExceeded if the allocation would
// exceed the configured capacity.
func (e *Engine) NewBuffer(name string, size int) (layer.Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("cpu: buffer %q: negative size %d", name, size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.Capacity > 0 && e.allocated+size > e.cfg.Capacity {
		return nil, fmt.Errorf("cpu: buffer %q of %d values (%d of %d in use): %w",
			name, size, e.allocated, e.cfg.Capacity, layer.ErrCapacityExceeded)
	}

	buf := newBuffer(name, size)
	e.buffers[buf] = struct{}{}
	e.allocated += size
	e.total += size
	if e.allocated > e.peak {
		e.peak = e.allocated
	}
	return buf, nil
}

// NewBufferWithValues allocates a buffer initialized with a copy of values.
func (e *Engine) NewBufferWithValues(name string, values []float32) (layer.Buffer, error) {
	buf, err := e.NewBuffer(name, len(values))
	if err != nil {
		return nil, err
	}
	copy(buf.(*Buffer).data, values)
	return buf, nil
}

// Release frees buffers. Buffers not owned by this engine are ignored.
func (e *Engine) Release(buffers ...layer.Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range buffers {
		buf, ok := b.(*Buffer)
		if !ok || buf == nil {
			continue
		}
		if _, owned := e.buffers[buf]; !owned {
			continue
		}
		delete(e.buffers, buf)
		e.allocated -= len(buf.data)
		buf.data = nil
	}
}

// Upload copies data into buf. len(data) must equal buf.Len().
func (e *Engine) Upload(buf layer.Buffer, data []float32) error {
	b, err := e.owned(buf)
	if err != nil {
		return err
	}
	if len(data) != len(b.data) {
		return &layer.SizeMismatchError{What: fmt.Sprintf("upload to buffer %q", b.name), Want: len(b.data), Got: len(data)}
	}
	copy(b.data, data)
	return nil
}

// Download returns a copy of the contents of buf.
func (e *Engine) Download(buf layer.Buffer) ([]float32, error) {
	b, err := e.owned(buf)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out, nil
}

// NewInvocation binds kernel to buffers and scalar values.
//
// The kernel must be registered and the buffer and value counts must match
// its signature; otherwise no invocation is created.
func (e *Engine) NewInvocation(kernel string, buffers []layer.Buffer, values []float32, grid layer.Grid) (layer.Invocation, error) {
	e.mu.RLock()
	k, ok := e.kernels[kernel]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cpu: %q: %w", kernel, layer.ErrUnknownKernel)
	}

	if len(buffers) != k.Buffers {
		return nil, fmt.Errorf("cpu: %s expects %d buffers, got %d: %w", kernel, k.Buffers, len(buffers), layer.ErrContractViolation)
	}
	if len(values) < k.Values {
		return nil, fmt.Errorf("cpu: %s expects %d values, got %d: %w", kernel, k.Values, len(values), layer.ErrContractViolation)
	}
	if err := catalog.CheckDimensions(kernel, values); err != nil {
		return nil, fmt.Errorf("cpu: %s: %v: %w", kernel, err, layer.ErrContractViolation)
	}

	data := make([][]float32, len(buffers))
	for i, b := range buffers {
		buf, err := e.owned(b)
		if err != nil {
			return nil, fmt.Errorf("cpu: %s buffer %d: %w", kernel, i, err)
		}
		data[i] = buf.data
	}

	inv := &Invocation{
		engine: e,
		kernel: kernel,
		run:    k.Run,
		args: Args{
			Buffers:  data,
			Values:   append([]float32(nil), values...),
			Grid:     grid,
			Parallel: e.cfg.Parallel,
		},
	}
	if k.Check != nil {
		if err := k.Check(&inv.args); err != nil {
			return nil, fmt.Errorf("cpu: %s: %w", kernel, err)
		}
	}
	return inv, nil
}

// Execute runs invocations in order.
//
// The context is checked between invocations; a cancelled context stops
// execution and returns its error.
func (e *Engine) Execute(ctx context.Context, invocations []layer.Invocation) error {
	e.execMu.Lock()
	defer e.execMu.Unlock()

	for i, inv := range invocations {
		if err := ctx.Err(); err != nil {
			return err
		}
		ci, ok := inv.(*Invocation)
		if !ok || ci.engine != e {
			return fmt.Errorf("cpu: invocation %d (%T) was not created by this engine: %w", i, inv, layer.ErrContractViolation)
		}
		ci.run(&ci.args)
	}
	return nil
}

// Stats represents CPU engine memory statistics.
type Stats struct {
	Buffers         int // Number of live buffers
	AllocatedValues int // float32 values currently allocated
	PeakValues      int // Peak of AllocatedValues
	TotalValues     int // float32 values allocated since creation
}

// Stats returns current memory statistics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Buffers:         len(e.buffers),
		AllocatedValues: e.allocated,
		PeakValues:      e.peak,
		TotalValues:     e.total,
	}
}

func (e *Engine) owned(b layer.Buffer) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok || buf == nil {
		return nil, fmt.Errorf("cpu: buffer %T is not a CPU buffer: %w", b, layer.ErrContractViolation)
	}
	e.mu.RLock()
	_, owned := e.buffers[buf]
	e.mu.RUnlock()
	if !owned {
		return nil, fmt.Errorf("cpu: buffer %q is released or foreign: %w", buf.name, layer.ErrContractViolation)
	}
	return buf, nil
}
