package cpu

import (
	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/parallel"
	"github.com/google/uuid"
)

// Buffer is a CPU-resident float32 buffer.
type Buffer struct {
	id   uuid.UUID
	name string
	data []float32
}

func newBuffer(name string, size int) *Buffer {
	return &Buffer{id: uuid.New(), name: name, data: make([]float32, size)}
}

// ID returns the buffer id.
func (b *Buffer) ID() uuid.UUID {
	return b.id
}

// Name returns the buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// Len returns the number of values the buffer holds (0 once released).
func (b *Buffer) Len() int {
	return len(b.data)
}

// Data returns the backing slice. Writing to it bypasses the engine and is
// only meant for tests and debugging.
func (b *Buffer) Data() []float32 {
	return b.data
}

// Args are the arguments a kernel runs with.
type Args struct {
	Buffers  [][]float32
	Values   []float32
	Grid     layer.Grid
	Parallel parallel.Config
}

// Int returns scalar value i as an int. Values the kernel catalogue lists as
// dimensions are checked to be exact integers when the invocation is bound.
func (a *Args) Int(i int) int {
	return int(a.Values[i])
}

// Kernel is a CPU kernel implementation.
type Kernel struct {
	Buffers int               // Number of buffers the kernel binds
	Values  int               // Minimum number of scalar values
	Check   func(*Args) error // Optional buffer size validation at bind time
	Run     func(*Args)
}

// Invocation is a kernel bound to CPU buffers.
type Invocation struct {
	engine *Engine
	kernel string
	run    func(*Args)
	args   Args
}

// Kernel returns the kernel name.
func (i *Invocation) Kernel() string {
	return i.kernel
}
