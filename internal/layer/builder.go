package layer

// Buffer is a device-resident memory handle.
//
// Buffers keep their identity for the lifetime of the graph that allocated
// them. Len is the number of float32 values the buffer holds.
type Buffer interface {
	Name() string
	Len() int
}

// Invocation is a pre-built, replayable unit of computation bound to
// specific buffers. Only the execution engine that created it knows how to
// run it.
type Invocation interface {
	// Kernel returns the name of the kernel the invocation runs.
	Kernel() string
}

// Grid is the number of threads an invocation is dispatched with in each
// dimension. Zero dimensions count as 1.
type Grid struct {
	Width  int
	Height int
	Depth  int
}

// Size returns the total number of threads.
func (g Grid) Size() int {
	return max(g.Width, 1) * max(g.Height, 1) * max(g.Depth, 1)
}

// InvocationFactory allocates buffers and creates invocations.
type InvocationFactory interface {
	// AddBuffer allocates a zeroed buffer holding size values.
	AddBuffer(name string, size int) (Buffer, error)

	// AddBufferWithValues allocates a buffer initialized with values.
	AddBufferWithValues(name string, values []float32) (Buffer, error)

	// MakeInvocation creates an invocation of kernel bound to buffers, with
	// the scalar arguments values, dispatched over grid.
	MakeInvocation(kernel string, buffers []Buffer, values []float32, grid Grid) (Invocation, error)
}

// ForwardInvocationBuilder is handed to a layer during InitializeForward.
type ForwardInvocationBuilder interface {
	InvocationFactory

	// InputBuffer holds batchSize × InputSize() values. It is written by the
	// graph and is read-only for the layer.
	InputBuffer() Buffer

	// OutputBuffer holds batchSize × OutputSize() values written by the layer.
	OutputBuffer() Buffer
}

// BackwardInvocationBuilder is handed to a layer during InitializeBackward.
type BackwardInvocationBuilder interface {
	ForwardInvocationBuilder

	// InputDeltasBuffer receives the gradient with respect to the layer
	// input (batchSize × InputSize() values). It is written by the layer.
	InputDeltasBuffer() Buffer

	// OutputDeltasBuffer holds the gradient with respect to the layer output
	// (batchSize × OutputSize() values), written by the graph. It is nil for
	// loss layers.
	OutputDeltasBuffer() Buffer
}

// CheckBuffer verifies that buf holds exactly want values.
func CheckBuffer(owner Layer, what string, buf Buffer, want int) error {
	if buf == nil {
		return &SizeMismatchError{Layer: Describe(owner), What: what + " (missing)", Want: want, Got: 0}
	}
	if buf.Len() != want {
		return &SizeMismatchError{Layer: Describe(owner), What: what, Want: want, Got: buf.Len()}
	}
	return nil
}
