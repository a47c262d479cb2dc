package nn

import (
	"fmt"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

// elementwise is an activation applied independently to every value.
type elementwise struct {
	layer.Identity

	size           int
	forwardKernel  string
	backwardKernel string
	fromOutput     bool // Backward kernel reads the output instead of the input

	input  layer.Buffer
	output layer.Buffer

	forward  layer.InvocationList
	backward layer.InvocationList
}

func newElementwise(name string, size int, forward, backward string, fromOutput bool) *elementwise {
	if size <= 0 {
		panic(fmt.Sprintf("nn: activation %q: size must be positive, got %d", name, size))
	}
	return &elementwise{
		Identity:       layer.NewIdentity(name),
		size:           size,
		forwardKernel:  forward,
		backwardKernel: backward,
		fromOutput:     fromOutput,
	}
}

// InputSize returns the number of values per batch element.
func (a *elementwise) InputSize() int { return a.size }

// OutputSize returns the number of values per batch element.
func (a *elementwise) OutputSize() int { return a.size }

// InitializeForward registers the forward invocation.
func (a *elementwise) InitializeForward(b layer.ForwardInvocationBuilder, batchSize int) error {
	return a.forward.Initialize(func() ([]layer.Invocation, error) {
		n := batchSize * a.size
		input, output := b.InputBuffer(), b.OutputBuffer()
		if err := layer.CheckBuffer(a, "input buffer", input, n); err != nil {
			return nil, err
		}
		if err := layer.CheckBuffer(a, "output buffer", output, n); err != nil {
			return nil, err
		}

		inv, err := b.MakeInvocation(a.forwardKernel, []layer.Buffer{input, output}, nil, layer.Grid{Width: n})
		if err != nil {
			return nil, err
		}
		a.input, a.output = input, output
		return []layer.Invocation{inv}, nil
	})
}

// ForwardInvocations returns the forward invocation list.
func (a *elementwise) ForwardInvocations() []layer.Invocation {
	return a.forward.Invocations()
}

// InitializeBackward registers the backward invocation.
func (a *elementwise) InitializeBackward(b layer.BackwardInvocationBuilder, batchSize int) error {
	return a.backward.Initialize(func() ([]layer.Invocation, error) {
		if a.forward.Phase() != layer.Ready {
			return nil, fmt.Errorf("backward before forward: %w", layer.ErrNotInitialized)
		}
		n := batchSize * a.size
		outputDeltas, inputDeltas := b.OutputDeltasBuffer(), b.InputDeltasBuffer()
		if err := layer.CheckBuffer(a, "output deltas buffer", outputDeltas, n); err != nil {
			return nil, err
		}
		if err := layer.CheckBuffer(a, "input deltas buffer", inputDeltas, n); err != nil {
			return nil, err
		}

		source := a.input
		if a.fromOutput {
			source = a.output
		}
		inv, err := b.MakeInvocation(a.backwardKernel, []layer.Buffer{source, outputDeltas, inputDeltas}, nil, layer.Grid{Width: n})
		if err != nil {
			return nil, err
		}
		return []layer.Invocation{inv}, nil
	})
}

// BackwardInvocations returns the backward invocation list.
func (a *elementwise) BackwardInvocations() []layer.Invocation {
	return a.backward.Invocations()
}

// ReLU applies f(x) = max(0, x).
type ReLU struct {
	*elementwise
}

// NewReLU creates a ReLU layer over size values.
func NewReLU(name string, size int) *ReLU {
	return &ReLU{newElementwise(name, size, kernel.ReLUForward, kernel.ReLUBackward, false)}
}

// Sigmoid applies f(x) = 1 / (1 + exp(-x)).
type Sigmoid struct {
	*elementwise
}

// NewSigmoid creates a Sigmoid layer over size values.
func NewSigmoid(name string, size int) *Sigmoid {
	return &Sigmoid{newElementwise(name, size, kernel.SigmoidForward, kernel.SigmoidBackward, true)}
}

// Tanh applies f(x) = tanh(x).
type Tanh struct {
	*elementwise
}

// NewTanh creates a Tanh layer over size values.
func NewTanh(name string, size int) *Tanh {
	return &Tanh{newElementwise(name, size, kernel.TanhForward, kernel.TanhBackward, true)}
}
