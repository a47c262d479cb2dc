package nn

import (
	"fmt"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

// L2Loss computes ½ Σ (prediction - label)² for every batch element.
//
// Its input holds the predictions followed by the labels, so InputSize is
// twice the prediction size. Connect the prediction producer first and the
// label producer second. The output is one loss value per batch element.
//
// Example:
//
//	loss := nn.NewL2Loss("loss", 1)
//	_ = g.Connect(output, loss)
//	_ = g.Connect(labels, loss)
type L2Loss struct {
	layer.Identity

	size  int
	input layer.Buffer

	forward  layer.InvocationList
	backward layer.InvocationList
}

// NewL2Loss creates an L2 loss over predictions of size values.
func NewL2Loss(name string, size int) *L2Loss {
	if size <= 0 {
		panic(fmt.Sprintf("nn: l2 loss %q: size must be positive, got %d", name, size))
	}
	return &L2Loss{Identity: layer.NewIdentity(name), size: size}
}

// IsLoss marks L2Loss as a loss layer.
func (l *L2Loss) IsLoss() {}

// InputSize returns twice the prediction size.
func (l *L2Loss) InputSize() int { return 2 * l.size }

// OutputSize returns 1.
func (l *L2Loss) OutputSize() int { return 1 }

// InitializeForward registers the loss computation.
func (l *L2Loss) InitializeForward(b layer.ForwardInvocationBuilder, batchSize int) error {
	return l.forward.Initialize(func() ([]layer.Invocation, error) {
		input, output := b.InputBuffer(), b.OutputBuffer()
		if err := layer.CheckBuffer(l, "input buffer", input, batchSize*2*l.size); err != nil {
			return nil, err
		}
		if err := layer.CheckBuffer(l, "output buffer", output, batchSize); err != nil {
			return nil, err
		}

		inv, err := b.MakeInvocation(kernel.L2LossForward, []layer.Buffer{input, output},
			[]float32{float32(batchSize), float32(l.size)}, layer.Grid{Width: batchSize})
		if err != nil {
			return nil, err
		}
		l.input = input
		return []layer.Invocation{inv}, nil
	})
}

// ForwardInvocations returns the forward invocation list.
func (l *L2Loss) ForwardInvocations() []layer.Invocation {
	return l.forward.Invocations()
}

// InitializeBackward registers the gradient computation. Loss layers have
// no output deltas.
func (l *L2Loss) InitializeBackward(b layer.BackwardInvocationBuilder, batchSize int) error {
	return l.backward.Initialize(func() ([]layer.Invocation, error) {
		if l.forward.Phase() != layer.Ready {
			return nil, fmt.Errorf("backward before forward: %w", layer.ErrNotInitialized)
		}
		inputDeltas := b.InputDeltasBuffer()
		if err := layer.CheckBuffer(l, "input deltas buffer", inputDeltas, batchSize*2*l.size); err != nil {
			return nil, err
		}

		inv, err := b.MakeInvocation(kernel.L2LossBackward, []layer.Buffer{l.input, inputDeltas},
			[]float32{float32(batchSize), float32(l.size)}, layer.Grid{Width: batchSize * l.size})
		if err != nil {
			return nil, err
		}
		return []layer.Invocation{inv}, nil
	})
}

// BackwardInvocations returns the backward invocation list.
func (l *L2Loss) BackwardInvocations() []layer.Invocation {
	return l.backward.Invocations()
}
