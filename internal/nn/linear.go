package nn

import (
	"fmt"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

// LinearConfig configures a Linear layer.
type LinearConfig struct {
	Name       string
	InputSize  int
	OutputSize int

	Seed    uint64    // Weight initialization seed (0: random)
	Weights []float32 // Initial weights [out, in] (default: Xavier)
	Biases  []float32 // Initial biases [out] (default: zeros)
}

// Linear implements a fully connected (dense) layer.
//
// Computes output = input · weightsᵀ + biases for every batch element, where
// weights is [OutputSize, InputSize] and biases is [OutputSize].
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	dense := nn.NewLinear("dense1", 784, 128)
//	_ = g.Add(dense)
type Linear struct {
	layer.Identity

	in, out int

	initialWeights []float32
	initialBiases  []float32

	input   layer.Buffer
	weights layer.Parameter
	biases  layer.Parameter

	forward  layer.InvocationList
	backward layer.InvocationList
}

// NewLinear creates a Linear layer with Xavier weights and zero biases.
// It panics if a size is not positive.
func NewLinear(name string, inputSize, outputSize int) *Linear {
	l, err := NewLinearWithConfig(LinearConfig{Name: name, InputSize: inputSize, OutputSize: outputSize})
	if err != nil {
		panic(err)
	}
	return l
}

// NewLinearWithConfig creates a Linear layer from cfg.
func NewLinearWithConfig(cfg LinearConfig) (*Linear, error) {
	if cfg.InputSize <= 0 || cfg.OutputSize <= 0 {
		return nil, fmt.Errorf("linear %q: sizes must be positive, got %d→%d", cfg.Name, cfg.InputSize, cfg.OutputSize)
	}

	weights := cfg.Weights
	if weights == nil {
		weights = Xavier(cfg.InputSize, cfg.OutputSize, cfg.InputSize*cfg.OutputSize, newRand(cfg.Seed))
	}
	if len(weights) != cfg.InputSize*cfg.OutputSize {
		return nil, &layer.SizeMismatchError{Layer: cfg.Name, What: "initial weights", Want: cfg.InputSize * cfg.OutputSize, Got: len(weights)}
	}

	biases := cfg.Biases
	if biases == nil {
		biases = make([]float32, cfg.OutputSize)
	}
	if len(biases) != cfg.OutputSize {
		return nil, &layer.SizeMismatchError{Layer: cfg.Name, What: "initial biases", Want: cfg.OutputSize, Got: len(biases)}
	}

	return &Linear{
		Identity:       layer.NewIdentity(cfg.Name),
		in:             cfg.InputSize,
		out:            cfg.OutputSize,
		initialWeights: append([]float32(nil), weights...),
		initialBiases:  append([]float32(nil), biases...),
	}, nil
}

// InputSize returns the number of input features.
func (l *Linear) InputSize() int { return l.in }

// OutputSize returns the number of output features.
func (l *Linear) OutputSize() int { return l.out }

// InitializeForward allocates weights and biases and registers the forward
// invocation.
func (l *Linear) InitializeForward(b layer.ForwardInvocationBuilder, batchSize int) error {
	return l.forward.Initialize(func() ([]layer.Invocation, error) {
		input, output := b.InputBuffer(), b.OutputBuffer()
		if err := layer.CheckBuffer(l, "input buffer", input, batchSize*l.in); err != nil {
			return nil, err
		}
		if err := layer.CheckBuffer(l, "output buffer", output, batchSize*l.out); err != nil {
			return nil, err
		}

		weights, err := b.AddBufferWithValues("weights", l.initialWeights)
		if err != nil {
			return nil, fmt.Errorf("allocate weights: %w", err)
		}
		biases, err := b.AddBufferWithValues("biases", l.initialBiases)
		if err != nil {
			return nil, fmt.Errorf("allocate biases: %w", err)
		}

		inv, err := b.MakeInvocation(kernel.LinearForward,
			[]layer.Buffer{input, weights, biases, output},
			[]float32{float32(batchSize), float32(l.in), float32(l.out)},
			layer.Grid{Width: l.out, Height: batchSize})
		if err != nil {
			return nil, err
		}

		l.input = input
		l.weights.Values = weights
		l.biases.Values = biases
		return []layer.Invocation{inv}, nil
	})
}

// ForwardInvocations returns the forward invocation list.
func (l *Linear) ForwardInvocations() []layer.Invocation {
	return l.forward.Invocations()
}

// InitializeBackward allocates the parameter deltas and registers the
// invocations computing them and the input deltas.
func (l *Linear) InitializeBackward(b layer.BackwardInvocationBuilder, batchSize int) error {
	return l.backward.Initialize(func() ([]layer.Invocation, error) {
		if l.forward.Phase() != layer.Ready {
			return nil, fmt.Errorf("backward before forward: %w", layer.ErrNotInitialized)
		}
		outputDeltas, inputDeltas := b.OutputDeltasBuffer(), b.InputDeltasBuffer()
		if err := layer.CheckBuffer(l, "output deltas buffer", outputDeltas, batchSize*l.out); err != nil {
			return nil, err
		}
		if err := layer.CheckBuffer(l, "input deltas buffer", inputDeltas, batchSize*l.in); err != nil {
			return nil, err
		}

		weightDeltas, err := b.AddBuffer("weights_deltas", l.in*l.out)
		if err != nil {
			return nil, fmt.Errorf("allocate weight deltas: %w", err)
		}
		biasDeltas, err := b.AddBuffer("biases_deltas", l.out)
		if err != nil {
			return nil, fmt.Errorf("allocate bias deltas: %w", err)
		}

		dims := []float32{float32(batchSize), float32(l.in), float32(l.out)}
		params, err := b.MakeInvocation(kernel.LinearBackwardParams,
			[]layer.Buffer{l.input, outputDeltas, weightDeltas, biasDeltas}, dims,
			layer.Grid{Width: l.in, Height: l.out})
		if err != nil {
			return nil, err
		}
		input, err := b.MakeInvocation(kernel.LinearBackwardInput,
			[]layer.Buffer{outputDeltas, l.weights.Values, inputDeltas}, dims,
			layer.Grid{Width: l.in, Height: batchSize})
		if err != nil {
			return nil, err
		}

		l.weights.Deltas = weightDeltas
		l.biases.Deltas = biasDeltas
		return []layer.Invocation{params, input}, nil
	})
}

// BackwardInvocations returns the backward invocation list.
func (l *Linear) BackwardInvocations() []layer.Invocation {
	return l.backward.Invocations()
}

// EncodeParametersUpdate reports (weights, weight deltas) then
// (biases, bias deltas). Nothing is reported before backward initialization.
func (l *Linear) EncodeParametersUpdate(encode layer.ParameterUpdateFunc) {
	layer.EncodeParameters(l, encode, l.Parameters()...)
}

// Parameters returns the weights and biases parameters.
func (l *Linear) Parameters() []layer.Parameter {
	return []layer.Parameter{l.weights, l.biases}
}
