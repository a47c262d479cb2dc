package layer

import "github.com/google/uuid"

// Layer is the identity every layer carries.
type Layer interface {
	// ID returns the unique layer identifier.
	ID() uuid.UUID

	// Name returns the optional human-readable name ("" if unnamed).
	Name() string
}

// DataLayer originates batches. It has no inputs.
type DataLayer interface {
	Layer

	// OutputSize is the number of values produced for each batch element.
	// It may not change after the layer is added to a graph.
	OutputSize() int

	// NextBatch returns the data for the next forward pass.
	//
	// The returned blob holds batchSize × OutputSize() values with
	// OutputSize() consecutive values per batch element. Successive calls
	// return successive batches; cyclic sources wrap around.
	// batchSize must be at least 1.
	NextBatch(batchSize int) Blob
}

// ForwardLayer consumes an input batch and produces an output batch.
type ForwardLayer interface {
	Layer

	// InputSize is the number of input values per batch element.
	// It may not change after the layer is added to a graph.
	InputSize() int

	// OutputSize is the number of output values per batch element.
	// It may not change after the layer is added to a graph.
	OutputSize() int

	// InitializeForward allocates buffers and registers the forward
	// invocations. It is called exactly once, before any forward pass.
	InitializeForward(b ForwardInvocationBuilder, batchSize int) error

	// ForwardInvocations returns the invocations built by InitializeForward.
	// The same list is returned on every call.
	ForwardInvocations() []Invocation
}

// BackwardLayer is a ForwardLayer that also propagates gradients.
type BackwardLayer interface {
	ForwardLayer

	// InitializeBackward allocates buffers and registers the invocations
	// computing the gradient with respect to the input and, for trainable
	// layers, with respect to the parameters. It is called exactly once,
	// after InitializeForward and before any backward pass.
	InitializeBackward(b BackwardInvocationBuilder, batchSize int) error

	// BackwardInvocations returns the invocations built by
	// InitializeBackward. The same list is returned on every call.
	BackwardInvocations() []Invocation
}

// ParameterUpdateFunc receives one (values, deltas) parameter pair.
type ParameterUpdateFunc func(values, deltas Buffer)

// TrainableLayer owns learnable parameters.
type TrainableLayer interface {
	// EncodeParametersUpdate calls encode once for every (values, deltas)
	// pair the layer owns, in a deterministic order. Both buffers of a pair
	// hold the same number of values.
	EncodeParametersUpdate(encode ParameterUpdateFunc)
}

// LossLayer is a BackwardLayer that terminates the forward graph with an
// error signal. Backward propagation starts at loss layers.
type LossLayer interface {
	BackwardLayer

	// IsLoss marks the layer as a loss.
	IsLoss()
}

// SinkLayer consumes final network output. It has no gradient path.
type SinkLayer interface {
	Layer

	// InputSize is the number of input values per batch element.
	// It may not change after the layer is added to a graph.
	InputSize() int

	// Consume receives the network output for one batch. Inputs whose
	// length is not batchSize × InputSize() are rejected.
	Consume(input Blob) error
}
