// Package kernel names the compute kernels shared by layers and execution
// engines.
//
// Layers refer to kernels by name when they register invocations; every
// engine implements the full catalogue. Each constant documents the buffer
// order and the scalar values the kernel expects. Matrices are row-major.
package kernel

const (
	// Fill sets every value of buffers[0] to values[0].
	Fill = "fill"

	// CopyColumns copies a [rows, srcWidth] matrix into columns
	// [offset, offset+srcWidth) of a [rows, dstWidth] matrix.
	//   buffers: src, dst
	//   values:  rows, srcWidth, dstWidth, offset
	CopyColumns = "copy_columns"

	// AccumulateColumns adds columns [offset, offset+dstWidth) of a
	// [rows, srcWidth] matrix into a [rows, dstWidth] matrix.
	//   buffers: src, dst
	//   values:  rows, srcWidth, dstWidth, offset
	AccumulateColumns = "accumulate_columns"

	// LinearForward computes output = input · weightsᵀ + biases.
	//   buffers: input [batch, in], weights [out, in], biases [out], output [batch, out]
	//   values:  batch, in, out
	LinearForward = "linear_forward"

	// LinearBackwardInput computes inputDeltas = outputDeltas · weights.
	//   buffers: outputDeltas [batch, out], weights [out, in], inputDeltas [batch, in]
	//   values:  batch, in, out
	LinearBackwardInput = "linear_backward_input"

	// LinearBackwardParams computes weightDeltas = outputDeltasᵀ · input and
	// biasDeltas = Σ_batch outputDeltas. Previous deltas are overwritten.
	//   buffers: input [batch, in], outputDeltas [batch, out], weightDeltas [out, in], biasDeltas [out]
	//   values:  batch, in, out
	LinearBackwardParams = "linear_backward_params"

	// ReLUForward computes output = max(input, 0).
	//   buffers: input, output
	ReLUForward = "relu_forward"

	// ReLUBackward computes inputDeltas = outputDeltas where input > 0, else 0.
	//   buffers: input, outputDeltas, inputDeltas
	ReLUBackward = "relu_backward"

	// SigmoidForward computes output = 1 / (1 + exp(-input)).
	//   buffers: input, output
	SigmoidForward = "sigmoid_forward"

	// SigmoidBackward computes inputDeltas = outputDeltas · output · (1 - output).
	//   buffers: output, outputDeltas, inputDeltas
	SigmoidBackward = "sigmoid_backward"

	// TanhForward computes output = tanh(input).
	//   buffers: input, output
	TanhForward = "tanh_forward"

	// TanhBackward computes inputDeltas = outputDeltas · (1 - output²).
	//   buffers: output, outputDeltas, inputDeltas
	TanhBackward = "tanh_backward"

	// L2LossForward computes, for every batch element holding predictions
	// followed by labels, output = ½ Σ (prediction - label)².
	//   buffers: input [batch, 2·size], output [batch]
	//   values:  batch, size
	L2LossForward = "l2_loss_forward"

	// L2LossBackward computes the gradient of the batch-mean L2 loss:
	// ∂/∂prediction = (prediction - label) / batch, ∂/∂label = -(prediction - label) / batch.
	//   buffers: input [batch, 2·size], inputDeltas [batch, 2·size]
	//   values:  batch, size
	L2LossBackward = "l2_loss_backward"

	// SGDUpdate applies velocity = momentum·velocity + deltas and
	// values -= learningRate·velocity.
	//   buffers: values, deltas, velocity
	//   values:  learningRate, momentum
	SGDUpdate = "sgd_update"

	// AdamUpdate applies one Adam step. state[0] holds the step counter and
	// is incremented by the kernel.
	//   buffers: values, deltas, m, v, state [1]
	//   values:  learningRate, beta1, beta2, epsilon
	AdamUpdate = "adam_update"
)

// All lists every kernel in the catalogue.
var All = []string{
	Fill, CopyColumns, AccumulateColumns,
	LinearForward, LinearBackwardInput, LinearBackwardParams,
	ReLUForward, ReLUBackward,
	SigmoidForward, SigmoidBackward,
	TanhForward, TanhBackward,
	L2LossForward, L2LossBackward,
	SGDUpdate, AdamUpdate,
}
