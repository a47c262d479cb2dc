// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/born-ml/braincore/internal/layer"
)

// Blob is a dense batch of float32 values, one row per batch element.
type Blob = layer.Blob

// NewBlob allocates a zeroed blob for batchSize elements of size values.
func NewBlob(batchSize, size int) Blob {
	return layer.NewBlob(batchSize, size)
}

// Buffer is a device-resident memory handle.
type Buffer = layer.Buffer

// Invocation is a pre-built, replayable unit of computation.
type Invocation = layer.Invocation

// Grid is the number of threads an invocation is dispatched with.
type Grid = layer.Grid

// InvocationFactory allocates buffers and creates invocations.
type InvocationFactory = layer.InvocationFactory

// ForwardInvocationBuilder is handed to a layer during InitializeForward.
type ForwardInvocationBuilder = layer.ForwardInvocationBuilder

// BackwardInvocationBuilder is handed to a layer during InitializeBackward.
type BackwardInvocationBuilder = layer.BackwardInvocationBuilder

// InvocationList is a one-shot, replayable list of invocations. Embed one
// per pass in layer implementations.
type InvocationList = layer.InvocationList

// Phase is the initialization state of an invocation list.
type Phase = layer.Phase

// Invocation list phases.
const (
	Uninitialized = layer.Uninitialized
	Ready         = layer.Ready
	Failed        = layer.Failed
)

// Parameter pairs a parameter values buffer with its deltas buffer.
type Parameter = layer.Parameter

// EncodeParameters calls encode for every parameter of owner that has a
// deltas buffer, in the given order.
func EncodeParameters(owner Layer, encode ParameterUpdateFunc, params ...Parameter) {
	layer.EncodeParameters(owner, encode, params...)
}

// CheckBuffer verifies that buf holds exactly want values.
func CheckBuffer(owner Layer, what string, buf Buffer, want int) error {
	return layer.CheckBuffer(owner, what, buf, want)
}
