// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layer defines the contracts between layers, graphs and execution
// engines.
//
// A layer carries an identity (a unique id and an optional name) and one or
// more capabilities:
//   - DataLayer: originates batches (NextBatch)
//   - ForwardLayer: turns an input batch into an output batch
//   - BackwardLayer: also propagates gradients
//   - TrainableLayer: owns (values, deltas) parameter pairs
//   - LossLayer: terminates the graph with an error signal
//   - SinkLayer: consumes final network output
//
// Forward and backward layers go through a two-phase lifecycle: Initialize*
// is called exactly once with an invocation builder, after which
// *Invocations returns the same replayable list on every call.
//
// # Writing a Layer
//
//	type Negate struct {
//	    layer.Identity
//	    size    int
//	    forward layer.InvocationList
//	}
//
//	func (n *Negate) InitializeForward(b layer.ForwardInvocationBuilder, batchSize int) error {
//	    return n.forward.Initialize(func() ([]layer.Invocation, error) {
//	        inv, err := b.MakeInvocation("negate", []layer.Buffer{b.InputBuffer(), b.OutputBuffer()}, nil,
//	            layer.Grid{Width: batchSize * n.size})
//	        if err != nil {
//	            return nil, err
//	        }
//	        return []layer.Invocation{inv}, nil
//	    })
//	}
//
//	func (n *Negate) ForwardInvocations() []layer.Invocation {
//	    return n.forward.Invocations()
//	}
package layer

import (
	"github.com/born-ml/braincore/internal/layer"
)

// Layer is the identity every layer carries.
type Layer = layer.Layer

// DataLayer originates batches. It has no inputs.
type DataLayer = layer.DataLayer

// ForwardLayer consumes an input batch and produces an output batch.
type ForwardLayer = layer.ForwardLayer

// BackwardLayer is a ForwardLayer that also propagates gradients.
type BackwardLayer = layer.BackwardLayer

// TrainableLayer owns learnable parameters.
type TrainableLayer = layer.TrainableLayer

// LossLayer is a BackwardLayer that terminates the forward graph.
type LossLayer = layer.LossLayer

// SinkLayer consumes final network output.
type SinkLayer = layer.SinkLayer

// ParameterUpdateFunc receives one (values, deltas) parameter pair.
type ParameterUpdateFunc = layer.ParameterUpdateFunc

// Identity is the embeddable identity part of a layer.
type Identity = layer.Identity

// NewIdentity creates an identity with a freshly generated id.
// An empty name means the layer is unnamed.
func NewIdentity(name string) Identity {
	return layer.NewIdentity(name)
}

// Describe returns the name of l if present, otherwise its id.
func Describe(l Layer) string {
	return layer.Describe(l)
}
