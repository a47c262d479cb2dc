// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph wires layers into a computation graph and trains it.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/braincore/backend/cpu"
//	    "github.com/born-ml/braincore/data"
//	    "github.com/born-ml/braincore/graph"
//	    "github.com/born-ml/braincore/nn"
//	    "github.com/born-ml/braincore/optim"
//	)
//
//	func main() {
//	    engine := cpu.New()
//	    inputs, _ := data.NewSliceSource("inputs", 2, []float32{0, 0, 0, 1, 1, 0, 1, 1})
//	    labels, _ := data.NewSliceSource("labels", 1, []float32{0, 1, 1, 0})
//	    hidden := nn.NewLinear("hidden", 2, 8)
//	    act := nn.NewTanh("act", 8)
//	    out := nn.NewLinear("out", 8, 1)
//	    loss := nn.NewL2Loss("loss", 1)
//
//	    g := graph.New(engine, graph.Config{BatchSize: 4, Training: true})
//	    for _, l := range []layer.Layer{inputs, labels, hidden, act, out, loss} {
//	        _ = g.Add(l)
//	    }
//	    _ = g.Connect(inputs, hidden)
//	    _ = g.Connect(hidden, act)
//	    _ = g.Connect(act, out)
//	    _ = g.Connect(out, loss)
//	    _ = g.Connect(labels, loss)
//	    if err := g.Build(ctx); err != nil {
//	        log.Fatal(err)
//	    }
//	    defer g.Release()
//
//	    adam := optim.NewAdam(engine, optim.AdamConfig{LR: 0.05})
//	    for range 2000 {
//	        loss, _ := g.Step(ctx, adam)
//	    }
//	}
package graph

import (
	"github.com/born-ml/braincore/internal/graph"
	"github.com/born-ml/braincore/internal/serialization"
)

// Graph is a directed acyclic graph of layers.
type Graph = graph.Graph

// Config configures a graph.
type Config = graph.Config

// Engine is the execution engine a graph allocates buffers on and runs
// invocations with.
type Engine = graph.Engine

// ParameterUpdater turns a parameter pair into update invocations.
// Optimizers implement it.
type ParameterUpdater = graph.ParameterUpdater

// New creates an empty graph executing on engine.
func New(engine Engine, cfg Config) *Graph {
	return graph.New(engine, cfg)
}

// Graph errors.
var (
	ErrAlreadyBuilt   = graph.ErrAlreadyBuilt
	ErrNotBuilt       = graph.ErrNotBuilt
	ErrBuildFailed    = graph.ErrBuildFailed
	ErrReleased       = graph.ErrReleased
	ErrCycle          = graph.ErrCycle
	ErrUnknownLayer   = graph.ErrUnknownLayer
	ErrDuplicateLayer = graph.ErrDuplicateLayer
	ErrNotTraining    = graph.ErrNotTraining
	ErrNoLoss         = graph.ErrNoLoss
	ErrInvalidLayer   = graph.ErrInvalidLayer
	ErrInvalidEdge    = graph.ErrInvalidEdge
	ErrCheckpoint     = graph.ErrCheckpoint
)

// CheckpointHeader describes a parameter checkpoint written by
// SaveCheckpoint.
type CheckpointHeader = serialization.Header
