// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU execution engine.
//
// Example:
//
//	engine := cpu.New()
//	g := graph.New(engine, graph.Config{BatchSize: 32, Training: true})
package cpu

import (
	internalcpu "github.com/born-ml/braincore/internal/backend/cpu"
	"github.com/born-ml/braincore/internal/graph"
	"github.com/born-ml/braincore/internal/optim"
	"github.com/born-ml/braincore/internal/parallel"
)

// Engine executes invocations on the CPU.
type Engine = internalcpu.Engine

// Config controls the CPU engine.
type Config = internalcpu.Config

// ParallelConfig controls element-wise kernel parallelism.
type ParallelConfig = parallel.Config

// Stats represents CPU engine memory statistics.
type Stats = internalcpu.Stats

// Kernel is a custom CPU kernel.
type Kernel = internalcpu.Kernel

// Args are the arguments a kernel runs with.
type Args = internalcpu.Args

// New creates a CPU engine with unlimited capacity and default parallelism.
func New() *Engine {
	return internalcpu.New()
}

// NewWithConfig creates a CPU engine from cfg.
func NewWithConfig(cfg Config) *Engine {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallelConfig returns a parallel configuration sized to the
// number of CPUs.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// Compile-time checks that Engine serves graphs and optimizers.
var (
	_ graph.Engine = (*Engine)(nil)
	_ optim.Engine = (*Engine)(nil)
)
