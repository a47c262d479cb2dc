package main

import (
	"github.com/born-ml/braincore/internal/backend/cpu"
	"github.com/born-ml/braincore/internal/graph"
	"github.com/born-ml/braincore/internal/parallel"
)

// namedEngine is an engine that reports its name.
type namedEngine interface {
	graph.Engine
	Name() string
}

func newCPUEngine(capacity int) (namedEngine, func(), error) {
	return cpu.NewWithConfig(cpu.Config{Capacity: capacity, Parallel: parallel.DefaultConfig()}), func() {}, nil
}
