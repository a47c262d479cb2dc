//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU execution engine.
//
// Example:
//
//	if !webgpu.IsAvailable() {
//	    return errors.New("no GPU adapter")
//	}
//	engine, err := webgpu.New()
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
package webgpu

import (
	internalwebgpu "github.com/born-ml/braincore/internal/backend/webgpu"
	"github.com/born-ml/braincore/internal/graph"
	"github.com/born-ml/braincore/internal/optim"
)

// Engine executes invocations on a WebGPU device.
type Engine = internalwebgpu.Engine

// Config controls the WebGPU engine.
type Config = internalwebgpu.Config

// Stats represents WebGPU engine memory statistics.
type Stats = internalwebgpu.Stats

// New creates a WebGPU engine on the default adapter.
func New() (*Engine, error) {
	return internalwebgpu.New()
}

// NewWithConfig creates a WebGPU engine from cfg.
func NewWithConfig(cfg Config) (*Engine, error) {
	return internalwebgpu.NewWithConfig(cfg)
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// Compile-time checks that Engine serves graphs and optimizers.
var (
	_ graph.Engine = (*Engine)(nil)
	_ optim.Engine = (*Engine)(nil)
)
