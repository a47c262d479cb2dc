// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers for training graphs.
//
// Available optimizers:
//   - SGD: stochastic gradient descent with optional momentum
//   - Adam: adaptive moment estimation
//
// Example:
//
//	adam := optim.NewAdam(engine, optim.AdamConfig{LR: 0.001})
//	defer adam.Release()
//
//	for range steps {
//	    loss, err := g.Step(ctx, adam)
//	}
package optim

import (
	"github.com/born-ml/braincore/internal/optim"
)

// Engine allocates optimizer state and creates update invocations.
type Engine = optim.Engine

// Optimizer is the interface implemented by all optimizers.
type Optimizer = optim.Optimizer

// Config is the base configuration for all optimizers.
type Config = optim.Config

// SGD is stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer allocating its state on engine.
func NewSGD(engine Engine, config SGDConfig) *SGD {
	return optim.NewSGD(engine, config)
}

// Adam is the Adam optimizer.
type Adam = optim.Adam

// AdamConfig configures Adam.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer allocating its state on engine.
func NewAdam(engine Engine, config AdamConfig) *Adam {
	return optim.NewAdam(engine, config)
}
