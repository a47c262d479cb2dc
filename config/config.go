// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config loads YAML network descriptions and builds trainable
// graphs from them.
//
// Example description:
//
//	batch_size: 4
//	steps: 2000
//	optimizer:
//	  type: adam
//	  lr: 0.05
//	layers:
//	  - {type: data, name: inputs, size: 2, values: [0, 0, 0, 1, 1, 0, 1, 1]}
//	  - {type: data, name: labels, size: 1, values: [0, 1, 1, 0]}
//	  - {type: linear, name: hidden, size: 8, inputs: [inputs]}
//	  - {type: tanh, name: act, inputs: [hidden]}
//	  - {type: linear, name: out, size: 1, inputs: [act]}
//	  - {type: l2_loss, name: loss, inputs: [out, labels]}
package config

import (
	"github.com/born-ml/braincore/internal/config"
)

// Config describes a network and how to train it.
type Config = config.Config

// OptimizerConfig selects and configures the optimizer.
type OptimizerConfig = config.OptimizerConfig

// LayerConfig describes one layer.
type LayerConfig = config.LayerConfig

// Network is a built graph with its optimizer and named layers.
type Network = config.Network

// Layer types.
const (
	TypeData      = config.TypeData
	TypeText      = config.TypeText
	TypeTargets   = config.TypeTargets
	TypeLinear    = config.TypeLinear
	TypeReLU      = config.TypeReLU
	TypeSigmoid   = config.TypeSigmoid
	TypeTanh      = config.TypeTanh
	TypeL2Loss    = config.TypeL2Loss
	TypeCollector = config.TypeCollector
)

// Optimizer types.
const (
	OptimizerSGD  = config.OptimizerSGD
	OptimizerAdam = config.OptimizerAdam
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = config.ErrInvalid

// Load reads and validates a description from path.
func Load(path string) (*Config, error) {
	return config.Load(path)
}

// Parse decodes and validates a YAML description.
func Parse(data []byte) (*Config, error) {
	return config.Parse(data)
}
