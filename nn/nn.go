// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers.
//
// # Layers
//
//   - Linear: fully connected layer (trainable)
//   - ReLU, Sigmoid, Tanh: element-wise activations
//   - L2Loss: squared error loss over predictions followed by labels
//
// Example:
//
//	hidden := nn.NewLinear("hidden", 784, 128)
//	act := nn.NewReLU("relu", 128)
//	out := nn.NewLinear("out", 128, 10)
//	loss := nn.NewL2Loss("loss", 10)
package nn

import (
	"github.com/born-ml/braincore/internal/nn"
)

// Linear implements a fully connected (dense) layer.
type Linear = nn.Linear

// LinearConfig configures a Linear layer.
type LinearConfig = nn.LinearConfig

// NewLinear creates a Linear layer with Xavier weights and zero biases.
// It panics if a size is not positive.
func NewLinear(name string, inputSize, outputSize int) *Linear {
	return nn.NewLinear(name, inputSize, outputSize)
}

// NewLinearWithConfig creates a Linear layer from cfg.
func NewLinearWithConfig(cfg LinearConfig) (*Linear, error) {
	return nn.NewLinearWithConfig(cfg)
}

// ReLU applies f(x) = max(0, x).
type ReLU = nn.ReLU

// NewReLU creates a ReLU layer over size values.
func NewReLU(name string, size int) *ReLU {
	return nn.NewReLU(name, size)
}

// Sigmoid applies f(x) = 1 / (1 + exp(-x)).
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a Sigmoid layer over size values.
func NewSigmoid(name string, size int) *Sigmoid {
	return nn.NewSigmoid(name, size)
}

// Tanh applies f(x) = tanh(x).
type Tanh = nn.Tanh

// NewTanh creates a Tanh layer over size values.
func NewTanh(name string, size int) *Tanh {
	return nn.NewTanh(name, size)
}

// L2Loss computes ½ Σ (prediction - label)² for every batch element.
type L2Loss = nn.L2Loss

// NewL2Loss creates an L2 loss over predictions of size values.
func NewL2Loss(name string, size int) *L2Loss {
	return nn.NewL2Loss(name, size)
}
