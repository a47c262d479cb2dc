// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"github.com/born-ml/braincore/layer"
	"github.com/born-ml/braincore/nn"
)

// Compile-time checks of the capabilities each layer provides.
var (
	_ layer.BackwardLayer  = (*nn.Linear)(nil)
	_ layer.TrainableLayer = (*nn.Linear)(nil)
	_ layer.BackwardLayer  = (*nn.ReLU)(nil)
	_ layer.BackwardLayer  = (*nn.Sigmoid)(nil)
	_ layer.BackwardLayer  = (*nn.Tanh)(nil)
	_ layer.LossLayer      = (*nn.L2Loss)(nil)
)
