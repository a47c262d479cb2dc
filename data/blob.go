// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package data

import (
	"github.com/born-ml/braincore/internal/layer"
)

// Blob is a batch of values exchanged with data and sink layers.
type Blob = layer.Blob
