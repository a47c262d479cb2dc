// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/born-ml/braincore/internal/layer"
)

// Common errors.
var (
	ErrSizeMismatch       = layer.ErrSizeMismatch
	ErrInitialization     = layer.ErrInitialization
	ErrCapacityExceeded   = layer.ErrCapacityExceeded
	ErrContractViolation  = layer.ErrContractViolation
	ErrAlreadyInitialized = layer.ErrAlreadyInitialized
	ErrNotInitialized     = layer.ErrNotInitialized
	ErrUnknownKernel      = layer.ErrUnknownKernel
)

// SizeMismatchError reports a declared size that does not match a blob,
// buffer or connected layer.
type SizeMismatchError = layer.SizeMismatchError

// InitializationError is returned when a layer cannot be initialized.
type InitializationError = layer.InitializationError

// ContractViolation reports a programming error in a layer or its caller.
type ContractViolation = layer.ContractViolation
