// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides data layers feeding graphs and sink layers
// collecting their output.
//
//   - SliceSource: in-memory samples, served in order with wrap-around
//   - TokenSource: sliding token windows over tokenized text
//   - TokenTargets: next-token targets aligned with a TokenSource
//   - Collector: sink keeping the last output batch
package data

import (
	"github.com/born-ml/braincore/internal/data"
	"github.com/born-ml/braincore/tokenizer"
)

// SliceSource serves samples of an in-memory dataset.
type SliceSource = data.SliceSource

// NewSliceSource creates a source of samples of size values each.
// len(values) must be a positive multiple of size.
func NewSliceSource(name string, size int, values []float32) (*SliceSource, error) {
	return data.NewSliceSource(name, size, values)
}

// TokenSource serves sliding windows of token ids.
type TokenSource = data.TokenSource

// TokenTargets serves the token following each window of a TokenSource.
type TokenTargets = data.TokenTargets

// NewTokenSource tokenizes text with tok and serves windows of window tokens.
func NewTokenSource(name string, tok tokenizer.Tokenizer, text string, window int) (*TokenSource, error) {
	return data.NewTokenSource(name, tok, text, window)
}

// Collector is a sink layer keeping the last batch it consumed.
type Collector = data.Collector

// NewCollector creates a collector for batches of size values per element.
func NewCollector(name string, size, batchSize int) *Collector {
	return data.NewCollector(name, size, batchSize)
}

// NewCollectorFunc creates a collector that also passes every batch to fn.
func NewCollectorFunc(name string, size, batchSize int, fn func(Blob) error) *Collector {
	return data.NewCollectorFunc(name, size, batchSize, fn)
}
