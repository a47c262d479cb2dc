// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer converts text into token ids for text data layers.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base)
//   - ByteLevel: one token per byte
//
// Example:
//
//	tok, err := tokenizer.NewTikToken(tokenizer.EncodingCL100kBase)
//	tokens, err := tok.Encode("Hello, world!")
package tokenizer

import (
	"github.com/born-ml/braincore/internal/tokenizer"
)

// Tokenizer converts between text and token ids.
type Tokenizer = tokenizer.Tokenizer

// TikToken encodings.
const (
	EncodingCL100kBase = tokenizer.EncodingCL100kBase
	EncodingP50kBase   = tokenizer.EncodingP50kBase
	EncodingR50kBase   = tokenizer.EncodingR50kBase
)

// TikToken wraps an OpenAI BPE encoding.
type TikToken = tokenizer.TikToken

// NewTikToken loads the named tiktoken encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// ByteLevel maps every byte to its own token.
type ByteLevel = tokenizer.ByteLevel

// NewByteLevel creates a byte-level tokenizer.
func NewByteLevel() *ByteLevel {
	return tokenizer.NewByteLevel()
}
