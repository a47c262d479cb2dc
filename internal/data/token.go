package data

import (
	"fmt"
	"sync"

	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/tokenizer"
)

// TokenSource serves sliding windows over tokenized text.
//
// Sample i is the window of Window tokens starting at token i. Token ids are
// scaled to [0, 1) by dividing by the vocabulary size. Windows wrap around
// once the last full window (followed by a next token) has been served.
type TokenSource struct {
	layer.Identity

	window int
	scale  float32
	tokens []int32

	mu     sync.Mutex
	cursor int
}

// NewTokenSource tokenizes text with tok and serves windows of window
// tokens. The text must encode to more than window tokens.
func NewTokenSource(name string, tok tokenizer.Tokenizer, text string, window int) (*TokenSource, error) {
	if window <= 0 {
		return nil, fmt.Errorf("token source %q: window must be positive, got %d", name, window)
	}
	tokens, err := tok.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("token source %q: encode: %w", name, err)
	}
	if len(tokens) <= window {
		return nil, fmt.Errorf("token source %q: text encodes to %d tokens, need more than %d", name, len(tokens), window)
	}
	return &TokenSource{
		Identity: layer.NewIdentity(name),
		window:   window,
		scale:    1 / float32(tok.VocabSize()),
		tokens:   tokens,
	}, nil
}

// OutputSize returns the window length.
func (s *TokenSource) OutputSize() int {
	return s.window
}

// Len returns the number of distinct windows.
func (s *TokenSource) Len() int {
	return len(s.tokens) - s.window
}

// NextBatch returns the next batchSize windows.
func (s *TokenSource) NextBatch(batchSize int) layer.Blob {
	if batchSize < 1 {
		panic(&layer.ContractViolation{Layer: layer.Describe(s), Reason: fmt.Sprintf("batch size %d", batchSize)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blob := layer.NewBlob(batchSize, s.window)
	for i := 0; i < batchSize; i++ {
		row := blob.Row(i, s.window)
		for j, tok := range s.tokens[s.cursor : s.cursor+s.window] {
			row[j] = float32(tok) * s.scale
		}
		s.cursor = (s.cursor + 1) % s.Len()
	}
	return blob
}

// Targets returns a data layer serving, in lockstep with s, the token that
// follows each window (one scaled value per sample).
func (s *TokenSource) Targets(name string) *TokenTargets {
	return &TokenTargets{Identity: layer.NewIdentity(name), source: s}
}

// TokenTargets serves next-token targets for a TokenSource.
type TokenTargets struct {
	layer.Identity

	source *TokenSource

	mu     sync.Mutex
	cursor int
}

// OutputSize returns 1.
func (t *TokenTargets) OutputSize() int {
	return 1
}

// NextBatch returns the next batchSize targets.
func (t *TokenTargets) NextBatch(batchSize int) layer.Blob {
	if batchSize < 1 {
		panic(&layer.ContractViolation{Layer: layer.Describe(t), Reason: fmt.Sprintf("batch size %d", batchSize)})
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.source
	blob := layer.NewBlob(batchSize, 1)
	for i := range blob {
		blob[i] = float32(s.tokens[t.cursor+s.window]) * s.scale
		t.cursor = (t.cursor + 1) % s.Len()
	}
	return blob
}
