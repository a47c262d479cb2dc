package tokenizer

import "fmt"

// ByteLevel maps every byte of the UTF-8 input to its own token.
type ByteLevel struct{}

// NewByteLevel creates a byte-level tokenizer.
func NewByteLevel() *ByteLevel {
	return &ByteLevel{}
}

// Encode returns one token per byte.
func (*ByteLevel) Encode(text string) ([]int32, error) {
	tokens := make([]int32, len(text))
	for i := 0; i < len(text); i++ {
		tokens[i] = int32(text[i])
	}
	return tokens, nil
}

// Decode converts byte tokens back to text.
func (*ByteLevel) Decode(tokens []int32) (string, error) {
	buf := make([]byte, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || tok > 255 {
			return "", fmt.Errorf("token %d out of range [0, 256)", tok)
		}
		buf[i] = byte(tok)
	}
	return string(buf), nil
}

// VocabSize returns 256.
func (*ByteLevel) VocabSize() int {
	return 256
}

// Name returns "byte".
func (*ByteLevel) Name() string {
	return "byte"
}
