package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteLevel_Roundtrip(t *testing.T) {
	var tok Tokenizer = NewByteLevel()

	tokens, err := tok.Encode("hé!")
	require.NoError(t, err)
	assert.Equal(t, []int32{'h', 0xc3, 0xa9, '!'}, tokens)

	text, err := tok.Decode(tokens)
	require.NoError(t, err)
	assert.Equal(t, "hé!", text)
	assert.Equal(t, 256, tok.VocabSize())
	assert.Equal(t, "byte", tok.Name())
}

func TestByteLevel_DecodeOutOfRange(t *testing.T) {
	_, err := NewByteLevel().Decode([]int32{256})
	assert.Error(t, err)
}
