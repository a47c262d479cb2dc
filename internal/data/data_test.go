package data

import (
	"errors"
	"testing"

	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceSource_Cycles(t *testing.T) {
	src, err := NewSliceSource("inputs", 2, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 2, src.OutputSize())
	assert.Equal(t, 3, src.Len())

	assert.Equal(t, layer.Blob{1, 2, 3, 4}, src.NextBatch(2))
	assert.Equal(t, layer.Blob{5, 6, 1, 2}, src.NextBatch(2))
	assert.Equal(t, layer.Blob{3, 4, 5, 6, 1, 2, 3, 4}, src.NextBatch(4))

	src.Reset()
	assert.Equal(t, layer.Blob{1, 2}, src.NextBatch(1))
}

func TestSliceSource_Invalid(t *testing.T) {
	_, err := NewSliceSource("bad", 2, []float32{1, 2, 3})
	assert.ErrorIs(t, err, layer.ErrSizeMismatch)

	_, err = NewSliceSource("bad", 0, []float32{1})
	assert.Error(t, err)

	src, err := NewSliceSource("ok", 1, []float32{1})
	require.NoError(t, err)
	assert.Panics(t, func() { src.NextBatch(0) })
}

func TestSliceSource_IsDataLayer(t *testing.T) {
	src, err := NewSliceSource("inputs", 1, []float32{1})
	require.NoError(t, err)

	var l layer.Layer = src
	_, ok := l.(layer.DataLayer)
	assert.True(t, ok)
	_, ok = l.(layer.ForwardLayer)
	assert.False(t, ok)
}

func TestTokenSource_Windows(t *testing.T) {
	tok := tokenizer.NewByteLevel()
	src, err := NewTokenSource("text", tok, "abcde", 3)
	require.NoError(t, err)
	targets := src.Targets("next")

	assert.Equal(t, 3, src.OutputSize())
	assert.Equal(t, 2, src.Len())
	assert.Equal(t, 1, targets.OutputSize())

	scale := float32(1) / 256
	batch := src.NextBatch(3)
	assert.Equal(t, layer.Blob{
		'a' * scale, 'b' * scale, 'c' * scale,
		'b' * scale, 'c' * scale, 'd' * scale,
		'a' * scale, 'b' * scale, 'c' * scale,
	}, batch)
	assert.Equal(t, layer.Blob{'d' * scale, 'e' * scale, 'd' * scale}, targets.NextBatch(3))
}

func TestTokenSource_TooShort(t *testing.T) {
	_, err := NewTokenSource("text", tokenizer.NewByteLevel(), "ab", 2)
	assert.Error(t, err)
}

func TestCollector(t *testing.T) {
	var seen []layer.Blob
	c := NewCollectorFunc("out", 2, 3, func(b layer.Blob) error {
		seen = append(seen, b)
		return nil
	})
	assert.Equal(t, 2, c.InputSize())
	assert.Nil(t, c.Last())

	input := layer.Blob{1, 2, 3, 4, 5, 6}
	require.NoError(t, c.Consume(input))
	input[0] = 100

	assert.Equal(t, layer.Blob{1, 2, 3, 4, 5, 6}, c.Last())
	assert.Equal(t, 1, c.Batches())
	require.Len(t, seen, 1)
	assert.Equal(t, layer.Blob{1, 2, 3, 4, 5, 6}, seen[0])
}

func TestCollector_RejectsWrongLength(t *testing.T) {
	c := NewCollector("out", 2, 3)

	err := c.Consume(layer.Blob{1, 2, 3, 4})
	var sizeErr *layer.SizeMismatchError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, "out", sizeErr.Layer)
	assert.Equal(t, 6, sizeErr.Want)
	assert.Equal(t, 4, sizeErr.Got)
	assert.Equal(t, 0, c.Batches())
}

func TestCollector_CallbackError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollectorFunc("out", 1, 1, func(layer.Blob) error { return boom })
	assert.ErrorIs(t, c.Consume(layer.Blob{1}), boom)
}
