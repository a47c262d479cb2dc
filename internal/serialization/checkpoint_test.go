package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTensors() []Tensor {
	return []Tensor{
		{Name: "dense1.weights", Values: []float32{1, -2, 3.5, 4}},
		{Name: "dense1.biases", Values: []float32{0.25, -0.5}},
		{Name: "empty", Values: []float32{}},
	}
}

func TestRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	header := Header{
		CreatedAt: created,
		Step:      1234,
		Loss:      0.125,
		HasLoss:   true,
		Metadata:  map[string]string{"optimizer": "adam", "batch_size": "32"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, header, testTensors()))

	got, tensors, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, LibraryVersion, got.Version)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, int64(1234), got.Step)
	assert.True(t, got.HasLoss)
	assert.InDelta(t, 0.125, got.Loss, 1e-9)
	assert.Equal(t, header.Metadata, got.Metadata)

	require.Len(t, tensors, 3)
	for i, want := range testTensors() {
		assert.Equal(t, want.Name, tensors[i].Name)
		assert.Equal(t, want.Values, tensors[i].Values)
	}
	assert.Equal(t, []TensorMeta{
		{Name: "dense1.weights", Offset: 0, Length: 4},
		{Name: "dense1.biases", Offset: 4, Length: 2},
		{Name: "empty", Offset: 6, Length: 0},
	}, got.Tensors)
}

func TestRoundTrip_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.brnc")
	require.NoError(t, WriteFile(path, Header{Step: 7}, testTensors()))

	header, tensors, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), header.Step)
	assert.False(t, header.HasLoss)
	assert.False(t, header.CreatedAt.IsZero())
	assert.Len(t, tensors, 3)
}

func TestRead_CorruptionDetected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Header{}, testTensors()))

	data := buf.Bytes()
	data[len(data)-ChecksumSize-1] ^= 0xff

	_, _, err := Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestRead_InvalidMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Header{}, testTensors()))

	data := buf.Bytes()
	copy(data, "NOPE")

	_, _, err := Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestRead_Truncated(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("BRNC")))
	assert.ErrorIs(t, err, ErrTruncated)
}

// rawCheckpoint frames a header and payload as a .brnc file with a valid
// checksum, bypassing the checks Write applies.
func rawCheckpoint(header Header, payload []byte) []byte {
	headerBytes := marshalHeader(&header)

	var fixed [FixedHeaderSize]byte
	copy(fixed[:], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:], FormatVersion)
	binary.LittleEndian.PutUint64(fixed[12:], uint64(len(headerBytes)))

	body := append(fixed[:], headerBytes...)
	body = append(body, payload...)
	sum := ComputeChecksum(body)
	return append(body, sum[:]...)
}

func TestRead_OverflowingTensorBounds(t *testing.T) {
	data := rawCheckpoint(Header{
		Tensors: []TensorMeta{{Name: "w", Offset: 1 << 62, Length: 1 << 62}},
	}, make([]byte, ValueSize))

	require.NotPanics(t, func() {
		_, _, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}

func TestWrite_RejectsInvalidNames(t *testing.T) {
	var buf bytes.Buffer

	err := Write(&buf, Header{}, []Tensor{{Name: "a/b", Values: []float32{1}}})
	assert.ErrorIs(t, err, ErrInvalidTensorName)

	err = Write(&buf, Header{}, []Tensor{{Name: "w", Values: []float32{1}}, {Name: "w", Values: []float32{2}}})
	assert.ErrorIs(t, err, ErrDuplicateTensor)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "w", verr.Tensor)
}

func TestHeader_UnknownFieldsSkipped(t *testing.T) {
	h := Header{Version: "x", Step: -3}
	b := marshalHeader(&h)
	// Field 15, varint 1.
	b = append(b, 15<<3, 1)

	got, err := unmarshalHeader(b)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Version)
	assert.Equal(t, int64(-3), got.Step)
}
