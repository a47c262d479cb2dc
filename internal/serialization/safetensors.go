package serialization

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
)

// SafeTensors layout:
// [8 bytes: header size (uint64 LE)]
// [header size bytes: JSON header]
// [tensor data: raw bytes]

// SafeTensorsDType is the element type of a SafeTensors tensor.
type SafeTensorsDType string

// Readable SafeTensors dtypes. Values are converted to float32.
const (
	SafeTensorsF16  SafeTensorsDType = "F16"
	SafeTensorsBF16 SafeTensorsDType = "BF16"
	SafeTensorsF32  SafeTensorsDType = "F32"
	SafeTensorsF64  SafeTensorsDType = "F64"
)

// MaxSafeTensorsHeader bounds the JSON header of a SafeTensors file.
const MaxSafeTensorsHeader = 100 << 20

const safeTensorsMetadataKey = "__metadata__"

// SafeTensorInfo describes a tensor in a SafeTensors header.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int            `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end) in the data section
}

// WriteSafeTensors writes tensors as F32 SafeTensors with shape [len].
// Tensors are laid out in the given order; the header is padded with spaces
// to an 8-byte boundary.
func WriteSafeTensors(w io.Writer, metadata map[string]string, tensors []Tensor) error {
	header := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		header[safeTensorsMetadataKey] = metadata
	}

	var offset int64
	for _, t := range tensors {
		if t.Name == safeTensorsMetadataKey || t.Name == "" {
			return fmt.Errorf("%w: %q", ErrInvalidTensorName, t.Name)
		}
		if _, dup := header[t.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateTensor, t.Name)
		}
		size := int64(len(t.Values)) * ValueSize
		header[t.Name] = SafeTensorInfo{
			DType:       SafeTensorsF32,
			Shape:       []int{len(t.Values)},
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if pad := len(headerJSON) % 8; pad != 0 {
		headerJSON = append(headerJSON, bytes.Repeat([]byte(" "), 8-pad)...)
	}

	buf := make([]byte, 8, 8+len(headerJSON)+int(offset))
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	for _, t := range tensors {
		for _, v := range t.Values {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write safetensors: %w", err)
	}
	return nil
}

// ReadSafeTensors reads a SafeTensors file and returns its metadata and
// tensors ordered by data offset. Floating-point dtypes are converted to
// float32; other dtypes fail with ErrUnsupportedDType.
func ReadSafeTensors(r io.Reader) (map[string]string, []Tensor, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("%w: header size: %w", ErrTruncated, err)
	}
	if headerSize > MaxSafeTensorsHeader {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %w", ErrTruncated, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	var metadata map[string]string
	if m, ok := raw[safeTensorsMetadataKey]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		delete(raw, safeTensorsMetadataKey)
	}

	type entry struct {
		name string
		info SafeTensorInfo
	}
	entries := make([]entry, 0, len(raw))
	for name, value := range raw {
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal tensor %s: %w", name, err)
		}
		entries = append(entries, entry{name: name, info: info})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.info.DataOffsets[0], b.info.DataOffsets[0]); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	tensors := make([]Tensor, 0, len(entries))
	for _, e := range entries {
		values, err := decodeSafeTensor(e.name, e.info, data)
		if err != nil {
			return nil, nil, err
		}
		tensors = append(tensors, Tensor{Name: e.name, Values: values})
	}
	return metadata, tensors, nil
}

func decodeSafeTensor(name string, info SafeTensorInfo, data []byte) ([]float32, error) {
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if start < 0 || end < start {
		return nil, &ValidationError{
			Type:    "negative_offset",
			Tensor:  name,
			Details: fmt.Sprintf("data offsets [%d, %d]", start, end),
			Err:     ErrNegativeOffset,
		}
	}
	if end > int64(len(data)) {
		return nil, &ValidationError{
			Type:    "out_of_bounds",
			Tensor:  name,
			Details: fmt.Sprintf("ends at %d, data section has %d bytes", end, len(data)),
			Err:     ErrOutOfBounds,
		}
	}

	var width int64
	switch info.DType {
	case SafeTensorsF16, SafeTensorsBF16:
		width = 2
	case SafeTensorsF32:
		width = 4
	case SafeTensorsF64:
		width = 8
	default:
		return nil, fmt.Errorf("tensor %s: %w: %s", name, ErrUnsupportedDType, info.DType)
	}

	span := end - start
	n, ok := elementCount(info.Shape, span/width)
	if !ok || span%width != 0 {
		return nil, fmt.Errorf("tensor %s: shape %v does not match data offsets spanning %d bytes of %s", name, info.Shape, span, info.DType)
	}

	raw := data[start:end]
	values := make([]float32, n)
	for i := range values {
		switch info.DType {
		case SafeTensorsF16:
			values[i] = float16ToFloat32(binary.LittleEndian.Uint16(raw[2*i:]))
		case SafeTensorsBF16:
			values[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(raw[2*i:])) << 16)
		case SafeTensorsF32:
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		case SafeTensorsF64:
			values[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:])))
		}
	}
	return values, nil
}

// elementCount returns the number of elements of shape if it is exactly want.
// Negative dimensions and products exceeding want are rejected before they
// can overflow.
func elementCount(shape []int, want int64) (int64, bool) {
	if slices.Contains(shape, 0) {
		return 0, want == 0 && !slices.ContainsFunc(shape, func(d int) bool { return d < 0 })
	}
	n := int64(1)
	for _, d := range shape {
		if d < 0 || n > want/int64(d) {
			return 0, false
		}
		n *= int64(d)
	}
	return n, n == want
}

// float16ToFloat32 converts an IEEE 754 half precision value.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := (h >> 10) & 0x1F
	mant := h & 0x3FF

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: normalize.
		e := int32(1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3FF
		return math.Float32frombits(sign | uint32(e+127-15)<<23 | uint32(mant)<<13)
	case 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | uint32(mant)<<13)
	}
	return math.Float32frombits(sign | uint32(exp+127-15)<<23 | uint32(mant)<<13)
}
