package serialization

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Read reads a .brnc checkpoint from r.
//
// The whole stream is read and its checksum verified before anything is
// decoded. Tensors are returned in file order.
func Read(r io.Reader) (Header, []Tensor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if len(data) < FixedHeaderSize+ChecksumSize {
		return Header{}, nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	if !bytes.Equal(data[:len(MagicBytes)], []byte(MagicBytes)) {
		return Header{}, nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, data[:len(MagicBytes)], MagicBytes)
	}
	version := binary.LittleEndian.Uint32(data[4:])
	if version != FormatVersion {
		return Header{}, nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	body := data[:len(data)-ChecksumSize]
	var stored [ChecksumSize]byte
	copy(stored[:], data[len(body):])
	if err := ValidateChecksum(ComputeChecksum(body), stored); err != nil {
		return Header{}, nil, err
	}

	headerSize := binary.LittleEndian.Uint64(data[12:])
	if headerSize > MaxHeaderSize {
		return Header{}, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	rest := body[FixedHeaderSize:]
	if uint64(len(rest)) < headerSize {
		return Header{}, nil, fmt.Errorf("%w: header needs %d bytes, %d left", ErrTruncated, headerSize, len(rest))
	}

	header, err := unmarshalHeader(rest[:headerSize])
	if err != nil {
		return Header{}, nil, err
	}

	payload := rest[headerSize:]
	if len(payload)%ValueSize != 0 {
		return Header{}, nil, fmt.Errorf("%w: data section of %d bytes is not a whole number of values", ErrTruncated, len(payload))
	}
	if err := ValidateHeader(&header, int64(len(payload)/ValueSize)); err != nil {
		return Header{}, nil, err
	}

	tensors := make([]Tensor, 0, len(header.Tensors))
	for _, meta := range header.Tensors {
		values := make([]float32, meta.Length)
		start := meta.Offset * ValueSize
		for i := range values {
			bits := binary.LittleEndian.Uint32(payload[start+int64(i)*ValueSize:])
			values[i] = math.Float32frombits(bits)
		}
		tensors = append(tensors, Tensor{Name: meta.Name, Values: values})
	}
	return header, tensors, nil
}

// ReadFile reads a checkpoint from path.
func ReadFile(path string) (Header, []Tensor, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	file, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Read(file)
}
