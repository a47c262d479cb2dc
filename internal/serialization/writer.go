package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// LibraryVersion is recorded in every header written by this package.
const LibraryVersion = "0.1.0"

// Write writes header and tensors to w in .brnc format.
//
// header.Tensors is computed from tensors. A zero CreatedAt is set to the
// current time and an empty Version to LibraryVersion.
func Write(w io.Writer, header Header, tensors []Tensor) error {
	header.Tensors = make([]TensorMeta, 0, len(tensors))
	var offset int64
	for _, t := range tensors {
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   t.Name,
			Offset: offset,
			Length: int64(len(t.Values)),
		})
		offset += int64(len(t.Values))
	}
	if err := ValidateHeader(&header, offset); err != nil {
		return err
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Version == "" {
		header.Version = LibraryVersion
	}

	headerBytes := marshalHeader(&header)
	if len(headerBytes) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerBytes))
	}

	bw := bufio.NewWriter(w)
	cw := newChecksumWriter(bw)

	if _, err := io.WriteString(cw, MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}

	var fixed [FixedHeaderSize - len(MagicBytes)]byte
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.HasLoss {
		flags |= FlagHasLoss
	}
	binary.LittleEndian.PutUint32(fixed[0:], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[4:], flags)
	binary.LittleEndian.PutUint64(fixed[8:], uint64(len(headerBytes)))
	if _, err := cw.Write(fixed[:]); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}

	if _, err := cw.Write(headerBytes); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var word [ValueSize]byte
	for _, t := range tensors {
		for _, v := range t.Values {
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(v))
			if _, err := cw.Write(word[:]); err != nil {
				return fmt.Errorf("failed to write tensor %s: %w", t.Name, err)
			}
		}
	}

	sum := cw.Sum()
	if _, err := bw.Write(sum[:]); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	return bw.Flush()
}

// WriteFile writes a checkpoint to path.
func WriteFile(path string, header Header, tensors []Tensor) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(file, header, tensors); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
