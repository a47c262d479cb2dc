package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "BRNC"
	FormatVersion   = 1
	FixedHeaderSize = 4 + 4 + 4 + 8 // Magic, version, flags, header size
	ChecksumSize    = 32            // SHA-256
	ValueSize       = 4             // float32
)

// Flags for the .brnc format.
const (
	FlagHasMetadata uint32 = 1 << 0 // Metadata entries present
	FlagHasLoss     uint32 = 1 << 1 // Loss field is meaningful
)

// Header describes a checkpoint.
type Header struct {
	Version   string            // Library version that wrote the file
	CreatedAt time.Time         // When the file was written
	Step      int64             // Training step
	Loss      float32           // Loss at Step (valid if HasLoss)
	HasLoss   bool              // Whether Loss was recorded
	Metadata  map[string]string // Custom metadata (e.g., optimizer name)
	Tensors   []TensorMeta      // Filled in by Write
}

// TensorMeta locates one tensor in the data section.
type TensorMeta struct {
	Name   string // Tensor name (e.g., "dense1.weights")
	Offset int64  // Offset in values from the start of the data section
	Length int64  // Number of values
}

// Tensor is a named slice of float32 values.
type Tensor struct {
	Name   string
	Values []float32
}
