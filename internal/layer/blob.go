package layer

// Blob is a dense batch of float32 values.
//
// A blob holding batchSize elements of size values each is laid out row-major:
// element i occupies Blob[i*size : (i+1)*size].
type Blob []float32

// NewBlob allocates a zeroed blob for batchSize elements of size values.
func NewBlob(batchSize, size int) Blob {
	return make(Blob, batchSize*size)
}

// Check verifies that the blob holds exactly batchSize elements of size values.
func (b Blob) Check(batchSize, size int) error {
	if len(b) != batchSize*size {
		return &SizeMismatchError{What: "blob length", Want: batchSize * size, Got: len(b)}
	}
	return nil
}

// Row returns the values of batch element i for elements of size values.
// The returned slice aliases the blob.
func (b Blob) Row(i, size int) []float32 {
	return b[i*size : (i+1)*size]
}

// BatchSize returns the number of elements of size values stored in the blob.
func (b Blob) BatchSize(size int) int {
	if size <= 0 {
		return 0
	}
	return len(b) / size
}
