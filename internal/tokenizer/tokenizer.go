package tokenizer

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size. Every id returned by
	// Encode is in [0, VocabSize).
	VocabSize() int

	// Name returns the tokenizer name (e.g., "cl100k_base").
	Name() string
}
