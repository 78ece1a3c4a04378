package tokenizer

// Tokenizer converts between text and token ids.
//
// Implementations must be deterministic: the same text always encodes to
// the same ids, and Decode(Encode(text)) returns the original text.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size. Token ids are in
	// [0, VocabSize).
	VocabSize() int
}
