package tokenizer

import "fmt"

// byteVocabSize covers every possible byte value.
const byteVocabSize = 256

// Byte is a byte-level tokenizer: every byte of the UTF-8 text is one
// token. With only 256 ids it needs no vocabulary files, never sees an
// unknown symbol, and round-trips arbitrary input exactly, which makes it
// the default for character-level corpora.
type Byte struct{}

// NewByte creates a byte-level tokenizer.
func NewByte() *Byte {
	return &Byte{}
}

// Encode converts text to one token per byte.
func (b *Byte) Encode(text string) ([]int32, error) {
	tokens := make([]int32, len(text))
	for i := 0; i < len(text); i++ {
		tokens[i] = int32(text[i])
	}
	return tokens, nil
}

// Decode converts token IDs back to text. IDs outside [0, 255] are an
// error: they cannot have come from Encode.
func (b *Byte) Decode(tokens []int32) (string, error) {
	buf := make([]byte, len(tokens))
	for i, tok := range tokens {
		if tok < 0 || tok >= byteVocabSize {
			return "", fmt.Errorf("token id %d out of byte range [0, %d)", tok, byteVocabSize)
		}
		buf[i] = byte(tok)
	}
	return string(buf), nil
}

// VocabSize returns 256.
func (b *Byte) VocabSize() int {
	return byteVocabSize
}
