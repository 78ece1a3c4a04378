// Package tokenizer provides text tokenization for recurrent language models.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for tokenization tasks.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE tokenizers (cl100k_base, p50k_base, r50k_base)
//   - Byte: raw byte vocabulary (256 ids) for character-level corpora
//
// Example usage:
//
//	import "github.com/born-ml/recurrent/tokenizer"
//
//	// Load tiktoken
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := tok.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/born-ml/recurrent/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// Byte is the byte-level tokenizer: every byte is its own token id.
type Byte = tokenizer.Byte

// TikToken wraps an OpenAI BPE encoding.
type TikToken = tokenizer.TikToken

// NewByte creates a byte-level tokenizer with a fixed vocabulary of 256.
//
// It never fails to encode and suits character-level language modeling.
func NewByte() *Byte {
	return tokenizer.NewByte()
}

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base", "r50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}
