// Package tokenizer converts text to token ids for sequence models.
//
// Two implementations cover the training corpora this library targets:
//   - Byte: one token per byte (vocab 256), for character-level models
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base) via
//     pkoukk/tiktoken-go, for subword models
//
// Example usage:
//
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := tok.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer
