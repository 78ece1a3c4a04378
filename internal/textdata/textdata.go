// Package textdata turns text corpora into next-token prediction batches.
//
// A Dataset is a flat token stream. Batches slices it into [seqLen,
// batchSize] input/target pairs where the target is the input shifted by
// one token. The stream is divided into batchSize contiguous substreams,
// and batch b of stream s picks up exactly where batch b-1 left off, so a
// training loop may carry hidden state across batches.
package textdata

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/recurrent/internal/tensor"
	"github.com/born-ml/recurrent/internal/tokenizer"
)

// minShardBytes is the corpus size below which sharded encoding is not
// worth the goroutine overhead.
const minShardBytes = 64 * 1024

// Dataset is an encoded token stream ready for batching.
type Dataset struct {
	tokens    []int32
	vocabSize int
}

// Batch is one training step's worth of tokens. Input and Target are
// int32 tensors of shape [seqLen, batchSize]; Target[t][s] is the token
// that follows Input[t][s] in stream s.
type Batch struct {
	Input  *tensor.RawTensor
	Target *tensor.RawTensor
}

// FromTokens wraps an already-encoded token stream.
func FromTokens(tokens []int32, vocabSize int) *Dataset {
	return &Dataset{tokens: tokens, vocabSize: vocabSize}
}

// Encode tokenizes a corpus. Large corpora are split into line-aligned
// shards encoded in parallel; the shards are reassembled in order, so the
// result is deterministic for a given corpus and tokenizer.
func Encode(text string, tok tokenizer.Tokenizer) (*Dataset, error) {
	if text == "" {
		return nil, fmt.Errorf("empty corpus")
	}

	shards := splitShards(text, runtime.GOMAXPROCS(0))

	results := make([][]int32, len(shards))
	var g errgroup.Group
	for i, shard := range shards {
		g.Go(func() error {
			encoded, err := tok.Encode(shard)
			if err != nil {
				return fmt.Errorf("encode shard %d: %w", i, err)
			}
			results[i] = encoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	tokens := make([]int32, 0, total)
	for _, r := range results {
		tokens = append(tokens, r...)
	}

	return &Dataset{tokens: tokens, vocabSize: tok.VocabSize()}, nil
}

// LoadFile reads and tokenizes a corpus file.
func LoadFile(path string, tok tokenizer.Tokenizer) (*Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: corpus path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Encode(string(data), tok)
}

// splitShards cuts text into at most n pieces at line boundaries, so
// subword merges never span a shard seam. Text without newlines stays in
// one piece.
func splitShards(text string, n int) []string {
	if n <= 1 || len(text) < minShardBytes {
		return []string{text}
	}

	target := len(text) / n
	var shards []string
	for len(text) > 0 {
		if len(text) <= target {
			shards = append(shards, text)
			break
		}
		cut := strings.IndexByte(text[target:], '\n')
		if cut < 0 {
			shards = append(shards, text)
			break
		}
		end := target + cut + 1
		shards = append(shards, text[:end])
		text = text[end:]
	}
	return shards
}

// Len returns the number of tokens in the stream.
func (d *Dataset) Len() int {
	return len(d.tokens)
}

// VocabSize returns the tokenizer vocabulary size the stream was encoded
// with.
func (d *Dataset) VocabSize() int {
	return d.vocabSize
}

// Tokens returns the underlying token stream. Callers must not modify it.
func (d *Dataset) Tokens() []int32 {
	return d.tokens
}

// Split cuts the stream in two at fraction (e.g. 0.9 for a 90/10
// train/validation split).
func (d *Dataset) Split(fraction float64) (*Dataset, *Dataset) {
	cut := int(float64(len(d.tokens)) * fraction)
	if cut < 0 {
		cut = 0
	}
	if cut > len(d.tokens) {
		cut = len(d.tokens)
	}
	return &Dataset{tokens: d.tokens[:cut], vocabSize: d.vocabSize},
		&Dataset{tokens: d.tokens[cut:], vocabSize: d.vocabSize}
}

// Batches slices the stream into [seqLen, batchSize] input/target pairs.
//
// The stream is divided into batchSize equal contiguous substreams; batch
// b covers tokens [b*seqLen, (b+1)*seqLen) of every substream. Leftover
// tokens that do not fill a whole batch are dropped. The layout is a pure
// function of (stream, seqLen, batchSize).
func (d *Dataset) Batches(seqLen, batchSize int) ([]Batch, error) {
	if seqLen <= 0 || batchSize <= 0 {
		return nil, fmt.Errorf("seqLen and batchSize must be positive, got %d and %d", seqLen, batchSize)
	}

	// One token of lookahead is reserved for the final target.
	usable := len(d.tokens) - 1
	streamLen := usable / batchSize
	numBatches := streamLen / seqLen
	if numBatches == 0 {
		return nil, fmt.Errorf("corpus too small: %d tokens cannot fill one [%d, %d] batch (need %d)",
			len(d.tokens), seqLen, batchSize, seqLen*batchSize+1)
	}

	batches := make([]Batch, 0, numBatches)
	for b := 0; b < numBatches; b++ {
		input, err := tensor.NewRaw(tensor.Shape{seqLen, batchSize}, tensor.Int32, tensor.CPU)
		if err != nil {
			return nil, err
		}
		target, err := tensor.NewRaw(tensor.Shape{seqLen, batchSize}, tensor.Int32, tensor.CPU)
		if err != nil {
			return nil, err
		}

		in := input.AsInt32()
		tgt := target.AsInt32()
		for t := 0; t < seqLen; t++ {
			for s := 0; s < batchSize; s++ {
				pos := s*streamLen + b*seqLen + t
				in[t*batchSize+s] = d.tokens[pos]
				tgt[t*batchSize+s] = d.tokens[pos+1]
			}
		}

		batches = append(batches, Batch{Input: input, Target: target})
	}

	return batches, nil
}
