package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Sequence models start here: token IDs become continuous embeddings that
// the recurrent stack consumes. The embedding vectors are learnable
// parameters; gradients scatter-add into the rows that were looked up.
//
// Example:
//
//	// Vocabulary of 256 byte values, embedding dimension 64
//	embed := nn.NewEmbedding[B](256, 64, backend)
//
//	indices, _ := tensor.FromSlice([]int32{104, 105}, tensor.Shape{2}, backend)
//	vectors := embed.Forward(indices) // [2, 64]
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int           // Number of embeddings (vocabulary size)
	EmbedDim int           // Embedding dimension (vector size)
}

// NewEmbedding creates a new Embedding layer.
//
// The embedding weights are initialized from a standard normal distribution
// N(0, 1). For other strategies, initialize the weight tensor manually and
// pass it to NewEmbeddingWithWeight.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	weightData := make([]float32, numEmbeddings*embeddingDim)
	for i := range weightData {
		//nolint:gosec // math/rand is appropriate for ML weight initialization
		weightData[i] = float32(rand.NormFloat64())
	}

	weight, err := tensor.FromSlice[float32, B](weightData, tensor.Shape{numEmbeddings, embeddingDim}, backend)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedding weight: %v", err))
	}

	return &Embedding[B]{
		Weight:   NewParameter[B]("embedding.weight", weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// NewEmbeddingWithWeight creates an Embedding layer with pre-initialized
// weights, shape [numEmbeddings, embeddingDim].
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding[B]{
		Weight:   NewParameter[B]("embedding.weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward performs embedding lookup.
//
// Maps each index to its corresponding embedding vector. The operation is
// differentiable; with an autodiff backend, gradients flow back into the
// weight table.
//
// Input: indices of any shape [...], int32, values in [0, NumEmbed).
// Output: [..., EmbedDim].
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// Parameters returns the list of trainable parameters.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
