package ops

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// EmbeddingOp represents an embedding lookup operation.
//
// Forward: output[i] = weight[indices[i]]
//
// Backward:
//
//	For each position i, grad_output[i] is scatter-added into
//	grad_weight[indices[i]]. Repeated indices accumulate, so a token that
//	appears several times in a batch collects the sum of its row gradients.
//
// Only the weight table receives a gradient; indices are integers.
type EmbeddingOp struct {
	weight  *tensor.RawTensor // Embedding table [numEmbeddings, embeddingDim]
	indices *tensor.RawTensor // Index tensor (int32)
	output  *tensor.RawTensor // Looked-up embeddings
}

// NewEmbeddingOp creates a new embedding operation.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{
		weight:  weight,
		indices: indices,
		output:  output,
	}
}

// Inputs returns the weight table (the only differentiable input).
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.weight}
}

// Output returns the output tensor.
func (op *EmbeddingOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatter-adds output row gradients into the weight gradient.
func (op *EmbeddingOp) Backward(gradOutput *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	weightShape := op.weight.Shape()
	numEmbeddings := weightShape[0]
	embeddingDim := weightShape[1]

	gradWeight, err := tensor.NewRaw(weightShape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	indicesData := op.indices.AsInt32()
	gradOutputData := gradOutput.AsFloat32()
	gradWeightData := gradWeight.AsFloat32()

	for i, idx := range indicesData {
		if idx < 0 || int(idx) >= numEmbeddings {
			panic(fmt.Sprintf("embedding backward: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}

		srcOffset := i * embeddingDim
		dstOffset := int(idx) * embeddingDim
		for j := 0; j < embeddingDim; j++ {
			gradWeightData[dstOffset+j] += gradOutputData[srcOffset+j]
		}
	}

	return []*tensor.RawTensor{gradWeight}
}
