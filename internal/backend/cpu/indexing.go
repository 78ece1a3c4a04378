package cpu

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Embedding looks up rows of a [numEmbeddings, embeddingDim] float32
// weight table by int32 indices. The output shape is the indices shape
// with embeddingDim appended: token ids [seq, batch] become vectors
// [seq, batch, embeddingDim].
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}
	if weight.DType() != tensor.Float32 {
		panic(fmt.Sprintf("embedding: weight must be float32, got %s", weight.DType()))
	}

	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", weightShape))
	}

	numEmbeddings := weightShape[0]
	embeddingDim := weightShape[1]

	indicesShape := indices.Shape()
	outputShape := make(tensor.Shape, len(indicesShape)+1)
	copy(outputShape, indicesShape)
	outputShape[len(outputShape)-1] = embeddingDim

	result := cpu.newRaw("embedding", outputShape, tensor.Float32)

	w := weight.AsFloat32()
	dst := result.AsFloat32()

	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}
		srcOffset := int(idx) * embeddingDim
		dstOffset := i * embeddingDim
		copy(dst[dstOffset:dstOffset+embeddingDim], w[srcOffset:srcOffset+embeddingDim])
	}

	return result
}
