package ops

import "github.com/born-ml/recurrent/internal/tensor"

// ChunkOp represents a chunk operation that splits a tensor into n equal
// parts along one dimension.
//
// Forward: outputs = Chunk(input, n, dim)
//
// Backward:
//
//	Concatenate all output gradients back together along dim:
//	gradInput = Cat([gradOutput_1, ..., gradOutput_n], dim)
//
// Unrolling splits the [seq, batch, features] input into per-timestep
// slices through this op, and gated cells split fused projections into
// per-gate blocks, so recurrent tapes hit the multi-output path on every
// step.
type ChunkOp struct {
	input   *tensor.RawTensor   // Tensor that was chunked
	n       int                 // Number of chunks
	dim     int                 // Normalized dimension (non-negative)
	outputs []*tensor.RawTensor // Output chunk tensors
}

// NewChunkOp creates a new chunk operation.
func NewChunkOp(input *tensor.RawTensor, n, dim int, outputs []*tensor.RawTensor) *ChunkOp {
	return &ChunkOp{
		input:   input,
		n:       n,
		dim:     dim,
		outputs: outputs,
	}
}

// Inputs returns the input tensor.
func (op *ChunkOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the first output tensor. The tape detects the
// MultiOutputOperation interface and never relies on this alone.
func (op *ChunkOp) Output() *tensor.RawTensor {
	return op.outputs[0]
}

// Outputs returns all output tensors (implements MultiOutputOperation).
func (op *ChunkOp) Outputs() []*tensor.RawTensor {
	return op.outputs
}

// Backward panics: chunk gradients need all output gradients at once.
// The tape routes multi-output operations through BackwardMulti.
func (op *ChunkOp) Backward(_ *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	panic("ChunkOp.Backward: multi-output operations require BackwardMulti")
}

// BackwardMulti concatenates the output gradients back into the input shape.
func (op *ChunkOp) BackwardMulti(gradOutputs []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(gradOutputs) != op.n {
		panic("ChunkOp.BackwardMulti: expected n gradients for n outputs")
	}

	gradInput := backend.Cat(gradOutputs, op.dim)

	return []*tensor.RawTensor{gradInput}
}
