// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation records the tensors of one forward-pass step and knows how to
// compute input gradients from the output gradient during the backward pass.
// The forward computation itself is done by the wrapped backend; ops only
// capture what backward needs (inputs, outputs, op-specific attributes).
//
// Gradient rules implemented here:
//   - AddOp/SubOp: gradient passes through (negated for the subtrahend)
//   - MulOp/DivOp: product and quotient rules, reduced over broadcast dims
//   - MatMulOp: d(A@B)/dA = grad@Bᵀ, d(A@B)/dB = Aᵀ@grad
//   - TanhOp/SigmoidOp/ReluOp: pointwise chain rule from the cached output
//   - ChunkOp/CatOp: gradient splitting and concatenation (shape inverses)
//   - EmbeddingOp: scatter-add of row gradients into the weight table
package ops

import "github.com/born-ml/recurrent/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per input tensor, aligned with Inputs().
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// MultiOutputOperation represents an operation that produces multiple outputs,
// such as Chunk. The tape handles these specially by collecting gradients for
// ALL outputs before calling BackwardMulti.
type MultiOutputOperation interface {
	Operation

	// Outputs returns all output tensors produced by this operation.
	Outputs() []*tensor.RawTensor

	// BackwardMulti computes input gradients given gradients for ALL outputs.
	// Used instead of Backward for multi-output operations.
	BackwardMulti(outputGrads []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
