package ops

import "github.com/born-ml/recurrent/internal/tensor"

// SoftmaxOp represents the softmax operation along a dimension.
//
// Forward (per slice along dim):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// Backward:
//
//	The Jacobian of softmax is ∂s_i/∂x_j = s_i * (δ_ij - s_j), which
//	collapses under the chain rule to:
//
//	grad_x = s * (outputGrad - Σ_dim(outputGrad * s))
//
// The inner sum keeps the reduced dimension so it broadcasts back over
// the slice, which makes the formula valid for any rank and dimension.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // Cached softmax output for backward
	dim    int               // Normalized dimension (non-negative)
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{
		input:  input,
		output: output,
		dim:    dim,
	}
}

// Backward computes the input gradient for softmax.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := op.output

	// Σ_dim(outputGrad * s), kept at size 1 along dim for broadcasting.
	weighted := backend.Mul(outputGrad, s)
	dot := backend.SumDim(weighted, op.dim, true)

	// s * (outputGrad - dot)
	centered := backend.Sub(outputGrad, dot)
	gradX := backend.Mul(s, centered)

	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SoftmaxOp) Output() *tensor.RawTensor {
	return op.output
}
