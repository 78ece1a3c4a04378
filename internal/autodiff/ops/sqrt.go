package ops

import "github.com/born-ml/recurrent/internal/tensor"

// SqrtOp represents the element-wise square root: output = √x.
//
// Backward pass:
//
//	d(√x)/dx = 1/(2√x) = 1/(2*output), so grad_x = outputGrad / (2*output)
type SqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // Cached √x for backward
}

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{
		input:  input,
		output: output,
	}
}

// Backward computes the input gradient for the square root.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	denom := backend.MulScalar(op.output, float32(2))
	gradX := backend.Div(outputGrad, denom)
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *SqrtOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SqrtOp) Output() *tensor.RawTensor {
	return op.output
}
