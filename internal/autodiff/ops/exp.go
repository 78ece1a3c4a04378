package ops

import "github.com/born-ml/recurrent/internal/tensor"

// ExpOp represents the element-wise exponential: output = exp(x).
//
// Backward pass:
//
//	d(exp(x))/dx = exp(x) = output, so grad_x = outputGrad * output
//
// The cached output makes the backward pass a single multiplication.
type ExpOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // Cached exp(x) for backward
}

// NewExpOp creates a new ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{
		input:  input,
		output: output,
	}
}

// Backward computes the input gradient for the exponential.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradX := backend.Mul(outputGrad, op.output)
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *ExpOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ExpOp) Output() *tensor.RawTensor {
	return op.output
}
