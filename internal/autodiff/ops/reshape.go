package ops

import "github.com/born-ml/recurrent/internal/tensor"

// ReshapeOp represents a shape change that preserves element order:
// Reshape, Unsqueeze, and Squeeze all record this op.
//
// Backward pass:
//
//	Reshaping is a bijection on elements, so the gradient is simply
//	reshaped back to the input shape.
//
// Recording matters: the backend may return a new tensor, and without the
// op on tape a gradient computed for the reshaped tensor would never reach
// the original parameter. Bias terms reshaped for broadcasting are the
// typical case.
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{
		input:  input,
		output: output,
	}
}

// Backward reshapes the output gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradX := backend.Reshape(outputGrad, op.input.Shape())
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor {
	return op.output
}
