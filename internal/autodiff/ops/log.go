package ops

import "github.com/born-ml/recurrent/internal/tensor"

// LogOp represents the element-wise natural logarithm: output = log(x).
//
// Backward pass:
//
//	d(log(x))/dx = 1/x, so grad_x = outputGrad / x
//
// Input values must be positive for the forward pass to be defined.
type LogOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewLogOp creates a new LogOp.
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{
		input:  input,
		output: output,
	}
}

// Backward computes the input gradient for the logarithm.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradX := backend.Div(outputGrad, op.input)
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *LogOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *LogOp) Output() *tensor.RawTensor {
	return op.output
}
