package ops

import "github.com/born-ml/recurrent/internal/tensor"

// ExpandOp represents an explicit broadcast: output = expand(x, shape).
//
// Backward pass:
//
//	Broadcasting replicates elements, so the gradient sums back over the
//	replicated dimensions down to the input shape.
type ExpandOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(input, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{
		input:  input,
		output: output,
	}
}

// Backward reduces the output gradient over the broadcast dimensions.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradX := reduceBroadcast(outputGrad, op.input.Shape(), backend)
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *ExpandOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ExpandOp) Output() *tensor.RawTensor {
	return op.output
}
