package ops

import "github.com/born-ml/recurrent/internal/tensor"

// TransposeOp represents a dimension permutation: output = transpose(x, axes).
//
// Backward pass:
//
//	The gradient is transposed with the inverse permutation.
//
// Recording matters even though transpose is conceptually a view: the
// backend copies data, so the output is a distinct tensor. A linear layer
// computes x @ Wᵀ; without this op the weight gradient would attach to the
// transposed copy instead of the parameter itself.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int // Permutation applied in the forward pass
}

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{
		input:  input,
		output: output,
		axes:   axes,
	}
}

// Backward applies the inverse permutation to the output gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, axis := range op.axes {
		inverse[axis] = i
	}
	gradX := backend.Transpose(outputGrad, inverse...)
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}
