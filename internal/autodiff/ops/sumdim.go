package ops

import "github.com/born-ml/recurrent/internal/tensor"

// SumDimOp represents a sum along one dimension.
//
// Forward: output = Σ_dim x, with the dimension kept (size 1) or removed
// depending on keepDim.
//
// Backward pass:
//
//	Each element of the reduced slice contributed with weight 1, so the
//	output gradient is broadcast back along the reduced dimension.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int  // Normalized dimension (non-negative)
	keepDim bool // Whether the forward pass kept the reduced dimension
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		input:   input,
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward broadcasts the output gradient back along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		// Restore the reduced dimension at size 1 before broadcasting.
		keptShape := op.input.Shape().Clone()
		keptShape[op.dim] = 1
		grad = backend.Reshape(grad, keptShape)
	}
	gradX := backend.Expand(grad, op.input.Shape())
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}
