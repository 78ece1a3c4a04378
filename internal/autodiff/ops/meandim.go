package ops

import "github.com/born-ml/recurrent/internal/tensor"

// MeanDimOp represents a mean along one dimension.
//
// Forward: output = (Σ_dim x) / n, where n is the size of the reduced
// dimension.
//
// Backward pass:
//
//	Each element contributed with weight 1/n, so the output gradient is
//	broadcast back along the reduced dimension and scaled by 1/n.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int  // Normalized dimension (non-negative)
	keepDim bool // Whether the forward pass kept the reduced dimension
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{
		input:   input,
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward broadcasts the output gradient back along the reduced dimension
// and divides by the dimension size.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		keptShape := op.input.Shape().Clone()
		keptShape[op.dim] = 1
		grad = backend.Reshape(grad, keptShape)
	}
	gradX := backend.Expand(grad, op.input.Shape())

	n := op.input.Shape()[op.dim]
	gradX = backend.MulScalar(gradX, 1/float32(n))

	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *MeanDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor {
	return op.output
}
