package ops

import "github.com/born-ml/recurrent/internal/tensor"

// SigmoidOp represents the logistic sigmoid activation: output = σ(x).
//
// Backward pass:
//
//	d(σ(x))/dx = σ(x) * (1 - σ(x)) = output * (1 - output)
//	grad_x = outputGrad * output * (1 - output)
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // Cached σ(x) for backward
}

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{
		input:  input,
		output: output,
	}
}

// Backward computes the input gradient for sigmoid.
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// output * (1 - output)
	ones := onesLike(op.output)
	oneMinus := backend.Sub(ones, op.output)
	deriv := backend.Mul(op.output, oneMinus)

	gradX := backend.Mul(outputGrad, deriv)
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *SigmoidOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SigmoidOp) Output() *tensor.RawTensor {
	return op.output
}
