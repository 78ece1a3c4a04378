package ops

import "github.com/born-ml/recurrent/internal/tensor"

// TanhOp represents the hyperbolic tangent activation: output = tanh(x).
//
// Backward pass:
//
//	d(tanh(x))/dx = 1 - tanh²(x) = 1 - output²
//	grad_x = outputGrad * (1 - output²)
//
// Tanh is the candidate activation of basic, LSTM, and GRU cells, so this
// op dominates recurrent tapes together with MatMulOp and SigmoidOp.
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // Cached tanh(x) for backward
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{
		input:  input,
		output: output,
	}
}

// Backward computes the input gradient for tanh.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// 1 - output²
	square := backend.Mul(op.output, op.output)
	ones := onesLike(op.output)
	oneMinusSquare := backend.Sub(ones, square)

	gradX := backend.Mul(outputGrad, oneMinusSquare)
	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *TanhOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *TanhOp) Output() *tensor.RawTensor {
	return op.output
}
