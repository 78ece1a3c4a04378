package ops

import "github.com/born-ml/recurrent/internal/tensor"

// ReluOp represents the rectified linear unit activation: output = max(0, x).
//
// Backward pass:
//
//	d(relu(x))/dx = 1 if x > 0, else 0
//	grad_x = outputGrad where x > 0, else 0
type ReluOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReluOp creates a new ReluOp.
func NewReluOp(input, output *tensor.RawTensor) *ReluOp {
	return &ReluOp{
		input:  input,
		output: output,
	}
}

// Backward computes the input gradient for relu by masking the output
// gradient at positions where the input was non-positive.
func (op *ReluOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	gradX, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(err)
	}

	inData := op.input.AsFloat32()
	gradData := outputGrad.AsFloat32()
	outData := gradX.AsFloat32()

	for i, v := range inData {
		if v > 0 {
			outData[i] = gradData[i]
		}
	}

	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensor.
func (op *ReluOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ReluOp) Output() *tensor.RawTensor {
	return op.output
}
