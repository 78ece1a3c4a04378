package ops

import "github.com/born-ml/recurrent/internal/tensor"

// CatOp represents a concatenation along one dimension:
// output = Cat(inputs, dim).
//
// Backward:
//
//	The output gradient is sliced back along dim, one slice per input,
//	each with the input's original extent. This is the exact inverse of
//	the forward copy.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int // Normalized dimension (non-negative)
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{
		inputs: inputs,
		output: output,
		dim:    dim,
	}
}

// Backward slices the output gradient into per-input gradients.
//
// Inputs may have different extents along dim (unlike Chunk), so the
// slicing walks the same contiguous blocks the forward concatenation
// copied, in reverse.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	outShape := outputGrad.Shape()
	ndim := len(outShape)
	elemSize := outputGrad.DType().Size()

	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= outShape[d]
	}
	inner := elemSize
	for d := op.dim + 1; d < ndim; d++ {
		inner *= outShape[d]
	}

	outRow := outShape[op.dim] * inner
	src := outputGrad.Data()

	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, input := range op.inputs {
		grad, err := tensor.NewRaw(input.Shape(), input.DType(), input.Device())
		if err != nil {
			panic(err)
		}
		dst := grad.Data()
		gradRow := input.Shape()[op.dim] * inner
		for o := 0; o < outer; o++ {
			copy(dst[o*gradRow:(o+1)*gradRow], src[o*outRow+offset:o*outRow+offset+gradRow])
		}
		offset += gradRow
		grads[i] = grad
	}

	return grads
}

// Inputs returns the concatenated input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the concatenated output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}
