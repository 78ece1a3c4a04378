package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/recurrent/internal/parallel"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Tanh computes the element-wise hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat32("tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// Sigmoid computes the element-wise logistic sigmoid 1/(1+e^-x).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat32("sigmoid", x, func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(float64(-v))))
	})
}

// Relu computes the element-wise rectified linear unit max(0, x).
func (cpu *CPUBackend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat32("relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Softmax computes softmax along the specified dimension.
// Softmax(x_i) = exp(x_i - max) / sum(exp(x_j - max)), the max shift
// keeping exp from overflowing for large logits.
//
// Rows (the groups sharing one normalization) are independent and are
// split across cores.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32 supported)", x.DType()))
	}

	shape := x.Shape()
	dim = normalizeDim("softmax", dim, len(shape))

	result := cpu.newRaw("softmax", shape, tensor.Float32)

	src := x.AsFloat32()
	dst := result.AsFloat32()

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	numRows := shape.NumElements() / dimSize

	parallel.For(numRows, func(row int) {
		base := rowBase(row, shape, strides, dim)

		// Find max for numerical stability
		maxVal := float32(math.Inf(-1))
		for i := 0; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > maxVal {
				maxVal = v
			}
		}

		// Exponentiate and accumulate
		sum := float32(0)
		for i := 0; i < dimSize; i++ {
			e := float32(math.Exp(float64(src[base+i*dimStride] - maxVal)))
			dst[base+i*dimStride] = e
			sum += e
		}

		// Normalize
		inv := 1.0 / sum
		for i := 0; i < dimSize; i++ {
			dst[base+i*dimStride] *= inv
		}
	}, cpu.par)

	return result
}

// rowBase computes the flat offset of the row-th slice along dim, where
// rows enumerate all index combinations of the non-reduced dimensions.
func rowBase(row int, shape tensor.Shape, strides []int, dim int) int {
	base := 0
	rem := row
	for d := len(shape) - 1; d >= 0; d-- {
		if d == dim {
			continue
		}
		idx := rem % shape[d]
		rem /= shape[d]
		base += idx * strides[d]
	}
	return base
}
