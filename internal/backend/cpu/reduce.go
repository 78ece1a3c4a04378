package cpu

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Sum computes the total sum of all elements, returning a scalar tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sum: unsupported dtype %s (only float32 supported)", x.DType()))
	}

	result := cpu.newRaw("sum", tensor.Shape{}, tensor.Float32)

	sum := float32(0)
	for _, v := range x.AsFloat32() {
		sum += v
	}
	result.AsFloat32()[0] = sum

	return result
}

// SumDim sums tensor elements along the specified dimension.
//
// Parameters:
//   - dim: dimension to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep the reduced dimension with size 1; if false, remove it
//
// Example:
//
//	x := tensor.Randn[float32](tensor.Shape{2, 3, 4}, backend)
//	y := backend.SumDim(x.Raw(), -1, true)  // shape: [2, 3, 1]
//	z := backend.SumDim(x.Raw(), -1, false) // shape: [2, 3]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim computes the mean of tensor elements along the specified dimension.
// Parameters match SumDim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meandim", x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", name, x.DType()))
	}

	shape := x.Shape()
	ndim := len(shape)
	dim = normalizeDim(name, dim, ndim)

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, ndim-1)
		for i := 0; i < ndim; i++ {
			if i != dim {
				outShape = append(outShape, shape[i])
			}
		}
	}

	result := cpu.newRaw(name, outShape, tensor.Float32)

	src := x.AsFloat32()
	dst := result.AsFloat32()

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	numRows := shape.NumElements() / dimSize

	for row := 0; row < numRows; row++ {
		base := rowBase(row, shape, strides, dim)

		sum := float32(0)
		for i := 0; i < dimSize; i++ {
			sum += src[base+i*dimStride]
		}
		if mean {
			sum /= float32(dimSize)
		}
		dst[row] = sum
	}

	return result
}

// Argmax returns the index of the maximum value along the specified
// dimension as an Int32 tensor, with the dimension removed.
//
// Greedy decoding reads the next token straight off this op.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s (only float32 supported)", x.DType()))
	}

	shape := x.Shape()
	ndim := len(shape)
	dim = normalizeDim("argmax", dim, ndim)

	outShape := make(tensor.Shape, 0, ndim-1)
	for i := 0; i < ndim; i++ {
		if i != dim {
			outShape = append(outShape, shape[i])
		}
	}

	result := cpu.newRaw("argmax", outShape, tensor.Int32)

	src := x.AsFloat32()
	dst := result.AsInt32()

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	numRows := shape.NumElements() / dimSize

	for row := 0; row < numRows; row++ {
		base := rowBase(row, shape, strides, dim)

		best := 0
		bestVal := src[base]
		for i := 1; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > bestVal {
				bestVal = v
				best = i
			}
		}
		dst[row] = int32(best) //nolint:gosec // G115: dimension sizes fit int32
	}

	return result
}
