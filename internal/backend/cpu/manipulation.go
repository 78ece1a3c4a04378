package cpu

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
//
// All inputs must share dtype and all dimensions except dim. Data moves
// as contiguous byte blocks: for each index combination of the leading
// dimensions, every input contributes one block to the output row.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	first := tensors[0]
	firstShape := first.Shape()
	ndim := len(firstShape)
	dim = normalizeDim("cat", dim, ndim)

	outShape := firstShape.Clone()
	for _, t := range tensors[1:] {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: dtype mismatch %s vs %s", first.DType(), t.DType()))
		}
		s := t.Shape()
		if len(s) != ndim {
			panic(fmt.Sprintf("cat: rank mismatch %v vs %v", firstShape, s))
		}
		for d := 0; d < ndim; d++ {
			if d != dim && s[d] != firstShape[d] {
				panic(fmt.Sprintf("cat: shape mismatch at dim %d: %v vs %v", d, firstShape, s))
			}
		}
		outShape[dim] += s[dim]
	}

	result := cpu.newRaw("cat", outShape, first.DType())

	elemSize := first.DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	inner := elemSize
	for d := dim + 1; d < ndim; d++ {
		inner *= outShape[d]
	}

	outRow := outShape[dim] * inner
	dst := result.Data()

	offset := 0
	for _, t := range tensors {
		src := t.Data()
		tRow := t.Shape()[dim] * inner
		for o := 0; o < outer; o++ {
			copy(dst[o*outRow+offset:o*outRow+offset+tRow], src[o*tRow:(o+1)*tRow])
		}
		offset += tRow
	}

	return result
}

// Chunk splits the tensor into n equal parts along the specified dimension.
// The dimension size must be divisible by n.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	dim = normalizeDim("chunk", dim, ndim)

	if n <= 0 {
		panic(fmt.Sprintf("chunk: n must be positive, got %d", n))
	}
	if shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d (size %d) not divisible by %d", dim, shape[dim], n))
	}

	partShape := shape.Clone()
	partShape[dim] = shape[dim] / n

	elemSize := x.DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := elemSize
	for d := dim + 1; d < ndim; d++ {
		inner *= shape[d]
	}

	inRow := shape[dim] * inner
	partRow := partShape[dim] * inner
	src := x.Data()

	parts := make([]*tensor.RawTensor, n)
	for p := 0; p < n; p++ {
		part := cpu.newRaw("chunk", partShape.Clone(), x.DType())
		dst := part.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*partRow:(o+1)*partRow], src[o*inRow+p*partRow:o*inRow+(p+1)*partRow])
		}
		parts[p] = part
	}

	return parts
}

// Unsqueeze adds a dimension of size 1 at the specified position.
// Data layout is unchanged; only the shape differs.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	// dim may equal ndim here: appending a trailing axis is legal.
	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor", dim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return cpu.Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1 at the specified position.
// Panics if the dimension size is not 1.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	dim = normalizeDim("squeeze", dim, ndim)

	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return cpu.Reshape(x, newShape)
}
