// Package cpu implements the CPU backend with pure Go kernels.
// Matrix and softmax rows are split across cores via internal/parallel.
package cpu

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/parallel"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Verify that CPUBackend implements the Backend interface.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, addKernels)
}

// Sub performs element-wise subtraction with NumPy-style broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, subKernels)
}

// Mul performs element-wise multiplication with NumPy-style broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, mulKernels)
}

// Div performs element-wise division with NumPy-style broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, divKernels)
}

// binaryOp dispatches an element-wise binary operation.
//
// Fast paths, in order: inplace into a when a is the sole owner of its
// buffer and shapes match exactly; a fresh vectorized loop when shapes
// match; the generic broadcast walk otherwise.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor, k binaryKernels) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			// Inplace into a: safe because no one else holds the buffer.
			k.inplace(a, b)
			return a
		}

		result := cpu.newRaw(name, outShape, a.DType())
		k.vectorized(result, a, b)
		return result
	}

	result := cpu.newRaw(name, outShape, a.DType())
	k.broadcast(result, a, b, outShape)
	return result
}

// Reshape returns a tensor with the same data and a new shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	result := cpu.newRaw("reshape", newShape, t.DType())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes tensor dimensions.
// With no axes, all dimensions are reversed (2D: standard transpose).
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d does not match tensor rank %d", len(axes), ndim))
	}

	newShape := make(tensor.Shape, ndim)
	seen := make([]bool, ndim)
	for i, axis := range axes {
		if axis < 0 || axis >= ndim {
			panic(fmt.Sprintf("transpose: axis %d out of range for %dD tensor", axis, ndim))
		}
		if seen[axis] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", axis))
		}
		seen[axis] = true
		newShape[i] = shape[axis]
	}

	result := cpu.newRaw("transpose", newShape, t.DType())

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	// Walk the source in order, scattering into the permuted layout.
	mapIndex := func(i int) int {
		rem := i
		newIdx := 0
		for d := 0; d < ndim; d++ {
			coord := rem / oldStrides[d]
			rem %= oldStrides[d]
			// Position of source dim d in the permuted order.
			for j, axis := range axes {
				if axis == d {
					newIdx += coord * newStrides[j]
					break
				}
			}
		}
		return newIdx
	}

	switch t.DType() {
	case tensor.Float32:
		src, dst := t.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[mapIndex(i)] = src[i]
		}
	case tensor.Int32:
		src, dst := t.AsInt32(), result.AsInt32()
		for i := range src {
			dst[mapIndex(i)] = src[i]
		}
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

// newRaw allocates a result tensor, panicking with the op name on failure.
func (cpu *CPUBackend) newRaw(name string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}
	return result
}

// normalizeDim resolves negative dims and validates the range.
func normalizeDim(name string, dim, ndim int) int {
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", name, dim, ndim))
	}
	return dim
}
