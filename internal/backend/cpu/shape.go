package cpu

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Expand broadcasts the tensor to a new shape without adding data:
// dimensions of size 1 are repeated, missing leading dimensions are
// treated as 1. The target shape must be reachable from the input shape
// under NumPy broadcasting rules.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(x.Shape(), newShape)
	if err != nil {
		panic(fmt.Sprintf("expand: %v", err))
	}
	if !outShape.Equal(newShape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), newShape))
	}

	result := cpu.newRaw("expand", newShape, x.DType())

	outStrides := newShape.ComputeStrides()
	inStrides := broadcastStrides(x.Shape(), newShape)

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i := range dst {
			dst[i] = src[flatIndex(i, outStrides, inStrides)]
		}
	case tensor.Int32:
		src, dst := x.AsInt32(), result.AsInt32()
		for i := range dst {
			dst[i] = src[flatIndex(i, outStrides, inStrides)]
		}
	default:
		panic(fmt.Sprintf("expand: unsupported dtype %s", x.DType()))
	}

	return result
}
