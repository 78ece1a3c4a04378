package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Element-wise math operations. Float32 only: integer tensors hold token
// ids and class indices, which these functions are meaningless for.

// Exp computes the element-wise exponential e^x.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat32("exp", x, func(v float32) float32 {
		return float32(math.Exp(float64(v)))
	})
}

// Log computes the element-wise natural logarithm ln(x).
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat32("log", x, func(v float32) float32 {
		return float32(math.Log(float64(v)))
	})
}

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat32("sqrt", x, func(v float32) float32 {
		return float32(math.Sqrt(float64(v)))
	})
}

// unaryFloat32 applies op element-wise to a float32 tensor.
func (cpu *CPUBackend) unaryFloat32(name string, x *tensor.RawTensor, op func(float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", name, x.DType()))
	}

	result := cpu.newRaw(name, x.Shape(), tensor.Float32)

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i, v := range src {
		dst[i] = op(v)
	}

	return result
}
