package cpu

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.

// MulScalar multiplies each element of the tensor by a scalar value.
//
// The inverted-dropout rescale (mask / keepProb at mask creation, or
// equivalently output * 1/keepProb) and learning-rate scaling both come
// through here.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newRaw("mulscalar", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		s := toFloat32("mulscalar", scalar)
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = v * s
		}
	case tensor.Int32:
		s := toInt32("mulscalar", scalar)
		src, dst := x.AsInt32(), result.AsInt32()
		for i, v := range src {
			dst[i] = v * s
		}
	default:
		panic(fmt.Sprintf("mulscalar: unsupported dtype %s", x.DType()))
	}

	return result
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := cpu.newRaw("addscalar", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		s := toFloat32("addscalar", scalar)
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = v + s
		}
	case tensor.Int32:
		s := toInt32("addscalar", scalar)
		src, dst := x.AsInt32(), result.AsInt32()
		for i, v := range src {
			dst[i] = v + s
		}
	default:
		panic(fmt.Sprintf("addscalar: unsupported dtype %s", x.DType()))
	}

	return result
}

// toFloat32 coerces a scalar argument for a float32 tensor.
func toFloat32(name string, scalar any) float32 {
	switch s := scalar.(type) {
	case float32:
		return s
	case float64:
		return float32(s)
	case int:
		return float32(s)
	default:
		panic(fmt.Sprintf("%s: scalar type %T not usable with float32 tensor", name, scalar))
	}
}

// toInt32 coerces a scalar argument for an int32 tensor.
func toInt32(name string, scalar any) int32 {
	switch s := scalar.(type) {
	case int32:
		return s
	case int:
		return int32(s) //nolint:gosec // G115: caller passes small constants
	default:
		panic(fmt.Sprintf("%s: scalar type %T not usable with int32 tensor", name, scalar))
	}
}
