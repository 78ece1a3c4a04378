//go:build webgpu

package webgpu

import (
	"github.com/born-ml/recurrent/internal/tensor"
)

// GPU-dispatched operations. Broadcasts are materialized on the host
// first: the element-wise kernels index two equal-length arrays.

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes("add", a, other)
	result, err := b.runBinaryOp("add", addShader, a, other)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes("sub", a, other)
	result, err := b.runBinaryOp("sub", subShader, a, other)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes("mul", a, other)
	result, err := b.runBinaryOp("mul", mulShader, a, other)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on GPU.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes("div", a, other)
	result, err := b.runBinaryOp("div", divShader, a, other)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// alignShapes expands both operands to their common broadcast shape so the
// binary kernels see equal-length arrays. Same-shape inputs pass through.
func (b *Backend) alignShapes(name string, a, other *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor) {
	if a.Shape().Equal(other.Shape()) {
		return a, other
	}

	broadcast, _, err := tensor.BroadcastShapes(a.Shape(), other.Shape())
	if err != nil {
		panic("webgpu: " + name + ": " + err.Error())
	}
	if !a.Shape().Equal(broadcast) {
		a = b.Expand(a, broadcast)
	}
	if !other.Shape().Equal(broadcast) {
		other = b.Expand(other, broadcast)
	}
	return a, other
}

// MatMul performs matrix multiplication on GPU.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// MulScalar multiplies tensor elements by a scalar on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp("scalarMul", scalarMulShader, x, toFloat32(scalar))
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

// AddScalar adds a scalar to tensor elements on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp("scalarAdd", scalarAddShader, x, toFloat32(scalar))
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// toFloat32 converts a scalar argument to float32 for the uniform buffer.
func toFloat32(v any) float32 {
	switch val := v.(type) {
	case float32:
		return val
	case float64:
		return float32(val)
	case int:
		return float32(val)
	case int32:
		return float32(val)
	default:
		panic("webgpu: unsupported scalar type")
	}
}

// Exp computes the element-wise exponential on GPU.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp("exp", expShader, x)
	if err != nil {
		panic("webgpu: Exp: " + err.Error())
	}
	return result
}

// Log computes the element-wise natural logarithm on GPU.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp("log", logShader, x)
	if err != nil {
		panic("webgpu: Log: " + err.Error())
	}
	return result
}

// Sqrt computes the element-wise square root on GPU.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp("sqrt", sqrtShader, x)
	if err != nil {
		panic("webgpu: Sqrt: " + err.Error())
	}
	return result
}

// Tanh applies the tanh activation on GPU.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp("tanh", tanhShader, x)
	if err != nil {
		panic("webgpu: Tanh: " + err.Error())
	}
	return result
}

// Sigmoid applies the sigmoid activation on GPU.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp("sigmoid", sigmoidShader, x)
	if err != nil {
		panic("webgpu: Sigmoid: " + err.Error())
	}
	return result
}

// Relu applies the ReLU activation on GPU.
func (b *Backend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp("relu", reluShader, x)
	if err != nil {
		panic("webgpu: Relu: " + err.Error())
	}
	return result
}

// Softmax applies softmax along dim. The kernel works on 2D rows, so
// higher-rank tensors are flattened to [batch, lastDim] and restored;
// only the last dimension is supported.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim != ndim-1 {
		panic("webgpu: Softmax supports only the last dimension")
	}

	if ndim == 2 {
		result, err := b.runSoftmax2D(x)
		if err != nil {
			panic("webgpu: Softmax: " + err.Error())
		}
		return result
	}

	lastDim := shape[ndim-1]
	batch := x.NumElements() / lastDim

	flat := b.Reshape(x, tensor.Shape{batch, lastDim})
	result, err := b.runSoftmax2D(flat)
	if err != nil {
		panic("webgpu: Softmax: " + err.Error())
	}
	return b.Reshape(result, shape.Clone())
}
