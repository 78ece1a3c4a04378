package cpu

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// number constrains the element types the CPU kernels operate on.
type number interface {
	~float32 | ~int32
}

// binaryKernels bundles the three execution strategies of one
// element-wise binary operation: inplace (a receives the result),
// vectorized (same shapes, fresh output), and broadcast.
type binaryKernels struct {
	inplace    func(a, b *tensor.RawTensor)
	vectorized func(result, a, b *tensor.RawTensor)
	broadcast  func(result, a, b *tensor.RawTensor, outShape tensor.Shape)
}

var (
	addKernels = binaryKernels{addInplace, addVectorized, addWithBroadcast}
	subKernels = binaryKernels{subInplace, subVectorized, subWithBroadcast}
	mulKernels = binaryKernels{mulInplace, mulVectorized, mulWithBroadcast}
	divKernels = binaryKernels{divInplace, divVectorized, divWithBroadcast}
)

// Add

func addInplace(a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		addInplaceSlice(a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		addInplaceSlice(a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}
}

func addVectorized(result, a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		addVectorizedSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		addVectorizedSlice(result.AsInt32(), a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}
}

func addWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	switch a.DType() {
	case tensor.Float32:
		addBroadcastSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		addBroadcastSlice(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}
}

// Sub

func subInplace(a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		subInplaceSlice(a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		subInplaceSlice(a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("sub: unsupported dtype %s", a.DType()))
	}
}

func subVectorized(result, a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		subVectorizedSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		subVectorizedSlice(result.AsInt32(), a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("sub: unsupported dtype %s", a.DType()))
	}
}

func subWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	switch a.DType() {
	case tensor.Float32:
		subBroadcastSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		subBroadcastSlice(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("sub: unsupported dtype %s", a.DType()))
	}
}

// Mul

func mulInplace(a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		mulInplaceSlice(a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		mulInplaceSlice(a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("mul: unsupported dtype %s", a.DType()))
	}
}

func mulVectorized(result, a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		mulVectorizedSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		mulVectorizedSlice(result.AsInt32(), a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("mul: unsupported dtype %s", a.DType()))
	}
}

func mulWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	switch a.DType() {
	case tensor.Float32:
		mulBroadcastSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		mulBroadcastSlice(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("mul: unsupported dtype %s", a.DType()))
	}
}

// Div

func divInplace(a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		divInplaceSlice(a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		divInplaceSlice(a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("div: unsupported dtype %s", a.DType()))
	}
}

func divVectorized(result, a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		divVectorizedSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Int32:
		divVectorizedSlice(result.AsInt32(), a.AsInt32(), b.AsInt32())
	default:
		panic(fmt.Sprintf("div: unsupported dtype %s", a.DType()))
	}
}

func divWithBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	switch a.DType() {
	case tensor.Float32:
		divBroadcastSlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		divBroadcastSlice(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("div: unsupported dtype %s", a.DType()))
	}
}

// Generic slice kernels. The loops stay free of function values so the
// compiler can vectorize them.

func addInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] += b[i]
	}
}

func subInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] -= b[i]
	}
}

func mulInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] *= b[i]
	}
}

func divInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] /= b[i]
	}
}

func addVectorizedSlice[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] + b[i]
	}
}

func subVectorizedSlice[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

func mulVectorizedSlice[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] * b[i]
	}
}

func divVectorizedSlice[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] / b[i]
	}
}

func addBroadcastSlice[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] + b[flatIndex(i, outStrides, bStrides)]
	}
}

func subBroadcastSlice[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] - b[flatIndex(i, outStrides, bStrides)]
	}
}

func mulBroadcastSlice[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] * b[flatIndex(i, outStrides, bStrides)]
	}
}

func divBroadcastSlice[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		dst[i] = a[flatIndex(i, outStrides, aStrides)] / b[flatIndex(i, outStrides, bStrides)]
	}
}

// broadcastStrides computes strides for broadcasting inShape to outShape.
// Dimensions of size 1 (and padded leading dimensions) get stride 0, so
// walking the output visits the same source element repeatedly.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim

	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0 || inIdx >= inDim:
			strides[i] = 0 // Padded dimension.
		case inShape[inIdx] == 1:
			strides[i] = 0 // Broadcast dimension.
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// flatIndex maps an output flat index to the source flat index using
// broadcast-adjusted strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}
