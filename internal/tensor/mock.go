package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements all operations naively for correctness verification.
// Real workloads use the cpu or webgpu backends; the mock exists so the
// tensor package can test itself without importing a backend package.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// MatMul performs 2D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul only supports 2D tensors in mock backend")
	}

	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}

	M, K := aShape[0], aShape[1]
	N := bShape[1]

	result := m.newRaw(Shape{M, N}, a.DType())

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := make([]float64, M*N)

	// Naive matrix multiplication
	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			sum := 0.0
			for k := 0; k < K; k++ {
				sum += aData[i*K+k] * bData[k*N+j]
			}
			resultData[i*N+j] = sum
		}
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Reshape changes tensor shape.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}

	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cannot reshape tensor with %d elements to shape %v (%d elements)",
			t.NumElements(), newShape, newShape.NumElements()))
	}

	result := m.newRaw(newShape, t.DType())
	copy(result.Data(), t.Data())
	return result
}

// Transpose transposes tensor dimensions.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()

	// Default: reverse all dimensions
	if len(axes) == 0 {
		axes = make([]int, len(shape))
		for i := range axes {
			axes[i] = len(shape) - 1 - i
		}
	}

	if len(axes) != len(shape) {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), len(shape)))
	}

	newShape := make(Shape, len(shape))
	for i, axis := range axes {
		if axis < 0 || axis >= len(shape) {
			panic(fmt.Sprintf("axis %d out of bounds for tensor with %d dimensions", axis, len(shape)))
		}
		newShape[i] = shape[axis]
	}

	result := m.newRaw(newShape, t.DType())

	tData := m.toFloat64Slice(t)
	resultData := make([]float64, t.NumElements())

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for i := 0; i < t.NumElements(); i++ {
		indices := make([]int, len(shape))
		temp := i
		for j := 0; j < len(shape); j++ {
			indices[j] = temp / oldStrides[j]
			temp %= oldStrides[j]
		}

		newIdx := 0
		for j, axis := range axes {
			newIdx += indices[axis] * newStrides[j]
		}

		resultData[newIdx] = tData[i]
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Expand broadcasts the tensor to a new shape.
func (m *MockBackend) Expand(x *RawTensor, shape Shape) *RawTensor {
	outShape, _, err := BroadcastShapes(x.Shape(), shape)
	if err != nil {
		panic(fmt.Sprintf("expand: %v", err))
	}
	if !outShape.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), shape))
	}

	result := m.newRaw(shape, x.DType())

	xData := m.toFloat64Slice(x)
	resultData := make([]float64, shape.NumElements())

	for i := range resultData {
		resultData[i] = xData[m.broadcastIndex(i, shape, x.Shape())]
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// MulScalar multiplies each element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v * s })
}

// AddScalar adds a scalar to each element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v + s })
}

// Exp computes the element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unary(x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unary(x, math.Log)
}

// Sqrt computes the element-wise square root.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.unary(x, math.Sqrt)
}

// Tanh computes the element-wise hyperbolic tangent.
func (m *MockBackend) Tanh(x *RawTensor) *RawTensor {
	return m.unary(x, math.Tanh)
}

// Sigmoid computes the element-wise logistic sigmoid.
func (m *MockBackend) Sigmoid(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return 1.0 / (1.0 + math.Exp(-v)) })
}

// Relu computes the element-wise rectified linear unit.
func (m *MockBackend) Relu(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return math.Max(0, v) })
}

// Softmax applies softmax along the given dimension.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	result := m.newRaw(shape.Clone(), x.DType())

	xData := m.toFloat64Slice(x)
	resultData := make([]float64, len(xData))

	// Iterate over all slices along dim
	dimSize := shape[dim]
	strides := shape.ComputeStrides()
	outer := shape.NumElements() / dimSize

	for o := 0; o < outer; o++ {
		// Compute base offset of this slice
		base := 0
		rem := o
		for d := len(shape) - 1; d >= 0; d-- {
			if d == dim {
				continue
			}
			idx := rem % shape[d]
			rem /= shape[d]
			base += idx * strides[d]
		}

		// Numerically stable softmax: subtract max
		maxVal := math.Inf(-1)
		for i := 0; i < dimSize; i++ {
			v := xData[base+i*strides[dim]]
			if v > maxVal {
				maxVal = v
			}
		}
		sum := 0.0
		for i := 0; i < dimSize; i++ {
			e := math.Exp(xData[base+i*strides[dim]] - maxVal)
			resultData[base+i*strides[dim]] = e
			sum += e
		}
		for i := 0; i < dimSize; i++ {
			resultData[base+i*strides[dim]] /= sum
		}
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Sum reduces all elements to a scalar.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result := m.newRaw(Shape{}, x.DType())

	sum := 0.0
	for _, v := range m.toFloat64Slice(x) {
		sum += v
	}

	m.fromFloat64Slice([]float64{sum}, result)
	return result
}

// SumDim sums along the given dimension.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along the given dimension.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, true)
}

// Argmax returns int32 indices of maxima along dim, with dim removed.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	outShape := make(Shape, 0, len(shape)-1)
	for d, size := range shape {
		if d != dim {
			outShape = append(outShape, size)
		}
	}

	result := m.newRaw(outShape, Int32)

	xData := m.toFloat64Slice(x)
	out := result.AsInt32()

	dimSize := shape[dim]
	strides := shape.ComputeStrides()
	outer := shape.NumElements() / dimSize

	for o := 0; o < outer; o++ {
		base := 0
		rem := o
		for d := len(shape) - 1; d >= 0; d-- {
			if d == dim {
				continue
			}
			idx := rem % shape[d]
			rem /= shape[d]
			base += idx * strides[d]
		}

		best := 0
		bestVal := xData[base]
		for i := 1; i < dimSize; i++ {
			if v := xData[base+i*strides[dim]]; v > bestVal {
				bestVal = v
				best = i
			}
		}
		out[o] = int32(best) //nolint:gosec // G115: dimension sizes fit int32
	}

	return result
}

// Cat concatenates tensors along dim.
func (m *MockBackend) Cat(tensors []*RawTensor, dim int) *RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	first := tensors[0].Shape()
	dim = normalizeDim(dim, len(first))

	outShape := first.Clone()
	for _, t := range tensors[1:] {
		s := t.Shape()
		if len(s) != len(first) {
			panic(fmt.Sprintf("cat: rank mismatch %v vs %v", first, s))
		}
		for d := range s {
			if d != dim && s[d] != first[d] {
				panic(fmt.Sprintf("cat: shape mismatch at dim %d: %v vs %v", d, first, s))
			}
		}
		outShape[dim] += s[dim]
	}

	result := m.newRaw(outShape, tensors[0].DType())
	resultData := make([]float64, outShape.NumElements())

	// Copy block by block: outer runs over dims before dim,
	// each tensor contributes a contiguous inner block per outer index.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	inner := 1
	for d := dim + 1; d < len(outShape); d++ {
		inner *= outShape[d]
	}

	outRow := outShape[dim] * inner
	offset := 0
	for _, t := range tensors {
		tData := m.toFloat64Slice(t)
		tRow := t.Shape()[dim] * inner
		for o := 0; o < outer; o++ {
			copy(resultData[o*outRow+offset:o*outRow+offset+tRow], tData[o*tRow:(o+1)*tRow])
		}
		offset += tRow
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// Chunk splits x into n equal parts along dim.
func (m *MockBackend) Chunk(x *RawTensor, n, dim int) []*RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	if shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d (size %d) not divisible by %d", dim, shape[dim], n))
	}

	partShape := shape.Clone()
	partShape[dim] = shape[dim] / n

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	xData := m.toFloat64Slice(x)
	inRow := shape[dim] * inner
	partRow := partShape[dim] * inner

	parts := make([]*RawTensor, n)
	for p := 0; p < n; p++ {
		part := m.newRaw(partShape.Clone(), x.DType())
		partData := make([]float64, partShape.NumElements())
		for o := 0; o < outer; o++ {
			copy(partData[o*partRow:(o+1)*partRow], xData[o*inRow+p*partRow:o*inRow+(p+1)*partRow])
		}
		m.fromFloat64Slice(partData, part)
		parts[p] = part
	}

	return parts
}

// Unsqueeze adds a dimension of size 1.
func (m *MockBackend) Unsqueeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("unsqueeze: invalid dim %d for %dD tensor", dim, len(shape)))
	}

	newShape := make(Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return m.Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1.
func (m *MockBackend) Squeeze(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}

	newShape := make(Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return m.Reshape(x, newShape)
}

// Embedding looks up rows of weight by int32 indices.
// Output shape is indices.Shape() + [embeddingDim].
func (m *MockBackend) Embedding(weight, indices *RawTensor) *RawTensor {
	if indices.DType() != Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	weightShape := weight.Shape()
	if len(weightShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got shape %v", weightShape))
	}

	numEmbeddings := weightShape[0]
	embeddingDim := weightShape[1]

	indicesShape := indices.Shape()
	outputShape := make(Shape, len(indicesShape)+1)
	copy(outputShape, indicesShape)
	outputShape[len(outputShape)-1] = embeddingDim

	result := m.newRaw(outputShape, weight.DType())

	w := weight.AsFloat32()
	out := result.AsFloat32()
	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of bounds [0, %d)", idx, numEmbeddings))
		}
		copy(out[i*embeddingDim:(i+1)*embeddingDim], w[int(idx)*embeddingDim:(int(idx)+1)*embeddingDim])
	}

	return result
}

// Helper functions

func (m *MockBackend) newRaw(shape Shape, dtype DataType) *RawTensor {
	result, err := NewRaw(shape, dtype, m.Device())
	if err != nil {
		panic(err)
	}
	return result
}

// unary applies op element-wise, computing in float64 for simplicity.
func (m *MockBackend) unary(x *RawTensor, op func(float64) float64) *RawTensor {
	result := m.newRaw(x.Shape().Clone(), x.DType())

	xData := m.toFloat64Slice(x)
	resultData := make([]float64, len(xData))
	for i, v := range xData {
		resultData[i] = op(v)
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// elementWise performs element-wise operations with broadcasting.
func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result := m.newRaw(outShape, a.DType())

	numElements := outShape.NumElements()

	// Convert to float64 for generic processing
	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	resultData := make([]float64, numElements)

	for i := 0; i < numElements; i++ {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())

		resultData[i] = op(aData[aIdx], bData[bIdx])
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

// reduceDim reduces along dim by sum or mean.
func (m *MockBackend) reduceDim(x *RawTensor, dim int, keepDim, mean bool) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	outShape := make(Shape, 0, len(shape))
	for d, size := range shape {
		switch {
		case d != dim:
			outShape = append(outShape, size)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	result := m.newRaw(outShape, x.DType())

	xData := m.toFloat64Slice(x)

	dimSize := shape[dim]
	strides := shape.ComputeStrides()
	outer := shape.NumElements() / dimSize
	resultData := make([]float64, outer)

	for o := 0; o < outer; o++ {
		base := 0
		rem := o
		for d := len(shape) - 1; d >= 0; d-- {
			if d == dim {
				continue
			}
			idx := rem % shape[d]
			rem /= shape[d]
			base += idx * strides[d]
		}

		sum := 0.0
		for i := 0; i < dimSize; i++ {
			sum += xData[base+i*strides[dim]]
		}
		if mean {
			sum /= float64(dimSize)
		}
		resultData[o] = sum
	}

	m.fromFloat64Slice(resultData, result)
	return result
}

func (m *MockBackend) toFloat64Slice(t *RawTensor) []float64 {
	switch t.DType() {
	case Float32:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Int32:
		src := t.AsInt32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
}

func (m *MockBackend) fromFloat64Slice(src []float64, t *RawTensor) {
	switch t.DType() {
	case Float32:
		dst := t.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case Int32:
		dst := t.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	}
}

func (m *MockBackend) broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	// Convert flat index to multi-dimensional indices in output shape
	outStrides := outShape.ComputeStrides()
	indices := make([]int, len(outShape))

	temp := flatIdx
	for i := 0; i < len(outShape); i++ {
		indices[i] = temp / outStrides[i]
		temp %= outStrides[i]
	}

	// Map to input shape (accounting for broadcasting)
	inStrides := inShape.ComputeStrides()
	inIdx := 0

	offset := len(outShape) - len(inShape)
	for i := 0; i < len(inShape); i++ {
		outDimIdx := indices[offset+i]

		// If input dimension is 1, always use index 0 (broadcasting)
		if inShape[i] == 1 {
			outDimIdx = 0
		}

		inIdx += outDimIdx * inStrides[i]
	}

	return inIdx
}

// normalizeDim resolves negative dimension indices and bounds-checks.
func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("invalid dim %d for %dD tensor", dim, ndim))
	}
	return dim
}

// scalarToFloat64 converts a scalar of any supported type to float64.
func scalarToFloat64(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}
