package tensor

// Extended tensor operations - typed wrappers for backend operations.
//
// This file provides type-safe wrappers at the Tensor[T, B] level for the
// scalar, math, activation, and reduction operations of the Backend
// interface. The recurrent cells are written entirely against these
// wrappers, so they stay device-agnostic.

// ============================================================================
// Scalar Operations
// ============================================================================

// MulScalar multiplies each element of the tensor by a scalar value.
//
// The scalar is broadcast to all elements of the tensor.
//
// Example:
//
//	x := tensor.Randn[float32](Shape{2, 3}, backend)
//	y := x.MulScalar(2.5)  // multiply all elements by 2.5
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	result := t.backend.MulScalar(t.raw, scalar)
	return New[T, B](result, t.backend)
}

// AddScalar adds a scalar value to each element of the tensor.
//
// Example:
//
//	x := tensor.Zeros[float32](Shape{2, 3}, backend)
//	y := x.AddScalar(1.0)  // all elements become 1.0
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	result := t.backend.AddScalar(t.raw, scalar)
	return New[T, B](result, t.backend)
}

// ============================================================================
// Math Operations
// ============================================================================

// Exp computes the element-wise exponential e^x.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	result := t.backend.Exp(t.raw)
	return New[T, B](result, t.backend)
}

// Log computes the element-wise natural logarithm ln(x).
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	result := t.backend.Log(t.raw)
	return New[T, B](result, t.backend)
}

// Sqrt computes the element-wise square root.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	result := t.backend.Sqrt(t.raw)
	return New[T, B](result, t.backend)
}

// ============================================================================
// Activation Functions
// ============================================================================

// Tanh computes the element-wise hyperbolic tangent.
//
// Tanh is the default activation of the basic recurrent cell and the
// candidate activation of LSTM and GRU cells.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] {
	result := t.backend.Tanh(t.raw)
	return New[T, B](result, t.backend)
}

// Sigmoid computes the element-wise logistic sigmoid 1/(1+e^-x).
//
// Gate activations (input, forget, output, update, reset) are sigmoids.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] {
	result := t.backend.Sigmoid(t.raw)
	return New[T, B](result, t.backend)
}

// Relu computes the element-wise rectified linear unit max(0, x).
func (t *Tensor[T, B]) Relu() *Tensor[T, B] {
	result := t.backend.Relu(t.raw)
	return New[T, B](result, t.backend)
}

// Softmax applies the softmax function along the specified dimension.
//
// The output values along the dimension sum to 1.0 and can be
// interpreted as probabilities.
//
// Supports negative dimension indexing (-1 = last dimension).
//
// Example:
//
//	logits := tensor.Randn[float32](Shape{8, 256}, backend)
//	probs := logits.Softmax(-1)  // probabilities over the vocabulary
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	result := t.backend.Softmax(t.raw, dim)
	return New[T, B](result, t.backend)
}

// ============================================================================
// Reduction Operations
// ============================================================================

// Sum computes the sum of all elements, returning a scalar tensor.
//
// Example:
//
//	x := tensor.Randn[float32](Shape{3, 4}, backend)
//	total := x.Sum()  // sum of all 12 elements
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	result := t.backend.Sum(t.raw)
	return New[T, B](result, t.backend)
}

// SumDim sums along the specified dimension.
//
// If keepDim is true, the reduced dimension is kept with size 1;
// otherwise it is removed from the shape.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	result := t.backend.SumDim(t.raw, dim, keepDim)
	return New[T, B](result, t.backend)
}

// MeanDim averages along the specified dimension.
//
// If keepDim is true, the reduced dimension is kept with size 1;
// otherwise it is removed from the shape.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	result := t.backend.MeanDim(t.raw, dim, keepDim)
	return New[T, B](result, t.backend)
}

// Argmax returns the index of the maximum value along the specified dimension.
//
// Returns a tensor of type int32 with the same shape as the input except
// the specified dimension is removed.
//
// Supports negative dimension indexing (-1 = last dimension).
//
// Example:
//
//	logits := tensor.Randn[float32](Shape{3, 256}, backend)
//	tokens := logits.Argmax(-1)  // Shape: [3], greedy token per row
func (t *Tensor[T, B]) Argmax(dim int) *Tensor[int32, B] {
	result := t.backend.Argmax(t.raw, dim)
	return New[int32, B](result, t.backend)
}

// ============================================================================
// Indexing Operations
// ============================================================================

// Embedding looks up rows of the tensor (a [numEmbeddings, embeddingDim]
// weight table) by int32 indices.
//
// The output shape is the indices shape with embeddingDim appended.
//
// Example:
//
//	table := tensor.Randn[float32](Shape{256, 64}, backend)
//	ids, _ := tensor.FromSlice([]int32{7, 3}, Shape{2}, backend)
//	vecs := table.Embedding(ids) // Shape: [2, 64]
func (t *Tensor[T, B]) Embedding(indices *Tensor[int32, B]) *Tensor[T, B] {
	result := t.backend.Embedding(t.raw, indices.raw)
	return New[T, B](result, t.backend)
}

// ============================================================================
// Shape Operations
// ============================================================================

// Expand broadcasts the tensor to a new shape.
//
// The new shape must be compatible with the current shape according to
// NumPy broadcasting rules. Dimensions of size 1 can be broadcast to any size.
//
// Example:
//
//	x := tensor.Randn[float32](Shape{1, 3}, backend)
//	y := x.Expand(Shape{5, 3})  // broadcast to [5, 3]
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	result := t.backend.Expand(t.raw, shape)
	return New[T, B](result, t.backend)
}
