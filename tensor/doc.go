// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for recurrent
// sequence models.
//
// # Overview
//
// Tensors are the fundamental data structure of the toolkit. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy operations where possible
//   - Device abstraction (CPU, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/recurrent/backend/cpu"
//	    "github.com/born-ml/recurrent/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.T())
//	}
//
// # Supported Data Types
//
// The toolkit computes in two data types via the DType constraint:
//   - float32 (weights, activations, gradients)
//   - int32 (token ids, class indices)
//
// Checkpoint files may store tensors as float16, but that is a storage
// encoding handled by the serialization layer, never a compute type.
//
// # Device Support
//
// Tensors can reside on different devices:
//   - CPU: Pure Go implementation, always available
//   - WebGPU: Zero-CGO GPU acceleration (build tag "webgpu")
//
// # Broadcasting
//
// Tensor operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory Management
//
// Tensors use zero-copy operations where possible. The underlying data is
// reference-counted and automatically freed when no longer needed.
//
// # Available Operations
//
// Tensor[T, B] carries the operations a recurrent stack needs:
//
// Element-wise and matrix operations:
//
//	z := x.Add(y)            // Element-wise addition
//	z := x.Mul(y)            // Element-wise multiplication
//	z := x.MatMul(y)         // Matrix multiplication
//
// Scalar and math operations:
//
//	y := x.MulScalar(2.0)    // Multiply by scalar
//	y := x.Exp()             // Exponential
//	y := x.Sqrt()            // Square root
//
// Activations:
//
//	y := x.Tanh()            // Hyperbolic tangent
//	y := x.Sigmoid()         // Logistic sigmoid
//	y := x.Softmax(-1)       // Softmax along dimension
//
// Sequence manipulation:
//
//	steps := x.Chunk(n, 0)   // Split the time dimension
//	y := tensor.Cat(steps, 0)
//	ids := logits.Argmax(1)  // Greedy decode
//
// See method documentation for the full list of operations.
package tensor
