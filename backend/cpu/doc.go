// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Int32 support
//   - NumPy-compatible broadcasting
//   - Row-parallel kernels for large tensors
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/recurrent/backend/cpu"
//	    "github.com/born-ml/recurrent/nn"
//	    "github.com/born-ml/recurrent/tensor"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    // Use with neural networks
//	    model := nn.NewLinear(784, 10, backend)
//	}
//
// # Performance
//
// The CPU backend is optimized for training on CPUs:
//   - Efficient matrix multiplication
//   - Contiguous fast paths for same-shape element-wise ops
//   - Worker-pool parallelism over the leading dimension
//
// For GPU acceleration, see the webgpu package (build tag "webgpu").
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
