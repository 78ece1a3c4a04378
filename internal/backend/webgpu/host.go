//go:build webgpu

package webgpu

import (
	"github.com/born-ml/recurrent/internal/tensor"
)

// Host-path operations. Shape changes, reductions and index gathers are
// memory-bound: staging them through GPU buffers costs more than the
// arithmetic saves, so they run on the CPU kernels against the tensor's
// host data. Results are restaged as WebGPU tensors so downstream kernels
// see a single device.

// restage copies a host result into a WebGPU-tagged tensor.
func restage(r *tensor.RawTensor) *tensor.RawTensor {
	out, err := tensor.NewRaw(r.Shape(), r.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: restage: " + err.Error())
	}
	copy(out.Data(), r.Data())
	return out
}

// Reshape returns a tensor with a new shape and the same element order.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return restage(b.host.Reshape(t, newShape))
}

// Transpose permutes the tensor's dimensions.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return restage(b.host.Transpose(t, axes...))
}

// Expand broadcasts the tensor to a larger shape.
func (b *Backend) Expand(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return restage(b.host.Expand(x, newShape))
}

// Sum reduces all elements to a scalar tensor.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return restage(b.host.Sum(x))
}

// SumDim sums along one dimension.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return restage(b.host.SumDim(x, dim, keepDim))
}

// MeanDim averages along one dimension.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return restage(b.host.MeanDim(x, dim, keepDim))
}

// Argmax returns the indices of maximum values along dim.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return restage(b.host.Argmax(x, dim))
}

// Cat concatenates tensors along dim.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return restage(b.host.Cat(tensors, dim))
}

// Chunk splits the tensor into n equal parts along dim.
func (b *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	parts := b.host.Chunk(x, n, dim)
	out := make([]*tensor.RawTensor, len(parts))
	for i, p := range parts {
		out[i] = restage(p)
	}
	return out
}

// Unsqueeze inserts a size-1 dimension at dim.
func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return restage(b.host.Unsqueeze(x, dim))
}

// Squeeze removes a size-1 dimension at dim.
func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return restage(b.host.Squeeze(x, dim))
}

// Embedding gathers rows of weight by int32 indices.
func (b *Backend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	return restage(b.host.Embedding(weight, indices))
}
