//go:build webgpu

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/born-ml/recurrent/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// getPipeline returns a cached compute pipeline for the named kernel,
// compiling the WGSL source on first use.
func (b *Backend) getPipeline(name, source string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, ok := b.pipelines[name]; ok {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if pipeline, ok := b.pipelines[name]; ok {
		return pipeline
	}

	shader := b.device.CreateShaderModuleWGSL(source)
	b.shaders[name] = shader

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")
	b.pipelines[name] = pipeline
	return pipeline
}

// storageBuffer creates a storage buffer initialized with data.
func (b *Backend) storageBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()

	return buffer
}

// emptyStorageBuffer creates an uninitialized storage buffer for results.
func (b *Backend) emptyStorageBuffer(size uint64) *wgpu.Buffer {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
}

// uniformBuffer creates a uniform buffer from data, padded to the 16-byte
// alignment uniform bindings require.
func (b *Backend) uniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), alignedSize), data)
	buffer.Unmap()

	return buffer
}

// packParams encodes uniform parameter words as little-endian bytes,
// padded to 16 bytes. Float parameters travel as their bit patterns.
func packParams(words ...uint32) []byte {
	size := 4 * len(words)
	if size < 16 {
		size = 16
	}
	size = (size + 15) &^ 15

	buf := make([]byte, size)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

// binding pairs a buffer with its bound size.
type binding struct {
	buf  *wgpu.Buffer
	size uint64
}

// dispatch binds the buffers in order starting at binding 0, runs one
// compute pass of the named kernel and submits it to the queue.
func (b *Backend) dispatch(name, source string, bindings []binding, groupsX, groupsY uint32) {
	pipeline := b.getPipeline(name, source)

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, bind := range bindings {
		//nolint:gosec // G115: binding indices are small
		entries[i] = wgpu.BufferBindingEntry(uint32(i), bind.buf, 0, bind.size)
	}

	layout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(layout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	pass.End()

	b.queue.Submit(encoder.Finish(nil))
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers cannot be mapped directly.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	staging.Unmap()

	return result, nil
}

// groups1D returns the 1D workgroup count covering n elements.
func groups1D(n int) uint32 {
	//nolint:gosec // G115: element counts are non-negative
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

// runBinaryOp executes an element-wise kernel over two same-shape float32
// tensors and reads the result back.
func (b *Backend) runBinaryOp(name, source string, a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", a.DType())
	}
	if !a.Shape().Equal(other.Shape()) {
		return nil, fmt.Errorf("webgpu: shape mismatch: %v vs %v", a.Shape(), other.Shape())
	}

	//nolint:gosec // G115: ByteSize is non-negative
	size := uint64(a.ByteSize())

	bufA := b.storageBuffer(a.Data())
	defer bufA.Release()
	bufOther := b.storageBuffer(other.Data())
	defer bufOther.Release()
	bufResult := b.emptyStorageBuffer(size)
	defer bufResult.Release()
	//nolint:gosec // G115: NumElements is non-negative
	bufParams := b.uniformBuffer(packParams(uint32(a.NumElements())))
	defer bufParams.Release()

	b.dispatch(name, source, []binding{
		{bufA, size},
		{bufOther, size},
		{bufResult, size},
		{bufParams, 16},
	}, groups1D(a.NumElements()), 1)

	return b.readInto(bufResult, size, a.Shape())
}

// runUnaryOp executes an element-wise kernel over one float32 tensor.
func (b *Backend) runUnaryOp(name, source string, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", x.DType())
	}

	//nolint:gosec // G115: ByteSize is non-negative
	size := uint64(x.ByteSize())

	bufInput := b.storageBuffer(x.Data())
	defer bufInput.Release()
	bufResult := b.emptyStorageBuffer(size)
	defer bufResult.Release()
	//nolint:gosec // G115: NumElements is non-negative
	bufParams := b.uniformBuffer(packParams(uint32(x.NumElements())))
	defer bufParams.Release()

	b.dispatch(name, source, []binding{
		{bufInput, size},
		{bufResult, size},
		{bufParams, 16},
	}, groups1D(x.NumElements()), 1)

	return b.readInto(bufResult, size, x.Shape())
}

// runScalarOp executes an element-wise kernel over one float32 tensor and
// a uniform scalar.
func (b *Backend) runScalarOp(name, source string, x *tensor.RawTensor, scalar float32) (*tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", x.DType())
	}

	//nolint:gosec // G115: ByteSize is non-negative
	size := uint64(x.ByteSize())

	bufInput := b.storageBuffer(x.Data())
	defer bufInput.Release()
	bufResult := b.emptyStorageBuffer(size)
	defer bufResult.Release()
	//nolint:gosec // G115: NumElements is non-negative
	bufParams := b.uniformBuffer(packParams(uint32(x.NumElements()), math.Float32bits(scalar)))
	defer bufParams.Release()

	b.dispatch(name, source, []binding{
		{bufInput, size},
		{bufResult, size},
		{bufParams, 16},
	}, groups1D(x.NumElements()), 1)

	return b.readInto(bufResult, size, x.Shape())
}

// runMatMul executes C = A @ B on GPU. A is [M, K], B is [K, N].
func (b *Backend) runMatMul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", a.DType())
	}
	if len(a.Shape()) != 2 || len(other.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: matmul requires 2D tensors, got %v and %v", a.Shape(), other.Shape())
	}

	m, k := a.Shape()[0], a.Shape()[1]
	n := other.Shape()[1]
	if other.Shape()[0] != k {
		return nil, fmt.Errorf("webgpu: matmul shape mismatch: %v @ %v", a.Shape(), other.Shape())
	}

	//nolint:gosec // G115: sizes derived from validated shapes
	aSize, otherSize := uint64(a.ByteSize()), uint64(other.ByteSize())
	resultSize := uint64(m) * uint64(n) * 4 //nolint:gosec // G115: dims are positive

	bufA := b.storageBuffer(a.Data())
	defer bufA.Release()
	bufOther := b.storageBuffer(other.Data())
	defer bufOther.Release()
	bufResult := b.emptyStorageBuffer(resultSize)
	defer bufResult.Release()
	//nolint:gosec // G115: dims are positive
	bufParams := b.uniformBuffer(packParams(uint32(m), uint32(k), uint32(n)))
	defer bufParams.Release()

	// 16x16 threads per workgroup, one thread per output element.
	//nolint:gosec // G115: dims are positive
	groupsX, groupsY := uint32((n+15)/16), uint32((m+15)/16)

	b.dispatch("matmul", matmulShader, []binding{
		{bufA, aSize},
		{bufOther, otherSize},
		{bufResult, resultSize},
		{bufParams, 16},
	}, groupsX, groupsY)

	return b.readInto(bufResult, resultSize, tensor.Shape{m, n})
}

// runSoftmax2D executes row-wise softmax on a 2D float32 tensor.
func (b *Backend) runSoftmax2D(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", x.DType())
	}
	if len(x.Shape()) != 2 {
		return nil, fmt.Errorf("webgpu: softmax kernel requires a 2D tensor, got %v", x.Shape())
	}

	rows, cols := x.Shape()[0], x.Shape()[1]
	//nolint:gosec // G115: ByteSize is non-negative
	size := uint64(x.ByteSize())

	bufInput := b.storageBuffer(x.Data())
	defer bufInput.Release()
	bufResult := b.emptyStorageBuffer(size)
	defer bufResult.Release()
	//nolint:gosec // G115: dims are positive
	bufParams := b.uniformBuffer(packParams(uint32(rows), uint32(cols)))
	defer bufParams.Release()

	// One thread per row.
	b.dispatch("softmax", softmaxShader, []binding{
		{bufInput, size},
		{bufResult, size},
		{bufParams, 16},
	}, groups1D(rows), 1)

	return b.readInto(bufResult, size, x.Shape())
}

// readInto reads a result buffer back into a fresh WebGPU-tagged tensor.
func (b *Backend) readInto(buf *wgpu.Buffer, size uint64, shape tensor.Shape) (*tensor.RawTensor, error) {
	data, err := b.readBuffer(buf, size)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), data)
	return result, nil
}
