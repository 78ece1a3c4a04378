//go:build webgpu

package webgpu

import (
	"testing"

	"github.com/born-ml/recurrent/internal/tensor"
)

func TestIsAvailable(t *testing.T) {
	t.Logf("WebGPU available: %v", IsAvailable())
	// Reports status only; absence of a GPU is not a failure.
}

func TestNew(t *testing.T) {
	backend, err := New()
	if err != nil {
		t.Logf("WebGPU not available: %v", err)
		t.Skip("WebGPU not available on this system")
	}
	defer backend.Release()

	if backend.Name() == "" {
		t.Error("Backend name should not be empty")
	}
	t.Logf("Backend name: %s", backend.Name())

	if backend.Device() != tensor.WebGPU {
		t.Errorf("Expected device WebGPU, got %v", backend.Device())
	}

	if info := backend.AdapterInfo(); info != nil {
		t.Logf("Using GPU: %s (%s)", info.Device, info.Vendor)
	}
}

func TestBackendInterface(t *testing.T) {
	backend, err := New()
	if err != nil {
		t.Skip("WebGPU not available on this system")
	}
	defer backend.Release()

	var _ tensor.Backend = backend
}

func newGPUBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Skip("WebGPU not available on this system")
	}
	t.Cleanup(backend.Release)
	return backend
}

func gpuFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func TestBackend_Add(t *testing.T) {
	backend := newGPUBackend(t)

	a := gpuFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := gpuFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := backend.Add(a, b)

	expected := []float32{11, 22, 33, 44}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("Add[%d] = %v, want %v", i, v, expected[i])
		}
	}
}

func TestBackend_AddBroadcast(t *testing.T) {
	backend := newGPUBackend(t)

	a := gpuFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := gpuFloat32(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	result := backend.Add(a, bias)

	expected := []float32{11, 22, 33, 14, 25, 36}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("Add[%d] = %v, want %v", i, v, expected[i])
		}
	}
}

func TestBackend_MatMul(t *testing.T) {
	backend := newGPUBackend(t)

	a := gpuFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := gpuFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("MatMul shape = %v", result.Shape())
	}
	expected := []float32{58, 64, 139, 154}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("MatMul[%d] = %v, want %v", i, v, expected[i])
		}
	}
}

func TestBackend_Softmax(t *testing.T) {
	backend := newGPUBackend(t)

	x := gpuFloat32(t, []float32{1, 2, 3, 3, 2, 1}, tensor.Shape{2, 3})

	result := backend.Softmax(x, -1)

	got := result.AsFloat32()
	for row := 0; row < 2; row++ {
		sum := float32(0)
		for i := 0; i < 3; i++ {
			sum += got[row*3+i]
		}
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("Softmax row %d sums to %v", row, sum)
		}
	}
}

func TestBackend_Tanh(t *testing.T) {
	backend := newGPUBackend(t)

	x := gpuFloat32(t, []float32{-1, 0, 1}, tensor.Shape{3})

	result := backend.Tanh(x)

	expected := []float32{-0.7615942, 0, 0.7615942}
	for i, v := range result.AsFloat32() {
		diff := v - expected[i]
		if diff < -1e-5 || diff > 1e-5 {
			t.Errorf("Tanh[%d] = %v, want %v", i, v, expected[i])
		}
	}
}
