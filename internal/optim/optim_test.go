package optim_test

import (
	"math"
	"testing"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/optim"
	"github.com/born-ml/recurrent/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func scalarGrad(t *testing.T, backend testBackend, value float32) *tensor.RawTensor {
	t.Helper()
	grad, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, backend.Device())
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	grad.AsFloat32()[0] = value
	return grad
}

func TestSGD_SimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): scalarGrad(t, backend, 1.0),
	}
	optimizer.Step(grads)

	// x_new = 2.0 - 0.1 * 1.0 = 1.9
	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want 1.9", actual)
	}
}

func TestSGD_WithMomentum(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): scalarGrad(t, backend, 1.0),
	})

	// v_1 = 0.9 * 0 + 1.0 = 1.0
	// x_1 = 1.0 - 0.1 * 1.0 = 0.9
	actual1 := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual1, 0.9, 1e-6) {
		t.Errorf("momentum step 1: got %f, want 0.9", actual1)
	}

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): scalarGrad(t, backend, 1.0),
	})

	// v_2 = 0.9 * 1.0 + 1.0 = 1.9
	// x_2 = 0.9 - 0.1 * 1.9 = 0.71
	actual2 := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual2, 0.71, 1e-5) {
		t.Errorf("momentum step 2: got %f, want 0.71", actual2)
	}
}

func TestSGD_SkipsMissingGradients(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{3.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	if actual := param.Tensor().Raw().AsFloat32()[0]; actual != 3.0 {
		t.Errorf("parameter without gradient moved: got %f, want 3.0", actual)
	}
}

func TestSGD_ZeroGrad(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	grad, _ := tensor.FromSlice([]float32{5.0}, tensor.Shape{1}, backend)
	param.SetGrad(grad)

	if param.Grad() == nil {
		t.Fatal("Grad should not be nil after SetGrad")
	}

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)
	optimizer.ZeroGrad()

	if param.Grad() != nil {
		t.Error("Grad should be nil after ZeroGrad")
	}
}

func TestSGD_GetSetLR(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.01},
		backend,
	)

	if optimizer.GetLR() != 0.01 {
		t.Errorf("GetLR: got %f, want 0.01", optimizer.GetLR())
	}

	optimizer.SetLR(0.001)
	if optimizer.GetLR() != 0.001 {
		t.Errorf("GetLR after SetLR: got %f, want 0.001", optimizer.GetLR())
	}
}

// TestSGD_StateDictRoundTrip: a restored optimizer continues the momentum
// trajectory of the original.
func TestSGD_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): scalarGrad(t, backend, 1.0),
	})

	state := optimizer.StateDict()
	if len(state) != 1 {
		t.Fatalf("StateDict has %d entries, want 1", len(state))
	}
	if state["velocity.0"] == nil {
		t.Fatal("StateDict missing velocity.0")
	}

	restored := optim.NewSGD([]*nn.Parameter[testBackend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	if err := restored.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	restored.Step(map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): scalarGrad(t, backend, 1.0),
	})

	// Same trajectory as an uninterrupted run: x_2 = 0.71.
	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 0.71, 1e-5) {
		t.Errorf("restored momentum step: got %f, want 0.71", actual)
	}
}

func TestAdam_SimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewAdam([]*nn.Parameter[testBackend]{param},
		optim.AdamConfig{LR: 0.001, Betas: [2]float32{0.9, 0.999}, Eps: 1e-8},
		backend,
	)

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): scalarGrad(t, backend, 1.0),
	})

	// m_1 = 0.1, v_1 = 0.001; bias correction makes both hats 1.0,
	// so x_new = 1.0 - 0.001 * 1.0 / (1.0 + 1e-8) ≈ 0.999.
	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 0.999, 1e-5) {
		t.Errorf("Adam first step: got %f, want 0.999", actual)
	}
}

func TestAdam_TimestepAdvances(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewAdam([]*nn.Parameter[testBackend]{param},
		optim.AdamConfig{LR: 0.01},
		backend,
	)

	if optimizer.GetTimestep() != 0 {
		t.Errorf("initial timestep: got %d, want 0", optimizer.GetTimestep())
	}

	for i := 1; i <= 3; i++ {
		optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{
			param.Tensor().Raw(): scalarGrad(t, backend, 1.0),
		})
		if optimizer.GetTimestep() != i {
			t.Errorf("after step %d, timestep: got %d, want %d", i, optimizer.GetTimestep(), i)
		}
	}

	if final := param.Tensor().Raw().AsFloat32()[0]; final >= 1.0 {
		t.Errorf("after 3 Adam steps with positive gradient, parameter should decrease: got %f", final)
	}
}

// TestAdam_StateDictRoundTrip: moments and the timestep survive a
// save/restore cycle.
func TestAdam_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0, 2.0}, tensor.Shape{2}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewAdam([]*nn.Parameter[testBackend]{param},
		optim.AdamConfig{LR: 0.001},
		backend,
	)

	grad, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	grad.AsFloat32()[0] = 1.0
	grad.AsFloat32()[1] = -1.0
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad})
	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad})

	state := optimizer.StateDict()
	if state["m.0"] == nil || state["v.0"] == nil || state["step"] == nil {
		t.Fatalf("StateDict missing entries: %v", state)
	}

	restored := optim.NewAdam([]*nn.Parameter[testBackend]{param},
		optim.AdamConfig{LR: 0.001},
		backend,
	)
	if err := restored.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	if restored.GetTimestep() != 2 {
		t.Errorf("restored timestep: got %d, want 2", restored.GetTimestep())
	}
}

func TestAdam_LoadStateDictShapeMismatch(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0, 2.0}, tensor.Shape{2}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewAdam([]*nn.Parameter[testBackend]{param},
		optim.AdamConfig{LR: 0.001},
		backend,
	)

	bad, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, backend.Device())
	err := optimizer.LoadStateDict(map[string]*tensor.RawTensor{"m.0": bad})
	if err == nil {
		t.Error("LoadStateDict should reject a mis-shaped moment buffer")
	}
}

// TestConvergence_SimpleQuadratic: both optimizers minimize f(x) = x².
func TestConvergence_SimpleQuadratic(t *testing.T) {
	backend := autodiff.New(cpu.New())

	run := func(t *testing.T, optimizer optim.Optimizer, param *nn.Parameter[testBackend]) {
		t.Helper()
		for i := 0; i < 100; i++ {
			// df/dx = 2x
			gradValue := 2.0 * param.Tensor().Raw().AsFloat32()[0]
			optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{
				param.Tensor().Raw(): scalarGrad(t, backend, gradValue),
			})
		}
		final := param.Tensor().Raw().AsFloat32()[0]
		if math.Abs(float64(final)) > 0.1 {
			t.Errorf("convergence: x = %f, expected close to 0", final)
		}
	}

	t.Run("SGD", func(t *testing.T) {
		x, _ := tensor.FromSlice([]float32{3.0}, tensor.Shape{1}, backend)
		param := nn.NewParameter("x", x)
		run(t, optim.NewSGD([]*nn.Parameter[testBackend]{param},
			optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend), param)
	})

	t.Run("Adam", func(t *testing.T) {
		x, _ := tensor.FromSlice([]float32{3.0}, tensor.Shape{1}, backend)
		param := nn.NewParameter("x", x)
		run(t, optim.NewAdam([]*nn.Parameter[testBackend]{param},
			optim.AdamConfig{LR: 0.1}, backend), param)
	})
}

func TestMultipleParameters(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x1, _ := tensor.FromSlice([]float32{1.0, 2.0}, tensor.Shape{2}, backend)
	param1 := nn.NewParameter("x1", x1)

	x2, _ := tensor.FromSlice([]float32{3.0}, tensor.Shape{1}, backend)
	param2 := nn.NewParameter("x2", x2)

	optimizer := optim.NewSGD([]*nn.Parameter[testBackend]{param1, param2},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	grad1, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	grad1.AsFloat32()[0] = 1.0
	grad1.AsFloat32()[1] = 2.0

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{
		param1.Tensor().Raw(): grad1,
		param2.Tensor().Raw(): scalarGrad(t, backend, 0.5),
	})

	// param1: [1.0, 2.0] - 0.1 * [1.0, 2.0] = [0.9, 1.8]
	p1Data := param1.Tensor().Raw().AsFloat32()
	if !floatEqual(p1Data[0], 0.9, 1e-6) || !floatEqual(p1Data[1], 1.8, 1e-6) {
		t.Errorf("param1: got [%f, %f], want [0.9, 1.8]", p1Data[0], p1Data[1])
	}

	// param2: 3.0 - 0.1 * 0.5 = 2.95
	p2Data := param2.Tensor().Raw().AsFloat32()
	if !floatEqual(p2Data[0], 2.95, 1e-6) {
		t.Errorf("param2: got %f, want 2.95", p2Data[0])
	}
}

// TestClipGradNorm_Rescales: gradients [3, 4] have L2 norm 5; clipping to
// 1 scales them to [0.6, 0.8] and reports the pre-clip norm.
func TestClipGradNorm_Rescales(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, backend)
	param := nn.NewParameter("x", x)

	grad, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	grad.AsFloat32()[0] = 3.0
	grad.AsFloat32()[1] = 4.0
	grads := map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad}

	norm := optim.ClipGradNorm([]*nn.Parameter[testBackend]{param}, grads, 1.0, 2)

	if !floatEqual(float32(norm), 5.0, 1e-5) {
		t.Errorf("pre-clip norm: got %f, want 5.0", norm)
	}
	data := grad.AsFloat32()
	if !floatEqual(data[0], 0.6, 1e-5) || !floatEqual(data[1], 0.8, 1e-5) {
		t.Errorf("clipped gradient: got [%f, %f], want [0.6, 0.8]", data[0], data[1])
	}
}

func TestClipGradNorm_NoopBelowThreshold(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, backend)
	param := nn.NewParameter("x", x)

	grad, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	grad.AsFloat32()[0] = 0.3
	grad.AsFloat32()[1] = 0.4
	grads := map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad}

	norm := optim.ClipGradNorm([]*nn.Parameter[testBackend]{param}, grads, 1.0, 2)

	if !floatEqual(float32(norm), 0.5, 1e-5) {
		t.Errorf("norm: got %f, want 0.5", norm)
	}
	data := grad.AsFloat32()
	if data[0] != 0.3 || data[1] != 0.4 {
		t.Errorf("gradient under the threshold changed: [%f, %f]", data[0], data[1])
	}
}

func TestClipGradNorm_DisabledByZeroMax(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	grad := scalarGrad(t, backend, 100.0)
	grads := map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad}

	if norm := optim.ClipGradNorm([]*nn.Parameter[testBackend]{param}, grads, 0, 2); norm != 0 {
		t.Errorf("disabled clip returned %f, want 0", norm)
	}
	if grad.AsFloat32()[0] != 100.0 {
		t.Error("disabled clip modified the gradient")
	}
}

func TestClipGradValue_Clamps(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{0, 0, 0}, tensor.Shape{3}, backend)
	param := nn.NewParameter("x", x)

	grad, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, backend.Device())
	grad.AsFloat32()[0] = -7.0
	grad.AsFloat32()[1] = 0.5
	grad.AsFloat32()[2] = 3.0
	grads := map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad}

	optim.ClipGradValue([]*nn.Parameter[testBackend]{param}, grads, 1.0)

	data := grad.AsFloat32()
	if data[0] != -1.0 || data[1] != 0.5 || data[2] != 1.0 {
		t.Errorf("clamped gradient: got %v, want [-1 0.5 1]", data)
	}
}
