package step_test

import (
	"math"
	"strings"
	"testing"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// zeroNamed zeroes every parameter whose name contains substr
// (all parameters when substr is empty).
func zeroNamed[B tensor.Backend](params []*nn.Parameter[B], substr string) {
	for _, p := range params {
		if substr != "" && !strings.Contains(p.Name(), substr) {
			continue
		}
		data := p.Tensor().Raw().AsFloat32()
		for i := range data {
			data[i] = 0
		}
	}
}

// passthrough is a stateless identity cell for exercising wrappers.
type passthrough[B tensor.Backend] struct {
	units   int
	backend B
}

func (p *passthrough[B]) Name() string { return "passthrough" }

func (p *passthrough[B]) Step(input *tensor.Tensor[float32, B], state step.State[B]) (*tensor.Tensor[float32, B], step.State[B]) {
	return input, state
}

func (p *passthrough[B]) ZeroState(batchSize int) step.State[B] {
	return step.State[B]{tensor.Zeros[float32](tensor.Shape{batchSize, p.units}, p.backend)}
}

// TestBasic_Step verifies h' = tanh(x·Wxᵀ + h·Whᵀ + b) with hand-set weights.
func TestBasic_Step(t *testing.T) {
	backend := cpu.New()

	cell := step.NewBasic("basic", 2, 2, step.ActTanh, backend)

	// Identity kernels, bias [0.5, -0.5].
	for _, p := range cell.Parameters() {
		data := p.Tensor().Raw().AsFloat32()
		switch {
		case strings.Contains(p.Name(), "kernel"):
			copy(data, []float32{1, 0, 0, 1})
		case strings.Contains(p.Name(), "bias"):
			copy(data, []float32{0.5, -0.5})
		}
	}

	input, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	h, _ := tensor.FromSlice([]float32{0.5, 0.25}, tensor.Shape{1, 2}, backend)

	output, next := cell.Step(input, step.State[*cpu.CPUBackend]{h})

	// pre = x + h + b = [2.0, 1.75]
	want := []float32{float32(math.Tanh(2.0)), float32(math.Tanh(1.75))}
	got := output.Raw().AsFloat32()
	for i := range want {
		if !floatEqual(got[i], want[i], 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, got[i], want[i])
		}
	}

	if len(next) != 1 {
		t.Fatalf("state length = %d, want 1", len(next))
	}
	if next[0] != output {
		t.Error("basic cell state should be the output tensor")
	}
}

// TestBasic_ReluActivation verifies the relu variant clips negatives.
func TestBasic_ReluActivation(t *testing.T) {
	backend := cpu.New()

	cell := step.NewBasic("basic_relu", 2, 2, step.ActRelu, backend)
	zeroNamed(cell.Parameters(), "kernel_hidden")
	zeroNamed(cell.Parameters(), "bias")
	for _, p := range cell.Parameters() {
		if strings.Contains(p.Name(), "kernel_input") {
			copy(p.Tensor().Raw().AsFloat32(), []float32{1, 0, 0, 1})
		}
	}

	input, _ := tensor.FromSlice([]float32{-1, 1}, tensor.Shape{1, 2}, backend)
	output, _ := cell.Step(input, cell.ZeroState(1))

	got := output.Raw().AsFloat32()
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("output = %v, want [0 1]", got)
	}
}

// TestBasic_ZeroState verifies the initial state shape.
func TestBasic_ZeroState(t *testing.T) {
	backend := cpu.New()

	cell := step.NewBasic("basic", 3, 5, step.ActTanh, backend)
	state := cell.ZeroState(4)

	if len(state) != 1 {
		t.Fatalf("state length = %d, want 1", len(state))
	}
	wantShape := tensor.Shape{4, 5}
	if !state[0].Shape().Equal(wantShape) {
		t.Errorf("state shape = %v, want %v", state[0].Shape(), wantShape)
	}
	for i, v := range state[0].Raw().AsFloat32() {
		if v != 0 {
			t.Errorf("state[%d] = %f, want 0", i, v)
		}
	}
}

// TestLSTM_ForgetBias verifies the forget gate path with zeroed weights.
//
// With all weights zero the gate preactivations reduce to their biases:
// i = σ(0), f = σ(forgetBias), g = tanh(0) = 0, o = σ(0). Starting from
// c = 1 the new cell state is σ(1)·1 and h' = σ(0)·tanh(σ(1)).
func TestLSTM_ForgetBias(t *testing.T) {
	backend := cpu.New()

	cell := step.NewLSTM("lstm", 2, 3, 1.0, backend)
	zeroNamed(cell.Parameters(), "weight")

	input, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	c := tensor.Ones[float32](tensor.Shape{1, 3}, backend)
	h := tensor.Zeros[float32](tensor.Shape{1, 3}, backend)

	output, next := cell.Step(input, step.State[*cpu.CPUBackend]{c, h})

	if len(next) != 2 {
		t.Fatalf("state length = %d, want 2", len(next))
	}

	wantC := float32(sigmoid(1.0))
	wantH := float32(0.5 * math.Tanh(sigmoid(1.0)))

	for i, v := range next[0].Raw().AsFloat32() {
		if !floatEqual(v, wantC, 1e-5) {
			t.Errorf("c'[%d] = %f, want %f", i, v, wantC)
		}
	}
	for i, v := range next[1].Raw().AsFloat32() {
		if !floatEqual(v, wantH, 1e-5) {
			t.Errorf("h'[%d] = %f, want %f", i, v, wantH)
		}
	}
	for i, v := range output.Raw().AsFloat32() {
		if !floatEqual(v, wantH, 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, v, wantH)
		}
	}
}

// TestLSTM_ParameterCount verifies 3 parameters per gate, 4 gates.
func TestLSTM_ParameterCount(t *testing.T) {
	backend := cpu.New()

	cell := step.NewLSTM("lstm", 4, 8, 1.0, backend)
	params := cell.Parameters()
	if len(params) != 12 {
		t.Errorf("Parameters() length = %d, want 12", len(params))
	}

	state := cell.ZeroState(2)
	if len(state) != 2 {
		t.Errorf("state length = %d, want 2", len(state))
	}
}

// TestGRU_ZeroWeightsHalvesHidden: with all parameters zero, z = r = 0.5
// and the candidate is 0, so h' = 0.5·h.
func TestGRU_ZeroWeightsHalvesHidden(t *testing.T) {
	backend := cpu.New()

	cell := step.NewGRU("gru", 2, 3, backend)
	zeroNamed(cell.Parameters(), "")

	input, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	h, _ := tensor.FromSlice([]float32{2, 4, 6}, tensor.Shape{1, 3}, backend)

	output, next := cell.Step(input, step.State[*cpu.CPUBackend]{h})

	want := []float32{1, 2, 3}
	got := output.Raw().AsFloat32()
	for i := range want {
		if !floatEqual(got[i], want[i], 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, got[i], want[i])
		}
	}

	if len(next) != 1 {
		t.Fatalf("state length = %d, want 1", len(next))
	}
	if next[0] != output {
		t.Error("gru state should be the output tensor")
	}
}

// TestDropout_KeepAllIsIdentity verifies keep prob 1.0 skips masking.
func TestDropout_KeepAllIsIdentity(t *testing.T) {
	backend := cpu.New()

	inner := &passthrough[*cpu.CPUBackend]{units: 4, backend: backend}
	cell := step.NewDropout[*cpu.CPUBackend](inner, "drop", 1.0, 1.0, 1.0, 42)

	input, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
	state := inner.ZeroState(1)

	output, next := cell.Step(input, state)

	if output != input {
		t.Error("keep prob 1.0 should pass the input tensor through untouched")
	}
	if next[0] != state[0] {
		t.Error("keep prob 1.0 should pass the state through untouched")
	}
}

// TestDropout_MaskValues verifies inverted-dropout scaling: surviving
// elements are multiplied by 1/keep, dropped elements are zero.
func TestDropout_MaskValues(t *testing.T) {
	backend := cpu.New()

	inner := &passthrough[*cpu.CPUBackend]{units: 64, backend: backend}
	cell := step.NewDropout[*cpu.CPUBackend](inner, "drop", 0.5, 1.0, 1.0, 7)

	input := tensor.Ones[float32](tensor.Shape{1, 64}, backend)
	output, _ := cell.Step(input, inner.ZeroState(1))

	kept := 0
	for i, v := range output.Raw().AsFloat32() {
		switch v {
		case 0:
		case 2:
			kept++
		default:
			t.Fatalf("output[%d] = %f, want 0 or 2", i, v)
		}
	}
	if kept == 0 || kept == 64 {
		t.Errorf("kept = %d of 64, want a proper subset", kept)
	}
}

// TestDropout_SeedDeterminism verifies that the same seed reproduces the
// same masks and that different seeds diverge.
func TestDropout_SeedDeterminism(t *testing.T) {
	backend := cpu.New()

	input := tensor.Ones[float32](tensor.Shape{2, 32}, backend)

	run := func(seed int64) []float32 {
		inner := &passthrough[*cpu.CPUBackend]{units: 32, backend: backend}
		cell := step.NewDropout[*cpu.CPUBackend](inner, "drop", 0.5, 1.0, 1.0, seed)
		output, _ := cell.Step(input, inner.ZeroState(2))
		return output.Raw().AsFloat32()
	}

	first := run(42)
	second := run(42)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed diverged at %d: %f vs %f", i, first[i], second[i])
		}
	}

	other := run(43)
	same := true
	for i := range first {
		if first[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical masks")
	}
}

// TestDropout_SiteStreamsDiffer verifies input and output sites draw from
// independent streams even with the same seed.
func TestDropout_SiteStreamsDiffer(t *testing.T) {
	backend := cpu.New()

	input := tensor.Ones[float32](tensor.Shape{1, 64}, backend)

	inner1 := &passthrough[*cpu.CPUBackend]{units: 64, backend: backend}
	inputOnly := step.NewDropout[*cpu.CPUBackend](inner1, "drop_in", 0.5, 1.0, 1.0, 42)
	fromInput, _ := inputOnly.Step(input, inner1.ZeroState(1))

	inner2 := &passthrough[*cpu.CPUBackend]{units: 64, backend: backend}
	outputOnly := step.NewDropout[*cpu.CPUBackend](inner2, "drop_out", 1.0, 0.5, 1.0, 42)
	fromOutput, _ := outputOnly.Step(input, inner2.ZeroState(1))

	same := true
	a := fromInput.Raw().AsFloat32()
	b := fromOutput.Raw().AsFloat32()
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("input and output sites produced identical masks for the same seed")
	}
}

// TestDropout_StateMasking verifies state tensors are masked after the
// inner step.
func TestDropout_StateMasking(t *testing.T) {
	backend := cpu.New()

	inner := &passthrough[*cpu.CPUBackend]{units: 64, backend: backend}
	cell := step.NewDropout[*cpu.CPUBackend](inner, "drop", 1.0, 1.0, 0.5, 11)

	input := tensor.Ones[float32](tensor.Shape{1, 64}, backend)
	state := step.State[*cpu.CPUBackend]{tensor.Ones[float32](tensor.Shape{1, 64}, backend)}

	output, next := cell.Step(input, state)

	if output != input {
		t.Error("output site with keep 1.0 should be untouched")
	}

	kept := 0
	for i, v := range next[0].Raw().AsFloat32() {
		switch v {
		case 0:
		case 2:
			kept++
		default:
			t.Fatalf("state[%d] = %f, want 0 or 2", i, v)
		}
	}
	if kept == 0 || kept == 64 {
		t.Errorf("kept = %d of 64, want a proper subset", kept)
	}
}

// TestDropout_Accessors verifies the wrapper reports its configuration.
func TestDropout_Accessors(t *testing.T) {
	backend := cpu.New()

	inner := &passthrough[*cpu.CPUBackend]{units: 4, backend: backend}
	cell := step.NewDropout[*cpu.CPUBackend](inner, "drop_3", 0.8, 1.0, 0.9, 123)

	if cell.Name() != "drop_3" {
		t.Errorf("Name() = %s, want drop_3", cell.Name())
	}
	if cell.InputKeepProb() != 0.8 {
		t.Errorf("InputKeepProb() = %f, want 0.8", cell.InputKeepProb())
	}
	if cell.OutputKeepProb() != 1.0 {
		t.Errorf("OutputKeepProb() = %f, want 1.0", cell.OutputKeepProb())
	}
	if cell.StateKeepProb() != 0.9 {
		t.Errorf("StateKeepProb() = %f, want 0.9", cell.StateKeepProb())
	}
	if cell.Seed() != 123 {
		t.Errorf("Seed() = %d, want 123", cell.Seed())
	}
	if cell.Inner() != step.Cell[*cpu.CPUBackend](inner) {
		t.Error("Inner() should return the wrapped cell")
	}
}

// TestDropout_GradientIsMask verifies the mask multiplies through the
// tape: for y = m⊙x, dy/dx = m, so with x = ones the gradient equals the
// masked output elementwise.
func TestDropout_GradientIsMask(t *testing.T) {
	backend := autodiff.New(cpu.New())

	inner := &passthrough[*autodiff.AutodiffBackend[*cpu.CPUBackend]]{units: 16, backend: backend}
	cell := step.NewDropout[*autodiff.AutodiffBackend[*cpu.CPUBackend]](inner, "drop", 0.5, 1.0, 1.0, 5)

	input := tensor.Ones[float32](tensor.Shape{1, 16}, backend)

	backend.Tape().StartRecording()
	output, _ := cell.Step(input, inner.ZeroState(1))
	loss := output.Sum()
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()
	backend.Tape().Clear()

	grad, ok := grads[input.Raw()]
	if !ok {
		t.Fatal("no gradient for input")
	}

	outData := output.Raw().AsFloat32()
	gradData := grad.AsFloat32()
	for i := range outData {
		if !floatEqual(gradData[i], outData[i], 1e-6) {
			t.Errorf("grad[%d] = %f, want %f (the mask value)", i, gradData[i], outData[i])
		}
	}
}

// TestResidual_AddsInput verifies output = input + inner output.
func TestResidual_AddsInput(t *testing.T) {
	backend := cpu.New()

	inner := &passthrough[*cpu.CPUBackend]{units: 3, backend: backend}
	cell := step.NewResidual[*cpu.CPUBackend]("res", inner)

	input, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	output, _ := cell.Step(input, inner.ZeroState(1))

	want := []float32{2, 4, 6}
	got := output.Raw().AsFloat32()
	for i := range want {
		if !floatEqual(got[i], want[i], 1e-6) {
			t.Errorf("output[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestStacked_StateSplitting verifies a stack splits and regroups
// per-layer states, using zero-weight GRUs whose closed form is
// h' = 0.5·h.
func TestStacked_StateSplitting(t *testing.T) {
	backend := cpu.New()

	layer1 := step.NewGRU("gru_0", 1, 1, backend)
	layer2 := step.NewGRU("gru_1", 1, 1, backend)
	zeroNamed(layer1.Parameters(), "")
	zeroNamed(layer2.Parameters(), "")

	stack := step.NewStacked[*cpu.CPUBackend]("stack", []step.Cell[*cpu.CPUBackend]{layer1, layer2})

	if got := len(stack.ZeroState(3)); got != 2 {
		t.Fatalf("ZeroState length = %d, want 2", got)
	}

	input, _ := tensor.FromSlice([]float32{9}, tensor.Shape{1, 1}, backend)
	h1, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1, 1}, backend)
	h2, _ := tensor.FromSlice([]float32{4}, tensor.Shape{1, 1}, backend)

	output, next := stack.Step(input, step.State[*cpu.CPUBackend]{h1, h2})

	if len(next) != 2 {
		t.Fatalf("state length = %d, want 2", len(next))
	}
	if got := next[0].Raw().AsFloat32()[0]; !floatEqual(got, 1, 1e-5) {
		t.Errorf("layer 1 state = %f, want 1", got)
	}
	if got := next[1].Raw().AsFloat32()[0]; !floatEqual(got, 2, 1e-5) {
		t.Errorf("layer 2 state = %f, want 2", got)
	}
	if got := output.Raw().AsFloat32()[0]; !floatEqual(got, 2, 1e-5) {
		t.Errorf("output = %f, want 2", got)
	}
}

// TestStacked_MixedArity verifies state splitting across layers with
// different state arities (LSTM carries {c, h}, GRU carries {h}).
func TestStacked_MixedArity(t *testing.T) {
	backend := cpu.New()

	layer1 := step.NewLSTM("lstm_0", 2, 2, 1.0, backend)
	layer2 := step.NewGRU("gru_0", 2, 2, backend)

	stack := step.NewStacked[*cpu.CPUBackend]("stack", []step.Cell[*cpu.CPUBackend]{layer1, layer2})

	state := stack.ZeroState(3)
	if len(state) != 3 {
		t.Fatalf("ZeroState length = %d, want 3", len(state))
	}

	input := tensor.Ones[float32](tensor.Shape{3, 2}, backend)
	output, next := stack.Step(input, state)

	if len(next) != 3 {
		t.Fatalf("state length = %d, want 3", len(next))
	}
	wantShape := tensor.Shape{3, 2}
	if !output.Shape().Equal(wantShape) {
		t.Errorf("output shape = %v, want %v", output.Shape(), wantShape)
	}
	for i, s := range next {
		if !s.Shape().Equal(wantShape) {
			t.Errorf("state[%d] shape = %v, want %v", i, s.Shape(), wantShape)
		}
	}
}
