package nn_test

import (
	"math"
	"testing"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Helper to check if values are approximately equal.
//
//nolint:unparam // epsilon is always 1e-5 in tests, but keeping it as parameter for flexibility
func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// TestParameter tests Parameter creation and methods.
func TestParameter(t *testing.T) {
	backend := autodiff.New(cpu.New())

	data, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	param := nn.NewParameter("test_param", data)

	if param.Name() != "test_param" {
		t.Errorf("Name() = %s, want test_param", param.Name())
	}

	if param.Tensor() != data {
		t.Error("Tensor() should return the original tensor")
	}

	if param.Grad() != nil {
		t.Error("Grad() should initially be nil")
	}

	grad, _ := tensor.FromSlice([]float32{0.1, 0.2, 0.3}, tensor.Shape{3}, backend)
	param.SetGrad(grad)
	if param.Grad() != grad {
		t.Error("SetGrad() should set the gradient")
	}

	param.ZeroGrad()
	if param.Grad() != nil {
		t.Error("ZeroGrad() should clear the gradient")
	}
}

// TestLinear_Creation tests Linear layer initialization.
func TestLinear_Creation(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(10, 5, backend)

	if layer.InFeatures() != 10 {
		t.Errorf("InFeatures() = %d, want 10", layer.InFeatures())
	}
	if layer.OutFeatures() != 5 {
		t.Errorf("OutFeatures() = %d, want 5", layer.OutFeatures())
	}

	// Weight shape: [out_features, in_features]
	weight := layer.Weight().Tensor()
	expectedShape := tensor.Shape{5, 10}
	if !weight.Shape().Equal(expectedShape) {
		t.Errorf("Weight shape = %v, want %v", weight.Shape(), expectedShape)
	}

	// Bias shape: [out_features], initialized to zeros
	bias := layer.Bias().Tensor()
	expectedBiasShape := tensor.Shape{5}
	if !bias.Shape().Equal(expectedBiasShape) {
		t.Errorf("Bias shape = %v, want %v", bias.Shape(), expectedBiasShape)
	}

	biasData := bias.Raw().AsFloat32()
	for i, v := range biasData {
		if v != 0 {
			t.Errorf("Bias[%d] = %f, want 0", i, v)
		}
	}

	params := layer.Parameters()
	if len(params) != 2 {
		t.Errorf("Parameters() length = %d, want 2", len(params))
	}
}

// TestLinear_Forward tests Linear layer forward pass.
func TestLinear_Forward(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(2, 2, backend)

	// Weight: [[1, 2], [3, 4]] (out=2, in=2)
	copy(layer.Weight().Tensor().Raw().AsFloat32(), []float32{1, 2, 3, 4})

	// Bias: [0.5, 1.0]
	copy(layer.Bias().Tensor().Raw().AsFloat32(), []float32{0.5, 1.0})

	// Input: [[1, 1]] (batch=1, in=2)
	input, _ := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)

	output := layer.Forward(input)

	// y = x @ W.T + b
	// W.T = [[1, 3], [2, 4]]
	// x @ W.T = [1*1+1*2, 1*3+1*4] = [3, 7]
	// y = [3, 7] + [0.5, 1.0] = [3.5, 8.0]
	expected := []float32{3.5, 8.0}
	actual := output.Raw().AsFloat32()

	for i, exp := range expected {
		if !floatEqual(actual[i], exp, 1e-5) {
			t.Errorf("Output[%d] = %f, want %f", i, actual[i], exp)
		}
	}

	expectedShape := tensor.Shape{1, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}
}

// TestLinear_NoBias tests Linear layer created without a bias term.
func TestLinear_NoBias(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinearWithOptions(2, 2, backend, false)

	if layer.Bias() != nil {
		t.Error("Bias() should be nil when created without bias")
	}

	params := layer.Parameters()
	if len(params) != 1 {
		t.Errorf("Parameters() length = %d, want 1", len(params))
	}

	// Weight: [[1, 0], [0, 1]] (identity)
	copy(layer.Weight().Tensor().Raw().AsFloat32(), []float32{1, 0, 0, 1})

	input, _ := tensor.FromSlice([]float32{2, 3}, tensor.Shape{1, 2}, backend)
	output := layer.Forward(input)

	// Identity weight with no bias passes input through unchanged.
	actual := output.Raw().AsFloat32()
	if !floatEqual(actual[0], 2, 1e-5) || !floatEqual(actual[1], 3, 1e-5) {
		t.Errorf("Output = %v, want [2 3]", actual)
	}
}

// TestLinear_GradientFlow tests that gradients reach both weight and input.
func TestLinear_GradientFlow(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(2, 1, backend)
	copy(layer.Weight().Tensor().Raw().AsFloat32(), []float32{2, 3})

	input, _ := tensor.FromSlice([]float32{1, 4}, tensor.Shape{1, 2}, backend)

	backend.Tape().StartRecording()
	output := layer.Forward(input)
	loss := output.Sum()
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()
	backend.Tape().Clear()

	// loss = w0*x0 + w1*x1 + b
	// dL/dW = x = [1, 4], dL/dx = w = [2, 3], dL/db = 1
	wGrad, ok := grads[layer.Weight().Tensor().Raw()]
	if !ok {
		t.Fatal("no gradient for weight")
	}
	wData := wGrad.AsFloat32()
	if !floatEqual(wData[0], 1, 1e-5) || !floatEqual(wData[1], 4, 1e-5) {
		t.Errorf("Weight grad = %v, want [1 4]", wData)
	}

	xGrad, ok := grads[input.Raw()]
	if !ok {
		t.Fatal("no gradient for input")
	}
	xData := xGrad.AsFloat32()
	if !floatEqual(xData[0], 2, 1e-5) || !floatEqual(xData[1], 3, 1e-5) {
		t.Errorf("Input grad = %v, want [2 3]", xData)
	}

	bGrad, ok := grads[layer.Bias().Tensor().Raw()]
	if !ok {
		t.Fatal("no gradient for bias")
	}
	if !floatEqual(bGrad.AsFloat32()[0], 1, 1e-5) {
		t.Errorf("Bias grad = %f, want 1", bGrad.AsFloat32()[0])
	}
}

// TestLinear_StateDict tests saving and loading layer weights.
func TestLinear_StateDict(t *testing.T) {
	backend := autodiff.New(cpu.New())

	src := nn.NewLinear(3, 2, backend)
	copy(src.Weight().Tensor().Raw().AsFloat32(), []float32{1, 2, 3, 4, 5, 6})
	copy(src.Bias().Tensor().Raw().AsFloat32(), []float32{7, 8})

	dst := nn.NewLinear(3, 2, backend)
	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	wantW := []float32{1, 2, 3, 4, 5, 6}
	gotW := dst.Weight().Tensor().Raw().AsFloat32()
	for i := range wantW {
		if gotW[i] != wantW[i] {
			t.Errorf("Weight[%d] = %f, want %f", i, gotW[i], wantW[i])
		}
	}

	gotB := dst.Bias().Tensor().Raw().AsFloat32()
	if gotB[0] != 7 || gotB[1] != 8 {
		t.Errorf("Bias = %v, want [7 8]", gotB)
	}
}

// TestEmbedding_Creation tests Embedding layer initialization.
func TestEmbedding_Creation(t *testing.T) {
	backend := autodiff.New(cpu.New())

	embed := nn.NewEmbedding(100, 16, backend)

	if embed.NumEmbed != 100 {
		t.Errorf("NumEmbed = %d, want 100", embed.NumEmbed)
	}
	if embed.EmbedDim != 16 {
		t.Errorf("EmbedDim = %d, want 16", embed.EmbedDim)
	}

	expectedShape := tensor.Shape{100, 16}
	if !embed.Weight.Tensor().Shape().Equal(expectedShape) {
		t.Errorf("Weight shape = %v, want %v", embed.Weight.Tensor().Shape(), expectedShape)
	}

	if len(embed.Parameters()) != 1 {
		t.Errorf("Parameters() length = %d, want 1", len(embed.Parameters()))
	}
}

// TestEmbedding_Forward tests embedding lookup.
func TestEmbedding_Forward(t *testing.T) {
	backend := autodiff.New(cpu.New())

	// Weight: row i = [i, i+0.5]
	weight, _ := tensor.FromSlice(
		[]float32{0, 0.5, 1, 1.5, 2, 2.5},
		tensor.Shape{3, 2}, backend)
	embed := nn.NewEmbeddingWithWeight(weight)

	indices, _ := tensor.FromSlice([]int32{2, 0, 1}, tensor.Shape{3}, backend)
	output := embed.Forward(indices)

	expectedShape := tensor.Shape{3, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}

	expected := []float32{2, 2.5, 0, 0.5, 1, 1.5}
	actual := output.Raw().AsFloat32()
	for i, exp := range expected {
		if !floatEqual(actual[i], exp, 1e-6) {
			t.Errorf("Output[%d] = %f, want %f", i, actual[i], exp)
		}
	}
}

// TestEmbedding_GradientAccumulates tests that repeated indices accumulate
// gradient in the same weight row.
func TestEmbedding_GradientAccumulates(t *testing.T) {
	backend := autodiff.New(cpu.New())

	weight, _ := tensor.FromSlice(
		[]float32{0, 0, 0, 0, 0, 0},
		tensor.Shape{3, 2}, backend)
	embed := nn.NewEmbeddingWithWeight(weight)

	indices, _ := tensor.FromSlice([]int32{1, 1, 2}, tensor.Shape{3}, backend)

	backend.Tape().StartRecording()
	output := embed.Forward(indices)
	loss := output.Sum()
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()
	backend.Tape().Clear()

	wGrad, ok := grads[weight.Raw()]
	if !ok {
		t.Fatal("no gradient for embedding weight")
	}

	// Row 0 unused, row 1 looked up twice, row 2 once.
	expected := []float32{0, 0, 2, 2, 1, 1}
	actual := wGrad.AsFloat32()
	for i, exp := range expected {
		if !floatEqual(actual[i], exp, 1e-6) {
			t.Errorf("WeightGrad[%d] = %f, want %f", i, actual[i], exp)
		}
	}
}

// TestCrossEntropyLoss_UniformLogits tests the loss value for a uniform
// distribution: -log(1/C) = log(C).
func TestCrossEntropyLoss_UniformLogits(t *testing.T) {
	backend := autodiff.New(cpu.New())
	criterion := nn.NewCrossEntropyLoss(backend)

	logits, _ := tensor.FromSlice(
		[]float32{1, 1, 1, 1, 2, 2, 2, 2},
		tensor.Shape{2, 4}, backend)
	targets, _ := tensor.FromSlice([]int32{0, 3}, tensor.Shape{2}, backend)

	loss := criterion.Forward(logits, targets)

	if len(loss.Shape()) != 0 {
		t.Errorf("loss shape = %v, want scalar []", loss.Shape())
	}

	// Equal logits give probability 1/4 to every class: loss = ln(4).
	want := float32(math.Log(4))
	if !floatEqual(loss.Item(), want, 1e-5) {
		t.Errorf("loss = %f, want %f", loss.Item(), want)
	}
}

// TestCrossEntropyLoss_Gradient tests the softmax-minus-one-hot gradient
// through the tape.
func TestCrossEntropyLoss_Gradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	criterion := nn.NewCrossEntropyLoss(backend)

	logits, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{1, 2}, backend)
	targets, _ := tensor.FromSlice([]int32{1}, tensor.Shape{1}, backend)

	backend.Tape().StartRecording()
	loss := criterion.Forward(logits, targets)
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()
	backend.Tape().Clear()

	grad, ok := grads[logits.Raw()]
	if !ok {
		t.Fatal("no gradient for logits")
	}

	// softmax([0,0]) = [0.5, 0.5]; one-hot target is class 1.
	// grad = ([0.5, 0.5] - [0, 1]) / batch = [0.5, -0.5]
	data := grad.AsFloat32()
	if !floatEqual(data[0], 0.5, 1e-5) || !floatEqual(data[1], -0.5, 1e-5) {
		t.Errorf("grad = %v, want [0.5 -0.5]", data)
	}
}

// TestCrossEntropyLoss_FallbackBackend tests the manual path used by
// backends without a fused CrossEntropy kernel.
func TestCrossEntropyLoss_FallbackBackend(t *testing.T) {
	backend := cpu.New()
	criterion := nn.NewCrossEntropyLoss(backend)

	logits, _ := tensor.FromSlice([]float32{3, 1, 3, 1}, tensor.Shape{2, 2}, backend)
	targets, _ := tensor.FromSlice([]int32{0, 0}, tensor.Shape{2}, backend)

	loss := criterion.Forward(logits, targets)

	// p(class 0) = e^3 / (e^3 + e^1) = 1 / (1 + e^-2)
	p := 1.0 / (1.0 + math.Exp(-2))
	want := float32(-math.Log(p))
	if !floatEqual(loss.Item(), want, 1e-5) {
		t.Errorf("loss = %f, want %f", loss.Item(), want)
	}
}

// TestMSELoss tests the mean squared error forward value.
func TestMSELoss(t *testing.T) {
	backend := autodiff.New(cpu.New())
	mse := nn.NewMSELoss(backend)

	predictions, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	targets, _ := tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{2, 2}, backend)

	loss := mse.Forward(predictions, targets)

	// mean([0, 1, 4, 9]) = 3.5
	if !floatEqual(loss.Item(), 3.5, 1e-5) {
		t.Errorf("loss = %f, want 3.5", loss.Item())
	}
}

// TestMSELoss_Gradient tests that MSE gradients flow to predictions.
func TestMSELoss_Gradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	mse := nn.NewMSELoss(backend)

	predictions, _ := tensor.FromSlice([]float32{2, 4}, tensor.Shape{2}, backend)
	targets, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2}, backend)

	backend.Tape().StartRecording()
	loss := mse.Forward(predictions, targets)
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()
	backend.Tape().Clear()

	grad, ok := grads[predictions.Raw()]
	if !ok {
		t.Fatal("no gradient for predictions")
	}

	// d/dp mean((p-t)^2) = 2(p-t)/n = [2*2/2, 2*4/2] = [2, 4]
	data := grad.AsFloat32()
	if !floatEqual(data[0], 2, 1e-5) || !floatEqual(data[1], 4, 1e-5) {
		t.Errorf("grad = %v, want [2 4]", data)
	}
}

// TestAccuracy tests batch classification accuracy.
func TestAccuracy(t *testing.T) {
	backend := cpu.New()

	// Predictions: argmax = [1, 0, 2]; targets = [1, 0, 1] -> 2/3 correct.
	logits, _ := tensor.FromSlice(
		[]float32{0, 5, 1, 9, 2, 3, 1, 2, 7},
		tensor.Shape{3, 3}, backend)
	targets, _ := tensor.FromSlice([]int32{1, 0, 1}, tensor.Shape{3}, backend)

	acc := nn.Accuracy(logits, targets)
	if !floatEqual(acc, 2.0/3.0, 1e-6) {
		t.Errorf("Accuracy = %f, want %f", acc, 2.0/3.0)
	}
}

// TestXavierInit tests that Xavier initialization stays within its bound.
func TestXavierInit(t *testing.T) {
	backend := cpu.New()

	fanIn, fanOut := 8, 4
	w := nn.Xavier(fanIn, fanOut, tensor.Shape{fanOut, fanIn}, backend)

	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	for i, v := range w.Raw().AsFloat32() {
		if v < -limit || v > limit {
			t.Errorf("Xavier[%d] = %f outside [%f, %f]", i, v, -limit, limit)
		}
	}
}

// TestUniformInit tests the recurrent weight initialization bound.
func TestUniformInit(t *testing.T) {
	backend := cpu.New()

	hidden := 16
	w := nn.Uniform(hidden, tensor.Shape{hidden, hidden}, backend)

	limit := float32(1.0 / math.Sqrt(float64(hidden)))
	for i, v := range w.Raw().AsFloat32() {
		if v < -limit || v > limit {
			t.Errorf("Uniform[%d] = %f outside [%f, %f]", i, v, -limit, limit)
		}
	}
}

// TestZerosOnes tests constant initializers.
func TestZerosOnes(t *testing.T) {
	backend := cpu.New()

	z := nn.Zeros(tensor.Shape{2, 3}, backend)
	for i, v := range z.Raw().AsFloat32() {
		if v != 0 {
			t.Errorf("Zeros[%d] = %f, want 0", i, v)
		}
	}

	o := nn.Ones(tensor.Shape{2, 3}, backend)
	for i, v := range o.Raw().AsFloat32() {
		if v != 1 {
			t.Errorf("Ones[%d] = %f, want 1", i, v)
		}
	}
}
