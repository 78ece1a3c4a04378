package autodiff_test

import (
	"math"
	"testing"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/tensor"
)

// checkGradient compares an autodiff gradient against a central finite
// difference of f at every coordinate of x.
//
// f must be a pure function of the input values: it is re-run with
// perturbed copies on a fresh backend, so it cannot capture tensors from
// the recording backend.
func checkGradient(t *testing.T, name string, x []float32, shape tensor.Shape,
	f func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], in *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]],
) {
	t.Helper()

	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	in, err := tensor.FromSlice(x, shape, backend)
	if err != nil {
		t.Fatalf("%s: FromSlice: %v", name, err)
	}

	out := f(backend, in)
	grads := autodiff.Backward(out, backend)

	grad, ok := grads[in.Raw()]
	if !ok {
		t.Fatalf("%s: no gradient for input", name)
	}
	gradData := grad.AsFloat32()

	// Finite differences, one coordinate at a time.
	const epsilon = 1e-3
	eval := func(values []float32) float32 {
		evalBackend := autodiff.New(cpu.New())
		evalIn, _ := tensor.FromSlice(values, shape, evalBackend)
		return sumAll(f(evalBackend, evalIn))
	}

	for i := range x {
		plus := append([]float32(nil), x...)
		minus := append([]float32(nil), x...)
		plus[i] += epsilon
		minus[i] -= epsilon

		numerical := (eval(plus) - eval(minus)) / (2 * epsilon)

		if math.Abs(float64(gradData[i]-numerical)) > 2e-2 {
			t.Errorf("%s: grad[%d] = %f, numerical = %f", name, i, gradData[i], numerical)
		}
	}
}

func sumAll[B tensor.Backend](t *tensor.Tensor[float32, B]) float32 {
	var sum float32
	for _, v := range t.Data() {
		sum += v
	}
	return sum
}

func TestGradientCheck_TanhOfLinear(t *testing.T) {
	checkGradient(t, "tanh(x*x + x)", []float32{0.5, -0.3, 0.8, 0.1}, tensor.Shape{2, 2},
		func(_ *autodiff.AutodiffBackend[*cpu.CPUBackend], in *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]] {
			return in.Mul(in).Add(in).Tanh()
		})
}

func TestGradientCheck_SigmoidChain(t *testing.T) {
	checkGradient(t, "σ(x)·x", []float32{1.2, -0.7, 0.4}, tensor.Shape{3},
		func(_ *autodiff.AutodiffBackend[*cpu.CPUBackend], in *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]] {
			return in.Sigmoid().Mul(in)
		})
}

func TestGradientCheck_SoftmaxWeighted(t *testing.T) {
	checkGradient(t, "softmax(x)[0]", []float32{0.3, -0.2, 0.9, 0.5, 0.1, -0.6}, tensor.Shape{2, 3},
		func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], in *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]] {
			mask, _ := tensor.FromSlice([]float32{1, 0, 0, 0, 1, 0}, tensor.Shape{2, 3}, b)
			return in.Softmax(-1).Mul(mask)
		})
}

func TestGradientCheck_RecurrentStepShape(t *testing.T) {
	// One tanh recurrence step h' = tanh(x@W + h@U): the composite of
	// MatMul, broadcast Add, and Tanh that dominates unrolled tapes.
	checkGradient(t, "tanh(x@W + x@U)", []float32{0.2, -0.4, 0.6, 0.3}, tensor.Shape{2, 2},
		func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], in *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]]) *tensor.Tensor[float32, *autodiff.AutodiffBackend[*cpu.CPUBackend]] {
			w, _ := tensor.FromSlice([]float32{0.5, -0.1, 0.2, 0.7}, tensor.Shape{2, 2}, b)
			u, _ := tensor.FromSlice([]float32{-0.3, 0.4, 0.1, 0.2}, tensor.Shape{2, 2}, b)
			return in.MatMul(w).Add(in.MatMul(u)).Tanh()
		})
}
