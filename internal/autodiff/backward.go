package autodiff

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// BackwardCapable is the interface for backends that support a backward
// pass. AutodiffBackend implements it; layers assert for it when they need
// gradients without knowing the concrete backend type.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of t with respect to every tensor on the tape.
//
// The output gradient is seeded with ones, which for a scalar loss gives
// dL/dL = 1. Returns a map from RawTensor to its gradient; parameters are
// looked up by their Raw() pointer.
//
// Example:
//
//	ad := autodiff.New(cpu.New())
//	ad.Tape().StartRecording()
//	x := tensor.Ones[float32](tensor.Shape{2}, ad)
//	y := x.Mul(x) // y = x²
//	grads := autodiff.Backward(y, ad)
//	gx := grads[x.Raw()] // dy/dx = 2x
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	outputGrad, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32 supported)", t.DType()))
	}
	data := outputGrad.AsFloat32()
	for i := range data {
		data[i] = 1.0
	}

	return tape.Backward(outputGrad, backend)
}
