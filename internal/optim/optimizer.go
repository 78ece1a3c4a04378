// Package optim implements the optimizers used to train recurrent networks.
//
// All optimizers consume the gradient map produced by autodiff.Backward and
// update parameters in place:
//
//	grads := autodiff.Backward(loss, backend)
//	optim.ClipGradNorm(params, grads, 5.0, 2)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Optimizer is the interface shared by all optimization algorithms.
type Optimizer interface {
	// Step applies one gradient update to every parameter that has an
	// entry in grads. Parameters without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate, for scheduling.
	SetLR(lr float32)

	// StateDict exports the optimizer's internal buffers for
	// checkpointing. Keys are stable across processes.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores buffers exported by StateDict.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// getGradient looks up the gradient for a parameter. Returns nil when the
// parameter was not part of the recorded computation.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
