package optim

import (
	"math"

	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/tensor"
)

// ClipGradNorm rescales the gradients of params in place so their global
// normType-norm does not exceed maxNorm. Returns the norm measured before
// clipping.
//
// Unrolled recurrent networks multiply Jacobians across timesteps, so the
// backward pass can blow up; clipping the global norm before the optimizer
// step keeps updates bounded. A maxNorm <= 0 disables clipping; a
// normType <= 0 defaults to the L2 norm.
func ClipGradNorm[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm, normType float64) float64 {
	if maxNorm <= 0 {
		return 0
	}
	if normType <= 0 {
		normType = 2
	}

	total := 0.0
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		for _, g := range grad.AsFloat32() {
			if normType == 2 {
				total += float64(g) * float64(g)
			} else {
				total += math.Pow(math.Abs(float64(g)), normType)
			}
		}
	}

	norm := math.Pow(total, 1.0/normType)
	if norm > maxNorm && norm > 0 {
		scale := float32(maxNorm / norm)
		for _, param := range params {
			grad := getGradient(param, grads)
			if grad == nil {
				continue
			}
			data := grad.AsFloat32()
			for i := range data {
				data[i] *= scale
			}
		}
	}

	return norm
}

// ClipGradValue clamps every gradient element of params in place to the
// range [-clipValue, clipValue]. A clipValue <= 0 disables clipping.
func ClipGradValue[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, clipValue float64) {
	if clipValue <= 0 {
		return
	}

	limit := float32(clipValue)
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		data := grad.AsFloat32()
		for i := range data {
			if data[i] > limit {
				data[i] = limit
			} else if data[i] < -limit {
				data[i] = -limit
			}
		}
	}
}
