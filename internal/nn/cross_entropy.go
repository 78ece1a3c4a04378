package nn

import (
	"math"

	"github.com/born-ml/recurrent/internal/tensor"
)

// CrossEntropyLoss computes cross-entropy loss for next-token prediction
// and other multi-class classification objectives.
//
// The implementation uses the LogSoftmax + NLLLoss decomposition for
// numerical stability.
//
// Mathematical Formulation:
//
//	Loss = -log_probs[target]
//	where log_probs = LogSoftmax(logits)
//
// Gradient (Backward):
//
//	∂L/∂logits = Softmax(logits) - y_one_hot
//
// Usage:
//
//	criterion := nn.NewCrossEntropyLoss[Backend](backend)
//	logits := model.Forward(input)             // [batch_size, num_classes]
//	loss := criterion.Forward(logits, targets) // targets: [batch_size] (class indices)
//
// Key Properties:
//   - Expects raw logits (unnormalized scores) as input
//   - Uses log-sum-exp trick for numerical stability
//   - Prevents overflow when logits > 88 (float32 limit)
//   - Prevents underflow when all logits are very negative
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{
		backend: backend,
	}
}

// Forward computes cross-entropy loss.
//
// Parameters:
//   - logits: Model predictions (unnormalized scores) with shape [batch_size, num_classes]
//   - targets: Ground truth class indices with shape [batch_size] (values in range [0, num_classes-1])
//
// Returns the scalar loss value (mean over batch), shape [].
//
// When using an autodiff-aware backend, this operation is recorded on the
// tape as a single fused node, so the backward pass computes the exact
// softmax-minus-one-hot gradient instead of chaining through separate
// softmax and log operations.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	// Check if backend supports CrossEntropy (autodiff-aware)
	type CrossEntropyBackend interface {
		CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
	}

	if adBackend, ok := any(c.backend).(CrossEntropyBackend); ok {
		// Use autodiff-aware version that records on tape
		resultRaw := adBackend.CrossEntropy(logits.Raw(), targets.Raw())
		return tensor.New[float32, B](resultRaw, c.backend)
	}

	// Fallback to manual computation for non-autodiff backends
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyLoss: logits must be 2D [batch_size, num_classes]")
	}

	batchSize := shape[0]
	numClasses := shape[1]

	targetsData := targets.Raw().AsInt32()
	if len(targetsData) != batchSize {
		panic("CrossEntropyLoss: targets must have shape [batch_size]")
	}

	logitsData := logits.Raw().AsFloat32()

	totalLoss := float32(0.0)

	for b := 0; b < batchSize; b++ {
		sampleLogits := logitsData[b*numClasses : (b+1)*numClasses]
		logProbs := logSoftmax(sampleLogits)

		target := int(targetsData[b])
		if target < 0 || target >= numClasses {
			panic("CrossEntropyLoss: target index out of bounds")
		}

		totalLoss += -logProbs[target]
	}

	meanLoss := totalLoss / float32(batchSize)

	lossRaw, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(err)
	}
	lossRaw.AsFloat32()[0] = meanLoss

	return tensor.New[float32, B](lossRaw, c.backend)
}

// Parameters returns an empty slice (loss functions have no trainable parameters).
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// logSoftmax computes log(softmax(z)) in a numerically stable way.
//
// Formula:
//
//	LogSoftmax(z)[i] = z[i] - LogSumExp(z)
//	                 = z[i] - (max(z) + log(Σ exp(z - max(z))))
//
// The log-sum-exp trick prevents overflow by subtracting max(z) before
// exponentiating.
func logSoftmax(z []float32) []float32 {
	n := len(z)
	result := make([]float32, n)

	maxZ := z[0]
	for i := 1; i < n; i++ {
		if z[i] > maxZ {
			maxZ = z[i]
		}
	}

	sumExp := float32(0.0)
	for i := 0; i < n; i++ {
		sumExp += float32(math.Exp(float64(z[i] - maxZ)))
	}

	logSumExp := maxZ + float32(math.Log(float64(sumExp)))

	for i := 0; i < n; i++ {
		result[i] = z[i] - logSumExp
	}

	return result
}

// argmax returns the index of the maximum value in the slice.
func argmax(z []float32) int {
	maxIdx := 0
	maxVal := z[0]
	for i := 1; i < len(z); i++ {
		if z[i] > maxVal {
			maxVal = z[i]
			maxIdx = i
		}
	}
	return maxIdx
}

// Accuracy computes classification accuracy for a batch.
//
// Parameters:
//   - logits: Model predictions [batch_size, num_classes]
//   - targets: Ground truth class indices [batch_size]
//
// Returns accuracy as a float between 0 and 1.
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	shape := logits.Shape()
	batchSize := shape[0]
	numClasses := shape[1]

	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsInt32()

	correct := 0
	for b := 0; b < batchSize; b++ {
		sampleLogits := logitsData[b*numClasses : (b+1)*numClasses]
		if argmax(sampleLogits) == int(targetsData[b]) {
			correct++
		}
	}

	return float32(correct) / float32(batchSize)
}
