package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/recurrent/internal/tensor"
)

// CrossEntropyOp represents the fused cross-entropy loss operation.
//
// Forward:
//
//	Loss = mean(-log_softmax(logits)[targets])
//
// Where log_softmax uses the log-sum-exp trick for numerical stability:
//
//	log_softmax(z) = z - (max(z) + log(Σ exp(z - max(z))))
//
// Backward:
//
//	∂L/∂logits = (softmax(logits) - y_one_hot) / batch_size
//
// The fusion is why softmax and cross-entropy are combined in one op: the
// combined gradient is a single subtraction, with no Jacobian in sight.
//
// Shapes:
//   - logits: [batch_size, num_classes]
//   - targets: [batch_size] (class indices, int32)
//   - output: scalar loss (mean over batch)
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a new cross-entropy operation.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Inputs returns the logits (targets are indices and get no gradient).
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to logits:
//
//	∂L/∂logits[b,i] = (softmax(logits[b])[i] - 1{i == targets[b]}) / batch_size
//
// The division by batch size mirrors the mean in the forward pass, and the
// upstream gradient (usually 1.0) scales the whole expression.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logitsShape := op.logits.Shape()
	batchSize := logitsShape[0]
	numClasses := logitsShape[1]

	logitsGrad, err := tensor.NewRaw(logitsShape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(err)
	}

	logitsData := op.logits.AsFloat32()
	targetsData := op.targets.AsInt32()
	gradData := logitsGrad.AsFloat32()
	gradScale := outputGrad.AsFloat32()[0]

	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]
		probs := softmaxRow(row)

		target := int(targetsData[b])
		for i := 0; i < numClasses; i++ {
			grad := probs[i]
			if i == target {
				grad -= 1.0
			}
			gradData[b*numClasses+i] = gradScale * grad / float32(batchSize)
		}
	}

	return []*tensor.RawTensor{logitsGrad}
}

// CrossEntropyForward computes the mean cross-entropy loss.
//
// The loss layer calls this through the backend's CrossEntropy capability;
// it is exported so non-autodiff callers (evaluation loops) can reuse it.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	logitsShape := logits.Shape()
	if len(logitsShape) != 2 {
		panic(fmt.Sprintf("cross-entropy: logits must be 2D [batch, classes], got %v", logitsShape))
	}

	targetsShape := targets.Shape()
	if len(targetsShape) != 1 {
		panic(fmt.Sprintf("cross-entropy: targets must be 1D [batch], got %v", targetsShape))
	}

	batchSize := logitsShape[0]
	numClasses := logitsShape[1]

	if targetsShape[0] != batchSize {
		panic(fmt.Sprintf("cross-entropy: batch mismatch: logits %d vs targets %d", batchSize, targetsShape[0]))
	}

	output, err := tensor.NewRaw(tensor.Shape{}, logits.DType(), device)
	if err != nil {
		panic(err)
	}

	logitsData := logits.AsFloat32()
	targetsData := targets.AsInt32()

	totalLoss := float32(0)
	for b := 0; b < batchSize; b++ {
		row := logitsData[b*numClasses : (b+1)*numClasses]

		target := int(targetsData[b])
		if target < 0 || target >= numClasses {
			panic(fmt.Sprintf("cross-entropy: target %d out of bounds [0, %d)", target, numClasses))
		}

		totalLoss += -logSoftmaxAt(row, target)
	}

	output.AsFloat32()[0] = totalLoss / float32(batchSize)

	return output
}

// softmaxRow computes numerically stable softmax for a single row.
func softmaxRow(logits []float32) []float32 {
	probs := make([]float32, len(logits))

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sumExp := float32(0)
	for i, v := range logits {
		probs[i] = float32(math.Exp(float64(v - maxVal)))
		sumExp += probs[i]
	}

	for i := range probs {
		probs[i] /= sumExp
	}

	return probs
}

// logSoftmaxAt computes log_softmax(logits)[target] with the log-sum-exp trick.
func logSoftmaxAt(logits []float32, target int) float32 {
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sumExp := float32(0)
	for _, v := range logits {
		sumExp += float32(math.Exp(float64(v - maxVal)))
	}
	logSumExp := maxVal + float32(math.Log(float64(sumExp)))

	return logits[target] - logSumExp
}
