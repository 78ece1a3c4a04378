package lm

import (
	"fmt"
	"math"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/optim"
	"github.com/born-ml/recurrent/internal/rnn"
	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
	"github.com/born-ml/recurrent/internal/textdata"
)

// Trainer drives truncated backpropagation through time over textdata
// batches: forward with dropout, cross-entropy loss, backward, global
// norm clipping, optimizer step.
//
// The recurrent state is carried from one Step to the next, detached at
// the window boundary, because consecutive batches from
// textdata.Batches continue the same token streams. Call ResetState at
// epoch boundaries, where the streams wrap around.
//
// Not safe for concurrent use.
type Trainer[B autodiff.BackwardCapable] struct {
	model     *Model[B]
	optimizer optim.Optimizer
	backend   B
	clipNorm  float64
	state     step.State[B]
}

// StepStats reports one optimizer step.
type StepStats struct {
	// Loss is the mean next-token cross-entropy of the batch.
	Loss float32
	// GradNorm is the global L2 gradient norm measured before clipping,
	// 0 when clipping is disabled.
	GradNorm float64
	// Tokens is the number of predictions in the batch.
	Tokens int
}

// NewTrainer wires a model to an optimizer. The model must have been
// built for rnn.Training so its dropout configuration is live. clipNorm
// bounds the global gradient norm; <= 0 disables clipping.
func NewTrainer[B autodiff.BackwardCapable](model *Model[B], optimizer optim.Optimizer, clipNorm float64) (*Trainer[B], error) {
	if model == nil {
		return nil, fmt.Errorf("lm: trainer needs a model: %w", rnn.ErrInvalidArgument)
	}
	if model.Mode() != rnn.Training {
		return nil, fmt.Errorf("lm: trainer needs a model built for %v, got %v: %w",
			rnn.Training, model.Mode(), rnn.ErrInvalidArgument)
	}
	if optimizer == nil {
		return nil, fmt.Errorf("lm: trainer needs an optimizer: %w", rnn.ErrInvalidArgument)
	}

	return &Trainer[B]{
		model:     model,
		optimizer: optimizer,
		backend:   model.Backend(),
		clipNorm:  clipNorm,
	}, nil
}

// Step runs one training step on a batch and updates the parameters.
func (t *Trainer[B]) Step(batch textdata.Batch) (StepStats, error) {
	tape := t.backend.GetTape()
	t.optimizer.ZeroGrad()

	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	tokens := tensor.New[int32, B](batch.Input, t.backend)
	logits, final, err := t.model.forward(tokens, t.state, rnn.Training)
	if err != nil {
		return StepStats{}, err
	}

	targets := tensor.New[int32, B](batch.Target, t.backend)
	loss := t.model.criterion.Forward(logits, targets.Reshape(targets.NumElements()))
	lossValue := loss.Raw().AsFloat32()[0]

	grads := autodiff.Backward(loss, t.backend)
	gradNorm := optim.ClipGradNorm(t.model.Parameters(), grads, t.clipNorm, 2)
	t.optimizer.Step(grads)

	// Carry the final state into the next window, detached so the next
	// backward pass stops at the window boundary.
	carried := make(step.State[B], len(final))
	for i, s := range final {
		carried[i] = s.Detach()
	}
	t.state = carried

	return StepStats{
		Loss:     lossValue,
		GradNorm: gradNorm,
		Tokens:   targets.NumElements(),
	}, nil
}

// ResetState drops the carried recurrent state. The next Step starts
// from zeros.
func (t *Trainer[B]) ResetState() {
	t.state = nil
}

// Evaluate returns the mean loss over held-out batches, forward only and
// without dropout.
func (t *Trainer[B]) Evaluate(batches []textdata.Batch) (float64, error) {
	if len(batches) == 0 {
		return 0, fmt.Errorf("lm: evaluate needs at least one batch: %w", rnn.ErrInvalidArgument)
	}

	total := 0.0
	for _, batch := range batches {
		loss, err := t.model.Loss(batch)
		if err != nil {
			return 0, err
		}
		total += float64(loss)
	}
	return total / float64(len(batches)), nil
}

// Perplexity converts a mean cross-entropy loss to perplexity.
func Perplexity(loss float64) float64 {
	return math.Exp(loss)
}
