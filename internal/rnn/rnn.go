// Package rnn provides the recurrent cell configuration layer: declarative
// cell descriptions that validate their parameters up front and stamp out
// operational step cells on demand.
//
// The split mirrors how recurrent models are actually assembled. A Cell is
// a configuration — layer sizes, keep probabilities, composition — checked
// once at construction. CreateInstance(mode) turns the configuration into
// a fresh operational instance: a step.Cell handle that does the
// per-timestep math plus the parameter sets that drive it. Mode matters
// because some cells change structure between phases; the dropout wrapper
// injects its masking operator only for Training and hands back the inner
// instance untouched for Evaluation and Inference.
//
// Wrappers compose transparently: a DropoutWrapper around a ResidualWrapper
// around an LSTMCell is itself a Cell, and the training loop never needs to
// know what the tree looks like.
package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Mode is the execution phase an instance is created for.
type Mode int

const (
	// Training enables regularization such as dropout.
	Training Mode = iota
	// Evaluation runs the model deterministically on held-out data.
	Evaluation
	// Inference runs the model deterministically in production.
	Inference
)

// String returns the mode name for logs.
func (m Mode) String() string {
	switch m {
	case Training:
		return "training"
	case Evaluation:
		return "evaluation"
	case Inference:
		return "inference"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Cell is a validated recurrent cell configuration.
//
// Cells are cheap descriptions; the weights live in the instances.
// CreateInstance builds a fresh operational instance for the mode, with
// ownership of the returned instance transferred to the caller. Calling it
// twice gives two independent instances with independent weights.
type Cell[B tensor.Backend] interface {
	// Name returns the configured cell name.
	Name() string

	// CreateInstance builds a fresh operational instance for the mode.
	CreateInstance(mode Mode) (*CellInstance[B], error)

	// OutputSize returns the per-timestep output width.
	OutputSize() int

	// StateSize returns the width of each state tensor, in state order.
	StateSize() []int
}

// CellInstance is an operational cell: the step handle that does the math
// plus the parameters behind it, split into trainable and non-trainable
// sets for the optimizer.
type CellInstance[B tensor.Backend] struct {
	Cell         step.Cell[B]
	Trainable    []*nn.Parameter[B]
	NonTrainable []*nn.Parameter[B]
}

// Parameters returns the trainable and non-trainable sets concatenated,
// trainable first.
func (ci *CellInstance[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, len(ci.Trainable)+len(ci.NonTrainable))
	params = append(params, ci.Trainable...)
	params = append(params, ci.NonTrainable...)
	return params
}
