package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// DefaultForgetBias is the standard initial forget-gate bias. Starting
// positive keeps the cell state flowing until the gates learn.
const DefaultForgetBias float32 = 1.0

// LSTMCell configures a long short-term memory cell. Its state is two
// tensors {c, h} of numUnits each.
type LSTMCell[B tensor.Backend] struct {
	name       string
	numInputs  int
	numUnits   int
	forgetBias float32
	backend    B
}

// NewLSTMCell creates an LSTM cell configuration with the default forget
// bias. Fails with ErrInvalidArgument on non-positive sizes.
func NewLSTMCell[B tensor.Backend](numInputs, numUnits int, backend B) (*LSTMCell[B], error) {
	return NewLSTMCellWithForgetBias(numInputs, numUnits, DefaultForgetBias, backend)
}

// NewLSTMCellWithForgetBias creates an LSTM cell configuration with an
// explicit initial forget-gate bias.
func NewLSTMCellWithForgetBias[B tensor.Backend](numInputs, numUnits int, forgetBias float32, backend B) (*LSTMCell[B], error) {
	if numInputs <= 0 || numUnits <= 0 {
		return nil, fmt.Errorf("rnn: lstm cell sizes must be positive, got inputs=%d units=%d: %w",
			numInputs, numUnits, ErrInvalidArgument)
	}

	return &LSTMCell[B]{
		name:       "LSTMCell",
		numInputs:  numInputs,
		numUnits:   numUnits,
		forgetBias: forgetBias,
		backend:    backend,
	}, nil
}

// Name returns the cell's base name.
func (c *LSTMCell[B]) Name() string {
	return c.name
}

// CreateInstance builds a fresh LSTM step cell with fresh weights.
func (c *LSTMCell[B]) CreateInstance(_ Mode) (*CellInstance[B], error) {
	handle := step.NewLSTM(uniqueName(c.name), c.numInputs, c.numUnits, c.forgetBias, c.backend)
	return &CellInstance[B]{
		Cell:      handle,
		Trainable: handle.Parameters(),
	}, nil
}

// OutputSize returns the hidden unit count.
func (c *LSTMCell[B]) OutputSize() int {
	return c.numUnits
}

// StateSize returns {numUnits, numUnits}: the cell state c and hidden
// state h.
func (c *LSTMCell[B]) StateSize() []int {
	return []int{c.numUnits, c.numUnits}
}

// InputSize returns the expected input feature count.
func (c *LSTMCell[B]) InputSize() int {
	return c.numInputs
}
