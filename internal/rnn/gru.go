package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// GRUCell configures a gated recurrent unit. Its state is one hidden
// tensor of numUnits.
type GRUCell[B tensor.Backend] struct {
	name      string
	numInputs int
	numUnits  int
	backend   B
}

// NewGRUCell creates a GRU cell configuration. Fails with
// ErrInvalidArgument on non-positive sizes.
func NewGRUCell[B tensor.Backend](numInputs, numUnits int, backend B) (*GRUCell[B], error) {
	if numInputs <= 0 || numUnits <= 0 {
		return nil, fmt.Errorf("rnn: gru cell sizes must be positive, got inputs=%d units=%d: %w",
			numInputs, numUnits, ErrInvalidArgument)
	}

	return &GRUCell[B]{
		name:      "GRUCell",
		numInputs: numInputs,
		numUnits:  numUnits,
		backend:   backend,
	}, nil
}

// Name returns the cell's base name.
func (c *GRUCell[B]) Name() string {
	return c.name
}

// CreateInstance builds a fresh GRU step cell with fresh weights.
func (c *GRUCell[B]) CreateInstance(_ Mode) (*CellInstance[B], error) {
	handle := step.NewGRU(uniqueName(c.name), c.numInputs, c.numUnits, c.backend)
	return &CellInstance[B]{
		Cell:      handle,
		Trainable: handle.Parameters(),
	}, nil
}

// OutputSize returns the hidden unit count.
func (c *GRUCell[B]) OutputSize() int {
	return c.numUnits
}

// StateSize returns {numUnits}: one hidden state tensor.
func (c *GRUCell[B]) StateSize() []int {
	return []int{c.numUnits}
}

// InputSize returns the expected input feature count.
func (c *GRUCell[B]) InputSize() int {
	return c.numInputs
}
