package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// BasicCell configures a vanilla recurrent cell:
// h' = act(x·Wxᵀ + h·Whᵀ + b).
type BasicCell[B tensor.Backend] struct {
	name       string
	numInputs  int
	numUnits   int
	activation step.Activation
	backend    B
}

// NewBasicCell creates a tanh basic cell configuration. Fails with
// ErrInvalidArgument on non-positive sizes.
func NewBasicCell[B tensor.Backend](numInputs, numUnits int, backend B) (*BasicCell[B], error) {
	return NewBasicCellWithActivation(numInputs, numUnits, step.ActTanh, backend)
}

// NewBasicCellWithActivation creates a basic cell configuration with an
// explicit activation.
func NewBasicCellWithActivation[B tensor.Backend](numInputs, numUnits int, activation step.Activation, backend B) (*BasicCell[B], error) {
	if numInputs <= 0 || numUnits <= 0 {
		return nil, fmt.Errorf("rnn: basic cell sizes must be positive, got inputs=%d units=%d: %w",
			numInputs, numUnits, ErrInvalidArgument)
	}

	return &BasicCell[B]{
		name:       "BasicRNNCell",
		numInputs:  numInputs,
		numUnits:   numUnits,
		activation: activation,
		backend:    backend,
	}, nil
}

// Name returns the cell's base name.
func (c *BasicCell[B]) Name() string {
	return c.name
}

// CreateInstance builds a fresh basic step cell with fresh weights. The
// mode does not affect the structure of a weight cell.
func (c *BasicCell[B]) CreateInstance(_ Mode) (*CellInstance[B], error) {
	handle := step.NewBasic(uniqueName(c.name), c.numInputs, c.numUnits, c.activation, c.backend)
	return &CellInstance[B]{
		Cell:      handle,
		Trainable: handle.Parameters(),
	}, nil
}

// OutputSize returns the hidden unit count.
func (c *BasicCell[B]) OutputSize() int {
	return c.numUnits
}

// StateSize returns {numUnits}: one hidden state tensor.
func (c *BasicCell[B]) StateSize() []int {
	return []int{c.numUnits}
}

// InputSize returns the expected input feature count.
func (c *BasicCell[B]) InputSize() int {
	return c.numInputs
}
