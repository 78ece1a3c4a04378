package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// ResidualWrapper adds the step input to the step output of the wrapped
// cell. Unlike dropout, residual connections are part of the model in
// every mode, so the wrapper decorates instances for Training, Evaluation,
// and Inference alike.
type ResidualWrapper[B tensor.Backend] struct {
	name string
	cell Cell[B]
}

// NewResidual wraps cell with a residual connection. The cell's output
// width must equal its input width; when the cell reports its input size
// the mismatch is caught here, otherwise it surfaces as a shape panic at
// step time. Fails with ErrInvalidArgument on a nil cell.
func NewResidual[B tensor.Backend](cell Cell[B]) (*ResidualWrapper[B], error) {
	if cell == nil {
		return nil, fmt.Errorf("rnn: residual wrapper needs a cell: %w", ErrInvalidArgument)
	}

	if sized, ok := cell.(interface{ InputSize() int }); ok {
		if in := sized.InputSize(); in >= 0 && in != cell.OutputSize() {
			return nil, fmt.Errorf("rnn: residual wrapper needs matching sizes, cell maps %d -> %d: %w",
				in, cell.OutputSize(), ErrInvalidArgument)
		}
	}

	return &ResidualWrapper[B]{name: "ResidualRNNCell", cell: cell}, nil
}

// Name returns the wrapped cell's name.
func (r *ResidualWrapper[B]) Name() string {
	return r.cell.Name()
}

// CreateInstance builds the wrapped cell's instance and decorates its step
// handle with the residual connection. Parameter sets pass through
// unchanged.
func (r *ResidualWrapper[B]) CreateInstance(mode Mode) (*CellInstance[B], error) {
	inner, err := r.cell.CreateInstance(mode)
	if err != nil {
		return nil, err
	}

	handle := step.NewResidual(uniqueName(r.name), inner.Cell)

	return &CellInstance[B]{
		Cell:         handle,
		Trainable:    inner.Trainable,
		NonTrainable: inner.NonTrainable,
	}, nil
}

// OutputSize returns the wrapped cell's output size.
func (r *ResidualWrapper[B]) OutputSize() int {
	return r.cell.OutputSize()
}

// StateSize returns the wrapped cell's state sizes.
func (r *ResidualWrapper[B]) StateSize() []int {
	return r.cell.StateSize()
}

// InputSize returns the wrapped cell's input width, or -1 if unknown.
func (r *ResidualWrapper[B]) InputSize() int {
	if sized, ok := r.cell.(interface{ InputSize() int }); ok {
		return sized.InputSize()
	}
	return -1
}
