package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// StackedCell composes cells into one multi-layer cell: layer i's output
// feeds layer i+1. Its state is the concatenation of the per-layer states
// and its parameters the concatenation of the per-layer parameters, both
// in layer order.
type StackedCell[B tensor.Backend] struct {
	name  string
	cells []Cell[B]
}

// NewStacked creates a multi-layer cell configuration. Layer chaining is
// validated for every cell that reports its input size: layer i's
// OutputSize must equal layer i+1's input size. Fails with
// ErrInvalidArgument on an empty or nil layer list or a chaining mismatch.
func NewStacked[B tensor.Backend](cells ...Cell[B]) (*StackedCell[B], error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("rnn: stacked cell needs at least one layer: %w", ErrInvalidArgument)
	}

	for i, cell := range cells {
		if cell == nil {
			return nil, fmt.Errorf("rnn: stacked cell layer %d is nil: %w", i, ErrInvalidArgument)
		}
	}

	for i := 1; i < len(cells); i++ {
		sized, ok := cells[i].(interface{ InputSize() int })
		if !ok {
			continue
		}
		want := sized.InputSize()
		if want >= 0 && cells[i-1].OutputSize() != want {
			return nil, fmt.Errorf("rnn: stacked cell layer %d outputs %d but layer %d expects %d: %w",
				i-1, cells[i-1].OutputSize(), i, want, ErrInvalidArgument)
		}
	}

	return &StackedCell[B]{name: "StackedRNNCell", cells: cells}, nil
}

// Name returns the cell's base name.
func (s *StackedCell[B]) Name() string {
	return s.name
}

// CreateInstance builds fresh instances of every layer and combines them:
// the step handles are stacked and the parameter sets concatenated in
// layer order.
func (s *StackedCell[B]) CreateInstance(mode Mode) (*CellInstance[B], error) {
	handles := make([]step.Cell[B], len(s.cells))

	var trainable, nonTrainable []*nn.Parameter[B]
	for i, cell := range s.cells {
		inst, err := cell.CreateInstance(mode)
		if err != nil {
			return nil, fmt.Errorf("rnn: stacked cell layer %d: %w", i, err)
		}
		handles[i] = inst.Cell
		trainable = append(trainable, inst.Trainable...)
		nonTrainable = append(nonTrainable, inst.NonTrainable...)
	}

	handle := step.NewStacked(uniqueName(s.name), handles)

	return &CellInstance[B]{
		Cell:         handle,
		Trainable:    trainable,
		NonTrainable: nonTrainable,
	}, nil
}

// OutputSize returns the last layer's output size.
func (s *StackedCell[B]) OutputSize() int {
	return s.cells[len(s.cells)-1].OutputSize()
}

// StateSize concatenates the per-layer state sizes in layer order.
func (s *StackedCell[B]) StateSize() []int {
	var sizes []int
	for _, cell := range s.cells {
		sizes = append(sizes, cell.StateSize()...)
	}
	return sizes
}

// InputSize returns the first layer's input width, or -1 if unknown.
func (s *StackedCell[B]) InputSize() int {
	if sized, ok := s.cells[0].(interface{ InputSize() int }); ok {
		return sized.InputSize()
	}
	return -1
}

// Layers returns the layer configurations in order.
func (s *StackedCell[B]) Layers() []Cell[B] {
	return s.cells
}
