package step

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Stacked chains cells into a multi-layer step: the output of layer i is
// the input of layer i+1. The combined state is the concatenation of the
// per-layer states in layer order; Stacked remembers each layer's state
// arity so it can split and regroup on every step.
type Stacked[B tensor.Backend] struct {
	name  string
	cells []Cell[B]
	arity []int // state tensors per layer
}

// NewStacked creates a stacked step cell. Layer size compatibility is the
// caller's responsibility; a mismatch fails inside the offending layer's
// Step.
func NewStacked[B tensor.Backend](name string, cells []Cell[B]) *Stacked[B] {
	if len(cells) == 0 {
		panic(fmt.Sprintf("%s: stacked cell needs at least one layer", name))
	}

	arity := make([]int, len(cells))
	for i, cell := range cells {
		arity[i] = len(cell.ZeroState(1))
	}

	return &Stacked[B]{name: name, cells: cells, arity: arity}
}

// Name returns the cell's instance name.
func (s *Stacked[B]) Name() string {
	return s.name
}

// Step feeds the input through every layer in order.
func (s *Stacked[B]) Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B]) {
	total := 0
	for _, n := range s.arity {
		total += n
	}
	checkState(s.name, state, total)

	x := input
	next := make(State[B], 0, total)
	offset := 0

	for i, cell := range s.cells {
		layerState := State[B](state[offset : offset+s.arity[i]])
		offset += s.arity[i]

		var layerNext State[B]
		x, layerNext = cell.Step(x, layerState)
		next = append(next, layerNext...)
	}

	return x, next
}

// ZeroState concatenates the per-layer zero states.
func (s *Stacked[B]) ZeroState(batchSize int) State[B] {
	state := make(State[B], 0, len(s.cells))
	for _, cell := range s.cells {
		state = append(state, cell.ZeroState(batchSize)...)
	}
	return state
}

// Cells returns the layer cells in order.
func (s *Stacked[B]) Cells() []Cell[B] {
	return s.cells
}

// InputSize returns the first layer's input width, or -1 if unknown.
func (s *Stacked[B]) InputSize() int {
	if sized, ok := s.cells[0].(interface{ InputSize() int }); ok {
		return sized.InputSize()
	}
	return -1
}
