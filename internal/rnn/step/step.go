// Package step implements the per-timestep math of recurrent cells.
//
// A step.Cell consumes one timestep of input [batch, features] together
// with the recurrent state and produces the output for that timestep plus
// the next state. Cells at this level are operational handles: they own
// their weight tensors and do tensor math, nothing else. Construction-time
// validation, instance lifecycles, and mode handling live one level up in
// the rnn package.
//
// All math is expressed through tensor operations, so running a cell under
// an autodiff backend records every step on the tape and Backward performs
// backpropagation through time.
package step

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// State is the recurrent state carried between timesteps. Cells define how
// many tensors the state holds and what they mean: a basic cell keeps one
// hidden tensor, an LSTM keeps {cell, hidden}, a stack concatenates the
// states of its layers.
type State[B tensor.Backend] []*tensor.Tensor[float32, B]

// Cell is one recurrence step.
//
// Step must not mutate the input or state tensors; it returns fresh
// tensors. ZeroState builds the initial state for a batch.
type Cell[B tensor.Backend] interface {
	// Name returns the cell's instance name.
	Name() string

	// Step consumes input [batch, features] and the current state,
	// returning the output [batch, units] and the next state.
	Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B])

	// ZeroState returns the all-zeros initial state for the batch size.
	ZeroState(batchSize int) State[B]
}

// Activation selects the nonlinearity of a basic cell.
type Activation int

const (
	// ActTanh is the standard RNN nonlinearity.
	ActTanh Activation = iota
	// ActRelu trades saturation for unbounded activations.
	ActRelu
)

// String returns the activation name.
func (a Activation) String() string {
	switch a {
	case ActTanh:
		return "tanh"
	case ActRelu:
		return "relu"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

// applyActivation runs the activation on a tensor.
func applyActivation[B tensor.Backend](a Activation, t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	switch a {
	case ActRelu:
		return t.Relu()
	default:
		return t.Tanh()
	}
}

// checkStepInput panics unless input is [batch, features] with the
// expected feature count.
func checkStepInput[B tensor.Backend](name string, input *tensor.Tensor[float32, B], inputSize int) {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("%s: expected 2D input [batch, features], got shape %v", name, shape))
	}
	if shape[1] != inputSize {
		panic(fmt.Sprintf("%s: expected input with %d features, got %d", name, inputSize, shape[1]))
	}
}

// checkState panics unless state holds the expected number of tensors.
func checkState[B tensor.Backend](name string, state State[B], want int) {
	if len(state) != want {
		panic(fmt.Sprintf("%s: expected state with %d tensors, got %d", name, want, len(state)))
	}
}
