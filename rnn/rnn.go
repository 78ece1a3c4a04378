// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rnn

import (
	"github.com/born-ml/recurrent/internal/rnn"
	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Lifecycle

// Mode is the execution phase an instance is created for.
type Mode = rnn.Mode

// Mode constants.
const (
	Training   Mode = rnn.Training
	Evaluation Mode = rnn.Evaluation
	Inference  Mode = rnn.Inference
)

// Cell is a validated cell configuration that stamps out operational
// instances per mode.
type Cell[B tensor.Backend] = rnn.Cell[B]

// CellInstance is a fresh operational instance: the step handle plus the
// trainable and non-trainable parameter sets behind it.
type CellInstance[B tensor.Backend] = rnn.CellInstance[B]

// StepCell is the operational handle inside a CellInstance: one recurrence
// step over [batch, features] input and recurrent state.
type StepCell[B tensor.Backend] = step.Cell[B]

// State is the recurrent state carried between timesteps.
type State[B tensor.Backend] = step.State[B]

// ErrInvalidArgument is returned by constructors for out-of-range or
// inconsistent configuration. Test with errors.Is.
var ErrInvalidArgument = rnn.ErrInvalidArgument

// Cells

// BasicCell is the vanilla recurrent cell: h' = act(x·Wᵀ + h·Uᵀ + b).
type BasicCell[B tensor.Backend] = rnn.BasicCell[B]

// Activation selects the nonlinearity of a basic cell.
type Activation = step.Activation

// Activation constants.
const (
	ActTanh Activation = step.ActTanh
	ActRelu Activation = step.ActRelu
)

// NewBasicCell creates a tanh basic cell configuration.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	cell, err := rnn.NewBasicCell(64, 128, backend)
func NewBasicCell[B tensor.Backend](numInputs, numUnits int, backend B) (*BasicCell[B], error) {
	return rnn.NewBasicCell(numInputs, numUnits, backend)
}

// NewBasicCellWithActivation creates a basic cell with a chosen nonlinearity.
func NewBasicCellWithActivation[B tensor.Backend](numInputs, numUnits int, activation Activation, backend B) (*BasicCell[B], error) {
	return rnn.NewBasicCellWithActivation(numInputs, numUnits, activation, backend)
}

// LSTMCell is the four-gate long short-term memory cell.
type LSTMCell[B tensor.Backend] = rnn.LSTMCell[B]

// DefaultForgetBias is the conventional forget-gate bias offset.
const DefaultForgetBias = rnn.DefaultForgetBias

// NewLSTMCell creates an LSTM cell configuration with the default forget bias.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	cell, err := rnn.NewLSTMCell(64, 128, backend)
func NewLSTMCell[B tensor.Backend](numInputs, numUnits int, backend B) (*LSTMCell[B], error) {
	return rnn.NewLSTMCell(numInputs, numUnits, backend)
}

// NewLSTMCellWithForgetBias creates an LSTM cell with an explicit forget bias.
func NewLSTMCellWithForgetBias[B tensor.Backend](numInputs, numUnits int, forgetBias float32, backend B) (*LSTMCell[B], error) {
	return rnn.NewLSTMCellWithForgetBias(numInputs, numUnits, forgetBias, backend)
}

// GRUCell is the gated recurrent unit cell.
type GRUCell[B tensor.Backend] = rnn.GRUCell[B]

// NewGRUCell creates a GRU cell configuration.
func NewGRUCell[B tensor.Backend](numInputs, numUnits int, backend B) (*GRUCell[B], error) {
	return rnn.NewGRUCell(numInputs, numUnits, backend)
}

// Wrappers

// DropoutConfig holds the dropout wrapper's keep probabilities and seeding.
type DropoutConfig = rnn.DropoutConfig

// DefaultDropoutConfig returns keep-everything dropout with a random seed.
func DefaultDropoutConfig() DropoutConfig {
	return rnn.DefaultDropoutConfig()
}

// DropoutWrapper injects dropout around a cell's instances for Training
// and passes the inner instance through unchanged for every other mode.
type DropoutWrapper[B tensor.Backend] = rnn.DropoutWrapper[B]

// NewDropout wraps a cell with dropout regularization. Keep probabilities
// live in (0, 1]; construction fails with ErrInvalidArgument outside that
// range.
//
// Example:
//
//	config := rnn.DefaultDropoutConfig()
//	config.InputKeepProb = 0.9
//	wrapped, err := rnn.NewDropout(cell, config)
func NewDropout[B tensor.Backend](cell Cell[B], config DropoutConfig) (*DropoutWrapper[B], error) {
	return rnn.NewDropout(cell, config)
}

// ResidualWrapper adds the cell's input to its output in every mode.
type ResidualWrapper[B tensor.Backend] = rnn.ResidualWrapper[B]

// NewResidual wraps a cell with a residual connection.
func NewResidual[B tensor.Backend](cell Cell[B]) (*ResidualWrapper[B], error) {
	return rnn.NewResidual(cell)
}

// StackedCell composes cells into a multi-layer cell.
type StackedCell[B tensor.Backend] = rnn.StackedCell[B]

// NewStacked composes cells into layers, output of one feeding the next.
// Layer widths are validated at construction.
//
// Example:
//
//	l1, _ := rnn.NewLSTMCell(64, 128, backend)
//	l2, _ := rnn.NewLSTMCell(128, 128, backend)
//	stack, err := rnn.NewStacked(l1, l2)
func NewStacked[B tensor.Backend](cells ...Cell[B]) (*StackedCell[B], error) {
	return rnn.NewStacked(cells...)
}

// Execution

// Unroll runs an instance's step handle over the time dimension of inputs
// [seq, batch, features] and returns the stacked outputs [seq, batch,
// units] plus the final state. Under a recording autodiff backend a single
// Backward over the result is backpropagation through time.
func Unroll[B tensor.Backend](
	cell StepCell[B],
	inputs *tensor.Tensor[float32, B],
	initial State[B],
) (*tensor.Tensor[float32, B], State[B], error) {
	return rnn.Unroll(cell, inputs, initial)
}
