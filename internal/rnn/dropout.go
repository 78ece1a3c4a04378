package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// DropoutConfig holds the dropout wrapper's keep probabilities and
// seeding. The zero value is not usable; start from DefaultDropoutConfig.
type DropoutConfig struct {
	// InputKeepProb is the probability an input element survives.
	InputKeepProb float32
	// OutputKeepProb is the probability an output element survives.
	OutputKeepProb float32
	// StateKeepProb is the probability a state element survives.
	StateKeepProb float32

	// Seed for reproducible masks. -1 = nondeterministic.
	Seed int64

	// Name is the base name for instances; each created instance gets a
	// uniquified variant of it.
	Name string
}

// DefaultDropoutConfig returns keep-everything dropout with a random seed.
func DefaultDropoutConfig() DropoutConfig {
	return DropoutConfig{
		InputKeepProb:  1.0,
		OutputKeepProb: 1.0,
		StateKeepProb:  1.0,
		Seed:           -1,
		Name:           "DropoutRNNCell",
	}
}

// DropoutWrapper is a cell decorator that injects dropout for training.
//
// It delegates everything to the wrapped cell and changes exactly one
// thing: instances created for Training get a dropout operator around
// their step handle, governed by the configured keep probabilities. For
// every other mode the wrapped cell's instance is returned as is, so
// evaluation and inference never see masking. The wrapper owns no
// parameters; the inner instance's parameter sets pass through unchanged.
//
// The decision is re-evaluated on every CreateInstance call. The wrapper
// keeps no instance state, so one configuration can stamp out training
// and inference instances side by side.
type DropoutWrapper[B tensor.Backend] struct {
	cell   Cell[B]
	config DropoutConfig
}

// NewDropout wraps cell with dropout configuration.
//
// All three keep probabilities must be in (0, 1]; 1.0 keeps every element
// and is the no-op default. A keep probability of 0 would drop everything
// and is rejected along with negatives and values above 1. An empty
// config name falls back to the default. Fails with ErrInvalidArgument on
// a nil cell or an out-of-range probability.
func NewDropout[B tensor.Backend](cell Cell[B], config DropoutConfig) (*DropoutWrapper[B], error) {
	if cell == nil {
		return nil, fmt.Errorf("rnn: dropout wrapper needs a cell: %w", ErrInvalidArgument)
	}

	for _, kp := range []struct {
		site string
		prob float32
	}{
		{"input", config.InputKeepProb},
		{"output", config.OutputKeepProb},
		{"state", config.StateKeepProb},
	} {
		if kp.prob <= 0 || kp.prob > 1 {
			return nil, fmt.Errorf("rnn: %s keep probability %v outside (0, 1]: %w",
				kp.site, kp.prob, ErrInvalidArgument)
		}
	}

	if config.Name == "" {
		config.Name = DefaultDropoutConfig().Name
	}

	return &DropoutWrapper[B]{cell: cell, config: config}, nil
}

// Name returns the wrapped cell's name.
func (d *DropoutWrapper[B]) Name() string {
	return d.cell.Name()
}

// Config returns the wrapper's dropout configuration.
func (d *DropoutWrapper[B]) Config() DropoutConfig {
	return d.config
}

// CreateInstance builds the wrapped cell's instance and, for Training,
// swaps its step handle for a dropout operator around it. The instance's
// trainable and non-trainable parameter sets are passed through unchanged
// in both cases. For any mode other than Training the inner instance is
// returned verbatim.
func (d *DropoutWrapper[B]) CreateInstance(mode Mode) (*CellInstance[B], error) {
	inner, err := d.cell.CreateInstance(mode)
	if err != nil {
		return nil, err
	}

	if mode != Training {
		return inner, nil
	}

	handle := step.NewDropout(
		inner.Cell,
		uniqueName(d.config.Name),
		d.config.InputKeepProb,
		d.config.OutputKeepProb,
		d.config.StateKeepProb,
		d.config.Seed,
	)

	return &CellInstance[B]{
		Cell:         handle,
		Trainable:    inner.Trainable,
		NonTrainable: inner.NonTrainable,
	}, nil
}

// OutputSize returns the wrapped cell's output size.
func (d *DropoutWrapper[B]) OutputSize() int {
	return d.cell.OutputSize()
}

// StateSize returns the wrapped cell's state sizes.
func (d *DropoutWrapper[B]) StateSize() []int {
	return d.cell.StateSize()
}

// InputSize returns the wrapped cell's input width, or -1 if unknown.
func (d *DropoutWrapper[B]) InputSize() int {
	if sized, ok := d.cell.(interface{ InputSize() int }); ok {
		return sized.InputSize()
	}
	return -1
}
