package rnn

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Unroll runs cell over the time dimension of inputs [seq, batch,
// features] and returns the stacked outputs [seq, batch, units] plus the
// final state. A nil initial state starts from the cell's zero state.
//
// The loop is expressed entirely through tensor operations (Chunk, the
// cell's step math, Cat), so under a recording autodiff backend a single
// Backward over the result is backpropagation through time, with shared
// weight gradients accumulated across timesteps.
//
// Fails with ErrInvalidArgument if inputs is not rank 3 or the feature
// width contradicts the cell's reported input size.
func Unroll[B tensor.Backend](
	cell step.Cell[B],
	inputs *tensor.Tensor[float32, B],
	initial step.State[B],
) (*tensor.Tensor[float32, B], step.State[B], error) {
	shape := inputs.Shape()
	if len(shape) != 3 {
		return nil, nil, fmt.Errorf("rnn: unroll expects [seq, batch, features] input, got shape %v: %w",
			shape, ErrInvalidArgument)
	}

	seqLen, batch, features := shape[0], shape[1], shape[2]

	if sized, ok := cell.(interface{ InputSize() int }); ok {
		if want := sized.InputSize(); want >= 0 && features != want {
			return nil, nil, fmt.Errorf("rnn: unroll input has %d features but %s expects %d: %w",
				features, cell.Name(), want, ErrInvalidArgument)
		}
	}

	state := initial
	if state == nil {
		state = cell.ZeroState(batch)
	}

	frames := inputs.Chunk(seqLen, 0)
	outputs := make([]*tensor.Tensor[float32, B], 0, seqLen)

	for _, frame := range frames {
		x := frame.Reshape(batch, features)

		var out *tensor.Tensor[float32, B]
		out, state = cell.Step(x, state)
		outputs = append(outputs, out.Unsqueeze(0))
	}

	if len(outputs) == 1 {
		// Cat of one tensor would clone and detach it from the tape.
		return outputs[0], state, nil
	}

	return tensor.Cat(outputs, 0), state, nil
}
