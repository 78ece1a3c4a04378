package step

import (
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/tensor"
)

// Basic is the vanilla recurrence h' = act(x·Wxᵀ + h·Whᵀ + b).
//
// The input kernel uses Xavier uniform initialization, the recurrent
// kernel U(-1/√units, 1/√units), the bias zeros.
type Basic[B tensor.Backend] struct {
	name       string
	inputSize  int
	numUnits   int
	activation Activation

	kernelInput  *nn.Parameter[B] // [numUnits, inputSize]
	kernelHidden *nn.Parameter[B] // [numUnits, numUnits]
	bias         *nn.Parameter[B] // [numUnits]

	backend B
}

// NewBasic creates a basic recurrent step cell with fresh weights.
func NewBasic[B tensor.Backend](name string, inputSize, numUnits int, activation Activation, backend B) *Basic[B] {
	return &Basic[B]{
		name:       name,
		inputSize:  inputSize,
		numUnits:   numUnits,
		activation: activation,
		kernelInput: nn.NewParameter(name+"/kernel_input",
			nn.Xavier(inputSize, numUnits, tensor.Shape{numUnits, inputSize}, backend)),
		kernelHidden: nn.NewParameter(name+"/kernel_hidden",
			nn.Uniform(numUnits, tensor.Shape{numUnits, numUnits}, backend)),
		bias: nn.NewParameter(name+"/bias",
			nn.Zeros(tensor.Shape{numUnits}, backend)),
		backend: backend,
	}
}

// Name returns the cell's instance name.
func (c *Basic[B]) Name() string {
	return c.name
}

// InputSize returns the expected input feature count.
func (c *Basic[B]) InputSize() int {
	return c.inputSize
}

// Step computes h' = act(x·Wxᵀ + h·Whᵀ + b).
func (c *Basic[B]) Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B]) {
	checkStepInput(c.name, input, c.inputSize)
	checkState(c.name, state, 1)

	h := state[0]

	pre := input.MatMul(c.kernelInput.Tensor().Transpose())
	pre = pre.Add(h.MatMul(c.kernelHidden.Tensor().Transpose()))
	pre = pre.Add(c.bias.Tensor().Reshape(1, c.numUnits))

	next := applyActivation(c.activation, pre)
	return next, State[B]{next}
}

// ZeroState returns {h} with h = zeros [batchSize, numUnits].
func (c *Basic[B]) ZeroState(batchSize int) State[B] {
	return State[B]{nn.Zeros(tensor.Shape{batchSize, c.numUnits}, c.backend)}
}

// Parameters returns the cell's trainable parameters.
func (c *Basic[B]) Parameters() []*nn.Parameter[B] {
	return []*nn.Parameter[B]{c.kernelInput, c.kernelHidden, c.bias}
}
