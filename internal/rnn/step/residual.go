package step

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Residual wraps an inner cell and adds the step input to the step output.
// The inner cell's output shape must match the input shape, which in
// practice means its unit count equals the input feature count.
type Residual[B tensor.Backend] struct {
	name  string
	inner Cell[B]
}

// NewResidual creates a residual step cell around inner.
func NewResidual[B tensor.Backend](name string, inner Cell[B]) *Residual[B] {
	return &Residual[B]{name: name, inner: inner}
}

// Name returns the cell's instance name.
func (r *Residual[B]) Name() string {
	return r.name
}

// Step runs the inner cell and returns input + output.
func (r *Residual[B]) Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B]) {
	output, next := r.inner.Step(input, state)

	if !input.Shape().Equal(output.Shape()) {
		panic(fmt.Sprintf("%s: residual connection needs matching shapes, input %v vs output %v",
			r.name, input.Shape(), output.Shape()))
	}

	return input.Add(output), next
}

// ZeroState delegates to the inner cell.
func (r *Residual[B]) ZeroState(batchSize int) State[B] {
	return r.inner.ZeroState(batchSize)
}

// Inner returns the wrapped cell.
func (r *Residual[B]) Inner() Cell[B] {
	return r.inner
}

// InputSize returns the inner cell's input width, or -1 if unknown.
func (r *Residual[B]) InputSize() int {
	if sized, ok := r.inner.(interface{ InputSize() int }); ok {
		return sized.InputSize()
	}
	return -1
}
