package step

import (
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/tensor"
)

const (
	gruGateUpdate = iota
	gruGateReset
	gruGateNew
	gruGateTotal
)

var gruGateNames = [gruGateTotal]string{"update", "reset", "new"}

// GRU is the gated recurrent unit.
//
// Per step, with state {h}:
//
//	z = σ(x·Wxzᵀ + h·Whzᵀ + bz)
//	r = σ(x·Wxrᵀ + h·Whrᵀ + br)
//	n = tanh(x·Wxnᵀ + (r⊙h)·Whnᵀ + bn)
//	h' = (1-z)⊙n + z⊙h
type GRU[B tensor.Backend] struct {
	name      string
	inputSize int
	numUnits  int

	weightIH [gruGateTotal]*nn.Parameter[B] // each [numUnits, inputSize]
	weightHH [gruGateTotal]*nn.Parameter[B] // each [numUnits, numUnits]
	bias     [gruGateTotal]*nn.Parameter[B] // each [numUnits]

	backend B
}

// NewGRU creates a GRU step cell with fresh weights.
func NewGRU[B tensor.Backend](name string, inputSize, numUnits int, backend B) *GRU[B] {
	g := &GRU[B]{
		name:      name,
		inputSize: inputSize,
		numUnits:  numUnits,
		backend:   backend,
	}

	for gate := 0; gate < gruGateTotal; gate++ {
		gateName := gruGateNames[gate]
		g.weightIH[gate] = nn.NewParameter(name+"/weight_ih_"+gateName,
			nn.Xavier(inputSize, numUnits, tensor.Shape{numUnits, inputSize}, backend))
		g.weightHH[gate] = nn.NewParameter(name+"/weight_hh_"+gateName,
			nn.Uniform(numUnits, tensor.Shape{numUnits, numUnits}, backend))
		g.bias[gate] = nn.NewParameter(name+"/bias_"+gateName,
			nn.Zeros(tensor.Shape{numUnits}, backend))
	}

	return g
}

// Name returns the cell's instance name.
func (g *GRU[B]) Name() string {
	return g.name
}

// InputSize returns the expected input feature count.
func (g *GRU[B]) InputSize() int {
	return g.inputSize
}

// Step advances the recurrence one timestep.
func (g *GRU[B]) Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B]) {
	checkStepInput(g.name, input, g.inputSize)
	checkState(g.name, state, 1)

	h := state[0]

	update := g.affine(input, h, gruGateUpdate).Sigmoid()
	reset := g.affine(input, h, gruGateReset).Sigmoid()

	// Candidate uses the reset-gated hidden state.
	pre := input.MatMul(g.weightIH[gruGateNew].Tensor().Transpose())
	pre = pre.Add(reset.Mul(h).MatMul(g.weightHH[gruGateNew].Tensor().Transpose()))
	pre = pre.Add(g.bias[gruGateNew].Tensor().Reshape(1, g.numUnits))
	candidate := pre.Tanh()

	// h' = (1-z)⊙n + z⊙h
	oneMinusUpdate := update.MulScalar(-1).AddScalar(1)
	next := oneMinusUpdate.Mul(candidate).Add(update.Mul(h))

	return next, State[B]{next}
}

// affine computes x·Wxᵀ + h·Whᵀ + b for one gate.
func (g *GRU[B]) affine(x, h *tensor.Tensor[float32, B], gate int) *tensor.Tensor[float32, B] {
	pre := x.MatMul(g.weightIH[gate].Tensor().Transpose())
	pre = pre.Add(h.MatMul(g.weightHH[gate].Tensor().Transpose()))
	return pre.Add(g.bias[gate].Tensor().Reshape(1, g.numUnits))
}

// ZeroState returns {h} with h = zeros [batchSize, numUnits].
func (g *GRU[B]) ZeroState(batchSize int) State[B] {
	return State[B]{nn.Zeros(tensor.Shape{batchSize, g.numUnits}, g.backend)}
}

// Parameters returns the cell's trainable parameters in gate order.
func (g *GRU[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, gruGateTotal*3)
	for gate := 0; gate < gruGateTotal; gate++ {
		params = append(params, g.weightIH[gate], g.weightHH[gate], g.bias[gate])
	}
	return params
}
