package step

import (
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/tensor"
)

const (
	lstmGateInput = iota
	lstmGateForget
	lstmGateCell
	lstmGateOutput
	lstmGateTotal
)

var lstmGateNames = [lstmGateTotal]string{"input", "forget", "cell", "output"}

// LSTM is the standard long short-term memory recurrence.
//
// Per step, with state {c, h}:
//
//	i = σ(x·Wxiᵀ + h·Whiᵀ + bi)
//	f = σ(x·Wxfᵀ + h·Whfᵀ + bf)
//	g = tanh(x·Wxgᵀ + h·Whgᵀ + bg)
//	o = σ(x·Wxoᵀ + h·Whoᵀ + bo)
//	c' = f⊙c + i⊙g
//	h' = o⊙tanh(c')
//
// The forget-gate bias is initialized to a positive offset so early
// training does not erase the cell state before the gates learn.
type LSTM[B tensor.Backend] struct {
	name      string
	inputSize int
	numUnits  int

	weightIH [lstmGateTotal]*nn.Parameter[B] // each [numUnits, inputSize]
	weightHH [lstmGateTotal]*nn.Parameter[B] // each [numUnits, numUnits]
	bias     [lstmGateTotal]*nn.Parameter[B] // each [numUnits]

	backend B
}

// NewLSTM creates an LSTM step cell with fresh weights. forgetBias is the
// initial value of the forget-gate bias (1.0 is the usual choice).
func NewLSTM[B tensor.Backend](name string, inputSize, numUnits int, forgetBias float32, backend B) *LSTM[B] {
	l := &LSTM[B]{
		name:      name,
		inputSize: inputSize,
		numUnits:  numUnits,
		backend:   backend,
	}

	for gate := 0; gate < lstmGateTotal; gate++ {
		gateName := lstmGateNames[gate]
		l.weightIH[gate] = nn.NewParameter(name+"/weight_ih_"+gateName,
			nn.Xavier(inputSize, numUnits, tensor.Shape{numUnits, inputSize}, backend))
		l.weightHH[gate] = nn.NewParameter(name+"/weight_hh_"+gateName,
			nn.Uniform(numUnits, tensor.Shape{numUnits, numUnits}, backend))

		biasTensor := nn.Zeros(tensor.Shape{numUnits}, backend)
		if gate == lstmGateForget && forgetBias != 0 {
			data := biasTensor.Raw().AsFloat32()
			for i := range data {
				data[i] = forgetBias
			}
		}
		l.bias[gate] = nn.NewParameter(name+"/bias_"+gateName, biasTensor)
	}

	return l
}

// Name returns the cell's instance name.
func (l *LSTM[B]) Name() string {
	return l.name
}

// InputSize returns the expected input feature count.
func (l *LSTM[B]) InputSize() int {
	return l.inputSize
}

// Step advances the recurrence one timestep. State layout is {c, h};
// the returned output is the new hidden state h'.
func (l *LSTM[B]) Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B]) {
	checkStepInput(l.name, input, l.inputSize)
	checkState(l.name, state, 2)

	c, h := state[0], state[1]

	inputGate := l.affine(input, h, lstmGateInput).Sigmoid()
	forgetGate := l.affine(input, h, lstmGateForget).Sigmoid()
	candidate := l.affine(input, h, lstmGateCell).Tanh()
	outputGate := l.affine(input, h, lstmGateOutput).Sigmoid()

	nextC := forgetGate.Mul(c).Add(inputGate.Mul(candidate))
	nextH := outputGate.Mul(nextC.Tanh())

	return nextH, State[B]{nextC, nextH}
}

// affine computes x·Wxᵀ + h·Whᵀ + b for one gate.
func (l *LSTM[B]) affine(x, h *tensor.Tensor[float32, B], gate int) *tensor.Tensor[float32, B] {
	pre := x.MatMul(l.weightIH[gate].Tensor().Transpose())
	pre = pre.Add(h.MatMul(l.weightHH[gate].Tensor().Transpose()))
	return pre.Add(l.bias[gate].Tensor().Reshape(1, l.numUnits))
}

// ZeroState returns {c, h} with both zeros [batchSize, numUnits].
func (l *LSTM[B]) ZeroState(batchSize int) State[B] {
	return State[B]{
		nn.Zeros(tensor.Shape{batchSize, l.numUnits}, l.backend),
		nn.Zeros(tensor.Shape{batchSize, l.numUnits}, l.backend),
	}
}

// Parameters returns the cell's trainable parameters in gate order.
func (l *LSTM[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, lstmGateTotal*3)
	for gate := 0; gate < lstmGateTotal; gate++ {
		params = append(params, l.weightIH[gate], l.weightHH[gate], l.bias[gate])
	}
	return params
}
