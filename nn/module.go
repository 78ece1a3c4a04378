// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/tensor"
)

// Module is the base interface for stateless neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Recurrent cells have a richer contract (state in, state out) and live
// in the rnn package; Module covers the feed-forward pieces around them,
// such as embeddings and projection heads.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Linear expects [batch_size, in_features].
	//
	// Returns the output tensor with shape determined by the module type.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	Parameters() []*Parameter[B]
}

// Note: Internal implementations of Module automatically satisfy this interface
// because they have the same method signatures.

// Serialization

// OptimizerState is the slice of an optimizer that checkpoints persist.
// Optimizers from the optim package implement it.
type OptimizerState = nn.OptimizerState

// Checkpoint is a complete training state snapshot: model parameters,
// optimizer state, and enough bookkeeping to resume a run.
//
// Example:
//
//	checkpoint := &nn.Checkpoint[B]{
//	    Params:    model.Parameters(),
//	    Optimizer: optimizer,
//	    Epoch:     10,
//	    Step:      5000,
//	    Loss:      0.123,
//	}
//	err := checkpoint.Save("checkpoint_epoch_10.rnn")
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// LoadCheckpoint restores a training snapshot from a .rnn file.
//
// The parameter list and optimizer must be pre-constructed with the same
// architecture and configuration the checkpoint was saved from. Parameter
// values are restored in place; optimizer may be nil when only weights
// are wanted.
//
// Example:
//
//	checkpoint, err := nn.LoadCheckpoint("checkpoint.rnn", backend, params, optimizer)
//	startEpoch := checkpoint.Epoch + 1
func LoadCheckpoint[B tensor.Backend](
	path string,
	backend B,
	params []*Parameter[B],
	optimizer OptimizerState,
) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, backend, params, optimizer)
}

// SaveWeights writes just the parameters to a .rnn file, without optimizer
// state or checkpoint bookkeeping. Use this for finished models.
//
// Parameters:
//   - path: File path to write to
//   - params: The parameters to save
//   - modelType: Type name of the model (e.g., "LSTM", "GRU")
//   - metadata: Optional metadata (can be nil)
//
// Example:
//
//	err := nn.SaveWeights("model.rnn", model.Parameters(), "LSTM", nil)
func SaveWeights[B tensor.Backend](path string, params []*Parameter[B], modelType string, metadata map[string]string) error {
	return nn.SaveWeights(path, params, modelType, metadata)
}

// LoadWeights restores parameter values in place from a .rnn file written
// by SaveWeights or Checkpoint.Save (optimizer entries are skipped).
//
// Example:
//
//	err := nn.LoadWeights("model.rnn", backend, model.Parameters())
func LoadWeights[B tensor.Backend](path string, backend B, params []*Parameter[B]) error {
	return nn.LoadWeights(path, backend, params)
}
