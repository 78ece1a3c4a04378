// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding
//   - Loss functions: CrossEntropyLoss, MSELoss
//   - Utilities: Module interface, Parameter, Accuracy
//   - Initialization: Xavier, Uniform, Zeros, Ones, Randn
//   - Serialization: SaveWeights, LoadWeights, Checkpoint
//
// Recurrent cells (LSTM, GRU, dropout wrappers) live in the rnn package;
// nn covers the feed-forward pieces around them.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/recurrent/nn"
//	    "github.com/born-ml/recurrent/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Embed tokens, project hidden states to logits
//	    embed := nn.NewEmbedding[*cpu.Backend](256, 64, backend)
//	    head := nn.NewLinear(128, 256, backend)
//
//	    hidden := embed.Forward(tokenIds)
//	    logits := head.Forward(hidden)
//	}
//
// # Layers
//
// Linear: Fully connected layer with Xavier initialization
//
//	layer := nn.NewLinear(inFeatures, outFeatures, backend)
//
// Embedding: Token id to dense vector lookup table
//
//	embed := nn.NewEmbedding[B](vocabSize, embedDim, backend)
//
// # Loss Functions
//
// CrossEntropyLoss: For classification tasks (numerically stable)
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, labels)
//
// MSELoss: For regression tasks
//
//	criterion := nn.NewMSELoss(backend)
//	loss := criterion.Forward(predictions, targets)
//
// # Parameter Management
//
// Access model parameters for optimization:
//
//	params := model.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
//
// # Saving and Loading
//
// Finished models keep just the weights:
//
//	err := nn.SaveWeights("model.rnn", model.Parameters(), "LSTM", nil)
//	err = nn.LoadWeights("model.rnn", backend, model.Parameters())
//
// Training runs snapshot the full state so they can resume:
//
//	checkpoint := &nn.Checkpoint[B]{Params: params, Optimizer: optimizer, Epoch: 3}
//	err := checkpoint.Save("epoch_3.rnn")
package nn
