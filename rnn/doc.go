// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package rnn provides recurrent cell configurations and the mode-aware
// instance lifecycle.
//
// # Overview
//
// A Cell is a validated configuration: layer sizes, keep probabilities,
// composition. It owns no weights. CreateInstance(mode) stamps out a fresh
// operational instance — a step handle that does the per-timestep math plus
// the parameter sets that drive it. Mode matters because some cells change
// structure between phases: the dropout wrapper injects its masking
// operator only for Training and hands back the inner instance untouched
// for Evaluation and Inference.
//
// This package contains:
//   - Cells: BasicCell, LSTMCell, GRUCell
//   - Wrappers: DropoutWrapper, ResidualWrapper, StackedCell
//   - Lifecycle: Mode, Cell, CellInstance
//   - Execution: Unroll (backpropagation through time under autodiff)
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/recurrent/autodiff"
//	    "github.com/born-ml/recurrent/backend/cpu"
//	    "github.com/born-ml/recurrent/rnn"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    cell, err := rnn.NewLSTMCell(64, 128, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    instance, err := cell.CreateInstance(rnn.Training)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    outputs, state, err := rnn.Unroll(instance.Cell, inputs, nil)
//	}
//
// # Dropout
//
// Wrap any cell to regularize it during training. Evaluation and inference
// instances are the wrapped cell's instances, returned as is:
//
//	config := rnn.DefaultDropoutConfig()
//	config.InputKeepProb = 0.9
//	config.OutputKeepProb = 0.9
//	config.Seed = 42
//
//	wrapped, err := rnn.NewDropout[B](cell, config)
//
// Keep probabilities live in (0, 1]; 1.0 keeps every element. Construction
// fails with ErrInvalidArgument for anything outside that range.
//
// # Composition
//
// Wrappers are cells, so they nest freely:
//
//	l1, _ := rnn.NewLSTMCell(64, 128, backend)
//	l2, _ := rnn.NewLSTMCell(128, 128, backend)
//	stack, _ := rnn.NewStacked(l1, l2)
//	model, _ := rnn.NewDropout[B](stack, config)
//
// The training loop sees one Cell and never needs to know what the tree
// looks like.
package rnn
