// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rnn_test

import (
	"errors"
	"testing"

	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/tensor"
	"github.com/born-ml/recurrent/rnn"
)

// TestCellInterface verifies that the facade cells implement Cell.
func TestCellInterface(t *testing.T) {
	backend := cpu.New()

	lstm, err := rnn.NewLSTMCell(8, 16, backend)
	if err != nil {
		t.Fatalf("NewLSTMCell() error = %v", err)
	}

	var cell rnn.Cell[*cpu.CPUBackend] = lstm
	if got := cell.OutputSize(); got != 16 {
		t.Errorf("OutputSize() = %d, want 16", got)
	}

	instance, err := cell.CreateInstance(rnn.Training)
	if err != nil {
		t.Fatalf("CreateInstance() error = %v", err)
	}
	if len(instance.Trainable) == 0 {
		t.Error("Trainable is empty, want LSTM parameters")
	}
}

// TestDropoutValidation verifies keep-probability bounds through the facade.
func TestDropoutValidation(t *testing.T) {
	backend := cpu.New()
	inner, err := rnn.NewGRUCell(4, 4, backend)
	if err != nil {
		t.Fatalf("NewGRUCell() error = %v", err)
	}

	config := rnn.DefaultDropoutConfig()
	config.InputKeepProb = 0

	if _, err := rnn.NewDropout[*cpu.CPUBackend](inner, config); !errors.Is(err, rnn.ErrInvalidArgument) {
		t.Errorf("NewDropout(keep=0) error = %v, want ErrInvalidArgument", err)
	}

	config.InputKeepProb = 1.0
	if _, err := rnn.NewDropout[*cpu.CPUBackend](inner, config); err != nil {
		t.Errorf("NewDropout(keep=1) error = %v, want nil", err)
	}
}

// TestDropoutModeDispatch verifies the training/inference split.
func TestDropoutModeDispatch(t *testing.T) {
	backend := cpu.New()
	inner, err := rnn.NewBasicCell(4, 4, backend)
	if err != nil {
		t.Fatalf("NewBasicCell() error = %v", err)
	}

	config := rnn.DefaultDropoutConfig()
	config.OutputKeepProb = 0.5
	wrapped, err := rnn.NewDropout[*cpu.CPUBackend](inner, config)
	if err != nil {
		t.Fatalf("NewDropout() error = %v", err)
	}

	train, err := wrapped.CreateInstance(rnn.Training)
	if err != nil {
		t.Fatalf("CreateInstance(Training) error = %v", err)
	}
	if _, ok := train.Cell.(*step.Dropout[*cpu.CPUBackend]); !ok {
		t.Errorf("Training handle = %T, want *step.Dropout", train.Cell)
	}

	eval, err := wrapped.CreateInstance(rnn.Evaluation)
	if err != nil {
		t.Fatalf("CreateInstance(Evaluation) error = %v", err)
	}
	if _, ok := eval.Cell.(*step.Dropout[*cpu.CPUBackend]); ok {
		t.Error("Evaluation handle is a dropout operator, want the inner handle")
	}
}

// TestUnrollFacade verifies end-to-end unrolling through the facade.
func TestUnrollFacade(t *testing.T) {
	backend := cpu.New()

	l1, err := rnn.NewLSTMCell(3, 5, backend)
	if err != nil {
		t.Fatalf("NewLSTMCell() error = %v", err)
	}
	l2, err := rnn.NewGRUCell(5, 5, backend)
	if err != nil {
		t.Fatalf("NewGRUCell() error = %v", err)
	}
	stack, err := rnn.NewStacked[*cpu.CPUBackend](l1, l2)
	if err != nil {
		t.Fatalf("NewStacked() error = %v", err)
	}

	instance, err := stack.CreateInstance(rnn.Inference)
	if err != nil {
		t.Fatalf("CreateInstance() error = %v", err)
	}

	inputs := tensor.Randn[float32](tensor.Shape{4, 2, 3}, backend)
	outputs, state, err := rnn.Unroll(instance.Cell, inputs, nil)
	if err != nil {
		t.Fatalf("Unroll() error = %v", err)
	}
	if !outputs.Shape().Equal(tensor.Shape{4, 2, 5}) {
		t.Errorf("Unroll() output shape = %v, want [4 2 5]", outputs.Shape())
	}
	if want := len(stack.StateSize()); len(state) != want {
		t.Errorf("Unroll() final state has %d tensors, want %d", len(state), want)
	}
}
