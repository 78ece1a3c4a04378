// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/tensor"
	"github.com/born-ml/recurrent/nn"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	var module nn.Module[*cpu.CPUBackend] = nn.NewLinear(10, 5, backend)

	// Verify Forward works
	input := tensor.Randn[float32](tensor.Shape{2, 10}, backend)
	output := module.Forward(input)
	if !output.Shape().Equal(tensor.Shape{2, 5}) {
		t.Errorf("Forward() shape = %v, want [2 5]", output.Shape())
	}

	// Verify Parameters works
	params := module.Parameters()
	if len(params) != 2 {
		t.Errorf("Parameters() returned %d params, want 2 (weight + bias)", len(params))
	}
}

// TestParameterInterface verifies that concrete Parameter implements interface.
func TestParameterInterface(t *testing.T) {
	backend := cpu.New()
	tensorData := tensor.Randn[float32](tensor.Shape{3, 3}, backend)

	param := nn.NewParameter("test.weight", tensorData)

	// Verify interface methods
	if name := param.Name(); name != "test.weight" {
		t.Errorf("Name() = %q, want %q", name, "test.weight")
	}

	if got := param.Tensor(); got != tensorData {
		t.Error("Tensor() returned different tensor than provided")
	}

	if grad := param.Grad(); grad != nil {
		t.Error("Grad() should be nil before backward pass")
	}

	// Test SetGrad
	gradTensor := tensor.Zeros[float32](tensor.Shape{3, 3}, backend)
	param.SetGrad(gradTensor)
	if got := param.Grad(); got != gradTensor {
		t.Error("Grad() returned different tensor after SetGrad")
	}

	// Test ZeroGrad
	param.ZeroGrad()
	if grad := param.Grad(); grad != nil {
		t.Error("Grad() should be nil after ZeroGrad()")
	}
}

// TestWeightsRoundTrip verifies SaveWeights/LoadWeights through the facade.
func TestWeightsRoundTrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "linear.rnn")

	src := nn.NewLinear(4, 3, backend)
	if err := nn.SaveWeights(path, src.Parameters(), "Linear", nil); err != nil {
		t.Fatalf("SaveWeights() error = %v", err)
	}

	dst := nn.NewLinear(4, 3, backend)
	if err := nn.LoadWeights(path, backend, dst.Parameters()); err != nil {
		t.Fatalf("LoadWeights() error = %v", err)
	}

	want := src.Weight().Tensor().Data()
	got := dst.Weight().Tensor().Data()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("weight[%d] = %v after load, want %v", i, got[i], want[i])
		}
	}
}

// TestNewParameter verifies parameter creation.
func TestNewParameter(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name        string
		paramName   string
		tensorShape tensor.Shape
	}{
		{
			name:        "weight parameter",
			paramName:   "layer1.weight",
			tensorShape: tensor.Shape{128, 784},
		},
		{
			name:        "bias parameter",
			paramName:   "layer1.bias",
			tensorShape: tensor.Shape{128},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensorData := tensor.Randn[float32](tt.tensorShape, backend)
			param := nn.NewParameter(tt.paramName, tensorData)

			if got := param.Name(); got != tt.paramName {
				t.Errorf("Name() = %q, want %q", got, tt.paramName)
			}

			if got := param.Tensor(); got != tensorData {
				t.Error("Tensor() returned different tensor")
			}
		})
	}
}
