//go:build webgpu

package main

import (
	"context"
	"log/slog"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/backend/webgpu"
)

func trainWebGPU(ctx context.Context, opts trainOptions) error {
	gpu, err := webgpu.New()
	if err != nil {
		return err
	}
	defer gpu.Release()
	if info := gpu.AdapterInfo(); info != nil {
		slog.Info("webgpu adapter", "device", info.Device, "vendor", info.Vendor)
	}
	return runTraining(ctx, autodiff.New(gpu), opts)
}

func generateWebGPU(opts generateOptions) error {
	gpu, err := webgpu.New()
	if err != nil {
		return err
	}
	defer gpu.Release()
	return runGeneration(autodiff.New(gpu), opts)
}
