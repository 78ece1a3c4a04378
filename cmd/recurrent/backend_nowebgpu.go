//go:build !webgpu

package main

import (
	"context"

	"github.com/born-ml/recurrent/internal/backend/webgpu"
)

// Without the webgpu build tag the GPU path is a stub; fail with the
// same error the backend package reports.
func trainWebGPU(_ context.Context, _ trainOptions) error {
	return webgpu.ErrNotBuilt
}

func generateWebGPU(_ generateOptions) error {
	return webgpu.ErrNotBuilt
}
