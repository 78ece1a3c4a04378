//go:build !webgpu

// Package webgpu implements the WebGPU backend for GPU-accelerated tensor
// operations.
//
// This build does not include it: without the webgpu build tag the package
// compiles to a stub whose New always fails, keeping the native wgpu
// library out of default binaries.
package webgpu

// Backend is a placeholder in builds without the webgpu tag.
type Backend struct{}

// New always fails in builds without the webgpu tag.
func New() (*Backend, error) {
	return nil, ErrNotBuilt
}

// IsAvailable reports false in builds without the webgpu tag.
func IsAvailable() bool {
	return false
}

// Release is a no-op in builds without the webgpu tag.
func (b *Backend) Release() {}
