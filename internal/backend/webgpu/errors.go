package webgpu

import "errors"

// ErrNotBuilt reports that the binary was compiled without WebGPU support.
var ErrNotBuilt = errors.New("webgpu: backend not compiled in (rebuild with -tags webgpu)")
