//go:build webgpu

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package webgpu

import (
	"github.com/born-ml/recurrent/tensor"
)

// Compile-time check that Backend implements tensor.Backend. The stub
// Backend of tagless builds deliberately does not.
var _ tensor.Backend = (*Backend)(nil)
