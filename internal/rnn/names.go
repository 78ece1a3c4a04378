package rnn

import (
	"fmt"
	"sync"
)

// nameRegistry hands out unique instance names per base name. The first
// request for a base returns it verbatim, later requests get _1, _2, ....
// Instances created from the same configuration stay distinguishable in
// parameter names and logs.
var nameRegistry = struct {
	mu     sync.Mutex
	counts map[string]int
}{counts: make(map[string]int)}

// uniqueName returns base, then base_1, base_2, ... on repeated calls.
func uniqueName(base string) string {
	nameRegistry.mu.Lock()
	defer nameRegistry.mu.Unlock()

	n := nameRegistry.counts[base]
	nameRegistry.counts[base] = n + 1

	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n)
}
