package step

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Dropout wraps an inner cell and applies inverted dropout around each
// step: to the input before the inner step, and to the output and every
// state tensor after it. Each of the three sites has its own keep
// probability; a keep probability of 1.0 disables masking at that site.
//
// Masks are Bernoulli(keep)/keep tensors multiplied in with a regular
// tensor Mul, so under an autodiff backend the mask participates in the
// tape like any other factor and gradients are scaled and zeroed exactly
// where the forward pass was. Fresh masks are drawn every step.
//
// Seeding: a negative seed draws masks nondeterministically. A seed >= 0
// derives one independent deterministic stream per site, so the same seed
// reproduces the same mask sequence while input, output, and state sites
// stay decorrelated.
type Dropout[B tensor.Backend] struct {
	name  string
	inner Cell[B]

	inputKeep  float32
	outputKeep float32
	stateKeep  float32
	seed       int64

	inputRng  *rand.Rand
	outputRng *rand.Rand
	stateRng  *rand.Rand
}

// NewDropout creates a dropout step cell around inner.
//
// Keep probabilities must already be validated by the caller; this
// constructor only wires them up. seed < 0 means nondeterministic.
func NewDropout[B tensor.Backend](
	inner Cell[B],
	name string,
	inputKeep, outputKeep, stateKeep float32,
	seed int64,
) *Dropout[B] {
	d := &Dropout[B]{
		name:       name,
		inner:      inner,
		inputKeep:  inputKeep,
		outputKeep: outputKeep,
		stateKeep:  stateKeep,
		seed:       seed,
	}

	if seed < 0 {
		d.inputRng = rand.New(rand.NewSource(rand.Int63()))  //nolint:gosec // dropout masks, not crypto
		d.outputRng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // dropout masks, not crypto
		d.stateRng = rand.New(rand.NewSource(rand.Int63()))  //nolint:gosec // dropout masks, not crypto
	} else {
		d.inputRng = rand.New(rand.NewSource(deriveSeed(seed, "input")))   //nolint:gosec // deterministic by request
		d.outputRng = rand.New(rand.NewSource(deriveSeed(seed, "output"))) //nolint:gosec // deterministic by request
		d.stateRng = rand.New(rand.NewSource(deriveSeed(seed, "state")))   //nolint:gosec // deterministic by request
	}

	return d
}

// deriveSeed maps (seed, site) to an independent stream seed with FNV-1a.
func deriveSeed(seed int64, site string) int64 {
	h := fnv.New64a()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(site))

	return int64(h.Sum64()) //nolint:gosec // intentional wraparound into int64
}

// Name returns the dropout cell's own (uniquified) name, not the inner
// cell's.
func (d *Dropout[B]) Name() string {
	return d.name
}

// Step applies input dropout, runs the inner cell, then applies output and
// state dropout.
func (d *Dropout[B]) Step(input *tensor.Tensor[float32, B], state State[B]) (*tensor.Tensor[float32, B], State[B]) {
	x := input
	if d.inputKeep < 1 {
		x = d.masked(x, d.inputKeep, d.inputRng)
	}

	output, next := d.inner.Step(x, state)

	if d.outputKeep < 1 {
		output = d.masked(output, d.outputKeep, d.outputRng)
	}

	if d.stateKeep < 1 {
		maskedState := make(State[B], len(next))
		for i, s := range next {
			maskedState[i] = d.masked(s, d.stateKeep, d.stateRng)
		}
		next = maskedState
	}

	return output, next
}

// ZeroState delegates to the inner cell.
func (d *Dropout[B]) ZeroState(batchSize int) State[B] {
	return d.inner.ZeroState(batchSize)
}

// Inner returns the wrapped cell.
func (d *Dropout[B]) Inner() Cell[B] {
	return d.inner
}

// InputSize returns the inner cell's input width, or -1 if unknown.
func (d *Dropout[B]) InputSize() int {
	if sized, ok := d.inner.(interface{ InputSize() int }); ok {
		return sized.InputSize()
	}
	return -1
}

// InputKeepProb returns the input-site keep probability.
func (d *Dropout[B]) InputKeepProb() float32 { return d.inputKeep }

// OutputKeepProb returns the output-site keep probability.
func (d *Dropout[B]) OutputKeepProb() float32 { return d.outputKeep }

// StateKeepProb returns the state-site keep probability.
func (d *Dropout[B]) StateKeepProb() float32 { return d.stateKeep }

// Seed returns the configured seed (negative means nondeterministic).
func (d *Dropout[B]) Seed() int64 { return d.seed }

// masked multiplies t by a fresh inverted-dropout mask: each mask element
// is 1/keep with probability keep, else 0.
func (d *Dropout[B]) masked(t *tensor.Tensor[float32, B], keep float32, rng *rand.Rand) *tensor.Tensor[float32, B] {
	raw, err := tensor.NewRaw(t.Shape(), tensor.Float32, t.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: failed to allocate dropout mask: %v", d.name, err))
	}

	scale := 1 / keep
	data := raw.AsFloat32()
	for i := range data {
		if rng.Float32() < keep {
			data[i] = scale
		} else {
			data[i] = 0
		}
	}

	mask := tensor.New[float32, B](raw, t.Backend())
	return t.Mul(mask)
}
