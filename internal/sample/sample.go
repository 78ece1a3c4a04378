// Package sample picks next tokens from model logits during
// autoregressive generation.
//
// A Sampler applies, in order: repetition and frequency/presence
// penalties, temperature, top-k, top-p (nucleus) and min-p filtering,
// then draws from the remaining distribution. Temperature 0 short-circuits
// to greedy argmax after the penalties.
package sample

import (
	"math"
	"math/rand"
	"sort"
)

// Config controls the sampling strategy.
type Config struct {
	// Temperature controls randomness. 0 = greedy, 1 = normal, >1 = more random.
	Temperature float32

	// TopK limits sampling to the K highest logits. 0 = disabled.
	TopK int

	// TopP keeps the smallest set of tokens whose cumulative probability
	// exceeds P. 1.0 = disabled.
	TopP float32

	// MinP drops tokens with probability < MinP * max probability. 0 = disabled.
	MinP float32

	// RepeatPenalty divides positive logits of recently seen tokens (and
	// multiplies negative ones). 1.0 = disabled.
	RepeatPenalty float32

	// FrequencyPenalty subtracts count-proportional mass from seen tokens.
	// 0 = disabled.
	FrequencyPenalty float32

	// PresencePenalty subtracts a flat amount from any seen token. 0 = disabled.
	PresencePenalty float32

	// RepeatWindow bounds how far back the penalties look. 0 = whole history.
	RepeatWindow int

	// Seed fixes the RNG for reproducible sampling. -1 = random.
	Seed int64
}

// DefaultConfig returns the neutral configuration: plain multinomial
// sampling at temperature 1 with a 64-token penalty window.
func DefaultConfig() Config {
	return Config{
		Temperature:   1.0,
		TopP:          1.0,
		RepeatPenalty: 1.0,
		RepeatWindow:  64,
		Seed:          -1,
	}
}

// Sampler draws next tokens from logits. Not safe for concurrent use:
// each generation loop owns one Sampler.
type Sampler struct {
	config Config
	rng    *rand.Rand
}

// New creates a Sampler. A negative seed picks a random one.
func New(config Config) *Sampler {
	seed := config.Seed
	if seed < 0 {
		seed = rand.Int63()
	}
	return &Sampler{
		config: config,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // sampling wants reproducibility, not crypto
	}
}

// Sample returns the next token ID given the vocabulary logits and the
// tokens generated so far (consulted by the repetition penalties).
// The logits slice is not modified.
func (s *Sampler) Sample(logits []float32, previous []int32) int32 {
	scores := make([]float32, len(logits))
	copy(scores, logits)

	recent := lastN(previous, s.config.RepeatWindow)
	if s.config.RepeatPenalty != 1.0 && s.config.RepeatPenalty != 0 {
		penalizeRepeats(scores, recent, s.config.RepeatPenalty)
	}
	if s.config.FrequencyPenalty != 0 || s.config.PresencePenalty != 0 {
		penalizeCounts(scores, recent, s.config.FrequencyPenalty, s.config.PresencePenalty)
	}

	if s.config.Temperature == 0 {
		return argmax(scores)
	}
	if s.config.Temperature != 1.0 {
		for i := range scores {
			scores[i] /= s.config.Temperature
		}
	}

	if s.config.TopK > 0 && s.config.TopK < len(scores) {
		keepTopK(scores, s.config.TopK)
	}
	if s.config.TopP > 0 && s.config.TopP < 1.0 {
		keepTopP(scores, s.config.TopP)
	}
	if s.config.MinP > 0 {
		keepMinP(scores, s.config.MinP)
	}

	return s.multinomial(softmax(scores))
}

// lastN returns the trailing window of tokens, or all of them when n <= 0.
func lastN(tokens []int32, n int) []int32 {
	if n > 0 && len(tokens) > n {
		return tokens[len(tokens)-n:]
	}
	return tokens
}

// penalizeRepeats applies the CTRL-style repetition penalty: positive
// logits of seen tokens shrink by the factor, negative ones grow.
func penalizeRepeats(scores []float32, recent []int32, penalty float32) {
	seen := make(map[int32]struct{}, len(recent))
	for _, tok := range recent {
		seen[tok] = struct{}{}
	}

	for tok := range seen {
		if int(tok) >= len(scores) {
			continue
		}
		if scores[tok] > 0 {
			scores[tok] /= penalty
		} else {
			scores[tok] *= penalty
		}
	}
}

// penalizeCounts applies the frequency penalty (proportional to how often
// a token appeared) and the presence penalty (flat, once).
func penalizeCounts(scores []float32, recent []int32, frequency, presence float32) {
	counts := make(map[int32]int, len(recent))
	for _, tok := range recent {
		counts[tok]++
	}

	for tok, count := range counts {
		if int(tok) >= len(scores) {
			continue
		}
		scores[tok] -= frequency * float32(count)
		scores[tok] -= presence
	}
}

// keepTopK masks everything below the k-th largest score. Ties at the
// threshold survive.
func keepTopK(scores []float32, k int) {
	sorted := make([]float32, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	threshold := sorted[k-1]

	for i, v := range scores {
		if v < threshold {
			scores[i] = float32(math.Inf(-1))
		}
	}
}

// keepTopP masks everything outside the nucleus: the smallest
// highest-probability set whose mass exceeds p. At least one token
// always survives.
func keepTopP(scores []float32, p float32) {
	probs := softmax(scores)

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	cutoff := len(order)
	cumulative := float32(0)
	for rank, idx := range order {
		cumulative += probs[idx]
		if cumulative > p {
			cutoff = rank + 1
			break
		}
	}

	for _, idx := range order[cutoff:] {
		scores[idx] = float32(math.Inf(-1))
	}
}

// keepMinP masks tokens whose probability falls below minP times the top
// token's probability.
func keepMinP(scores []float32, minP float32) {
	probs := softmax(scores)

	var maxProb float32
	for _, p := range probs {
		if p > maxProb {
			maxProb = p
		}
	}

	threshold := maxProb * minP
	for i, p := range probs {
		if p < threshold {
			scores[i] = float32(math.Inf(-1))
		}
	}
}

// argmax returns the index of the maximum score.
func argmax(scores []float32) int32 {
	maxIdx := 0
	maxVal := scores[0]
	for i, v := range scores[1:] {
		if v > maxVal {
			maxVal = v
			maxIdx = i + 1
		}
	}
	return int32(maxIdx) //nolint:gosec // vocab size is bounded by model architecture
}

// multinomial draws one index from a categorical distribution.
func (s *Sampler) multinomial(probs []float32) int32 {
	r := s.rng.Float32()

	cumulative := float32(0)
	for i, p := range probs {
		cumulative += p
		if r < cumulative {
			return int32(i) //nolint:gosec // vocab size is bounded by model architecture
		}
	}
	// Rounding left a sliver of mass unclaimed: take the last token.
	return int32(len(probs) - 1) //nolint:gosec // vocab size is bounded by model architecture
}

// softmax converts scores to probabilities, treating -inf as masked.
func softmax(scores []float32) []float32 {
	maxVal := scores[0]
	for _, v := range scores[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	probs := make([]float32, len(scores))
	var sum float32
	for i, v := range scores {
		if math.IsInf(float64(v), -1) {
			continue
		}
		probs[i] = float32(math.Exp(float64(v - maxVal)))
		sum += probs[i]
	}

	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}
	return probs
}
