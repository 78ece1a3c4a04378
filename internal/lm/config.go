package lm

import (
	"fmt"

	"github.com/born-ml/recurrent/internal/rnn"
	"github.com/born-ml/recurrent/internal/tensor"
)

// CellKind selects the recurrence used for every layer of the stack.
type CellKind string

const (
	// LSTM is the default: gated cell with separate cell and hidden state.
	LSTM CellKind = "lstm"
	// GRU is the lighter gated cell with a single state tensor.
	GRU CellKind = "gru"
	// Basic is a single-gate tanh recurrence, mostly useful for debugging
	// and as a baseline.
	Basic CellKind = "basic"
)

// ParseCellKind maps a user-facing name (CLI flag, config file) to a
// CellKind.
func ParseCellKind(s string) (CellKind, error) {
	switch CellKind(s) {
	case LSTM, GRU, Basic:
		return CellKind(s), nil
	default:
		return "", fmt.Errorf("lm: unknown cell kind %q (want lstm, gru, or basic): %w",
			s, rnn.ErrInvalidArgument)
	}
}

// Config describes a recurrent language model: embedding table, cell
// stack, output head, and the dropout applied during training.
//
// The zero value is not usable; start from DefaultConfig and set
// VocabSize from the tokenizer.
type Config struct {
	// VocabSize is the number of distinct token IDs. Set it from the
	// tokenizer's VocabSize.
	VocabSize int `json:"vocab_size"`
	// EmbedDim is the width of the token embedding vectors.
	EmbedDim int `json:"embed_dim"`
	// HiddenSize is the width of every recurrent layer.
	HiddenSize int `json:"hidden_size"`
	// Layers is the number of stacked recurrent layers.
	Layers int `json:"layers"`
	// Cell selects the recurrence.
	Cell CellKind `json:"cell"`

	// InputKeepProb, OutputKeepProb, and StateKeepProb configure training
	// dropout around the cell stack, each in (0, 1]. 1.0 disables the
	// site. When all three are 1.0 no dropout operator is built at all.
	InputKeepProb  float32 `json:"input_keep_prob"`
	OutputKeepProb float32 `json:"output_keep_prob"`
	StateKeepProb  float32 `json:"state_keep_prob"`

	// DropoutSeed makes the mask sequence reproducible when >= 0.
	DropoutSeed int64 `json:"dropout_seed"`

	// Tokenizer names the tokenizer the model was trained with ("byte",
	// "cl100k_base", ...). Informational: the lm package never builds
	// tokenizers, but the name travels with saved models so generation
	// can decode output without being told.
	Tokenizer string `json:"tokenizer,omitempty"`
}

// DefaultConfig returns a small character-level configuration with
// dropout disabled. VocabSize is left zero and must be filled in.
func DefaultConfig() Config {
	return Config{
		EmbedDim:       64,
		HiddenSize:     256,
		Layers:         2,
		Cell:           LSTM,
		InputKeepProb:  1.0,
		OutputKeepProb: 1.0,
		StateKeepProb:  1.0,
		DropoutSeed:    -1,
	}
}

// Validate checks the configuration. Keep probabilities are checked here
// as well as in the dropout wrapper so that a bad value is reported even
// when the other sites disable dropout.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("lm: vocab size must be positive, got %d: %w", c.VocabSize, rnn.ErrInvalidArgument)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("lm: embed dim must be positive, got %d: %w", c.EmbedDim, rnn.ErrInvalidArgument)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("lm: hidden size must be positive, got %d: %w", c.HiddenSize, rnn.ErrInvalidArgument)
	}
	if c.Layers <= 0 {
		return fmt.Errorf("lm: layer count must be positive, got %d: %w", c.Layers, rnn.ErrInvalidArgument)
	}
	if _, err := ParseCellKind(string(c.Cell)); err != nil {
		return err
	}

	for _, kp := range []struct {
		site string
		prob float32
	}{
		{"input", c.InputKeepProb},
		{"output", c.OutputKeepProb},
		{"state", c.StateKeepProb},
	} {
		if kp.prob <= 0 || kp.prob > 1 {
			return fmt.Errorf("lm: %s keep probability %v outside (0, 1]: %w",
				kp.site, kp.prob, rnn.ErrInvalidArgument)
		}
	}
	return nil
}

// hasDropout reports whether any site actually masks.
func (c Config) hasDropout() bool {
	return c.InputKeepProb < 1 || c.OutputKeepProb < 1 || c.StateKeepProb < 1
}

// BuildCell assembles the recurrent core the config describes: one cell
// per layer (EmbedDim into the first, HiddenSize between the rest),
// stacked, and wrapped in dropout when any keep probability is below
// one.
//
// The dropout wrapper goes around the whole stack: input masking ahead
// of the first layer, output masking after the last, and state masking
// on every layer's recurrent state. Because the wrapper only changes
// instances created for Training, the same cell tree serves training,
// evaluation, and generation.
func BuildCell[B tensor.Backend](config Config, backend B) (rnn.Cell[B], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	layers := make([]rnn.Cell[B], config.Layers)
	inputs := config.EmbedDim
	for i := range layers {
		var err error
		switch config.Cell {
		case LSTM:
			layers[i], err = rnn.NewLSTMCell(inputs, config.HiddenSize, backend)
		case GRU:
			layers[i], err = rnn.NewGRUCell(inputs, config.HiddenSize, backend)
		case Basic:
			layers[i], err = rnn.NewBasicCell(inputs, config.HiddenSize, backend)
		}
		if err != nil {
			return nil, fmt.Errorf("lm: layer %d: %w", i, err)
		}
		inputs = config.HiddenSize
	}

	var core rnn.Cell[B]
	if len(layers) == 1 {
		core = layers[0]
	} else {
		stacked, err := rnn.NewStacked(layers...)
		if err != nil {
			return nil, err
		}
		core = stacked
	}

	if !config.hasDropout() {
		return core, nil
	}

	dropCfg := rnn.DefaultDropoutConfig()
	dropCfg.InputKeepProb = config.InputKeepProb
	dropCfg.OutputKeepProb = config.OutputKeepProb
	dropCfg.StateKeepProb = config.StateKeepProb
	dropCfg.Seed = config.DropoutSeed
	return rnn.NewDropout(core, dropCfg)
}
