package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/lm"
	"github.com/born-ml/recurrent/internal/rnn"
	"github.com/born-ml/recurrent/internal/tokenizer"
)

type generateOptions struct {
	model  string
	prompt string

	maxTokens   int
	temperature float32
	topK        int
	topP        float32
	seed        int64

	tokenizer string
	backend   string
}

func newGenerateCmd() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate MODEL PROMPT",
		Short: "Sample text from a trained model",
		Args:  cobra.ExactArgs(2),
		RunE:  GenerateHandler,
	}

	generateCmd.Flags().Int("max-tokens", 256, "Maximum tokens to generate")
	generateCmd.Flags().Float32("temperature", 0.8, "Sampling temperature (0 = greedy)")
	generateCmd.Flags().Int("top-k", 0, "Sample from the K highest logits (0 disables)")
	generateCmd.Flags().Float32("top-p", 1.0, "Nucleus sampling threshold (1 disables)")
	generateCmd.Flags().Int64("seed", -1, "Sampling seed for reproducible output (-1 = random)")
	generateCmd.Flags().String("tokenizer", "", "Override the tokenizer stored in the model file")
	generateCmd.Flags().String("backend", "cpu", "Compute backend: cpu or webgpu")

	return generateCmd
}

// GenerateHandler reads the flags and dispatches to the selected
// backend.
func GenerateHandler(cmd *cobra.Command, args []string) error {
	var opts generateOptions
	opts.model = args[0]
	opts.prompt = args[1]

	flags := cmd.Flags()
	opts.maxTokens, _ = flags.GetInt("max-tokens")
	opts.temperature, _ = flags.GetFloat32("temperature")
	opts.topK, _ = flags.GetInt("top-k")
	opts.topP, _ = flags.GetFloat32("top-p")
	opts.seed, _ = flags.GetInt64("seed")
	opts.tokenizer, _ = flags.GetString("tokenizer")
	opts.backend, _ = flags.GetString("backend")

	switch opts.backend {
	case "cpu":
		return runGeneration(autodiff.New(cpu.New()), opts)
	case "webgpu":
		return generateWebGPU(opts)
	default:
		return fmt.Errorf("unknown backend %q (want cpu or webgpu)", opts.backend)
	}
}

func runGeneration[B autodiff.BackwardCapable](backend B, opts generateOptions) error {
	model, err := lm.LoadModel(opts.model, backend, rnn.Inference)
	if err != nil {
		return err
	}

	name := opts.tokenizer
	if name == "" {
		name = model.Config().Tokenizer
	}
	if name == "" {
		name = "byte"
		slog.Warn("model file does not name its tokenizer, assuming byte")
	}
	tok, err := buildTokenizer(name)
	if err != nil {
		return err
	}
	if tok.VocabSize() != model.Config().VocabSize {
		return fmt.Errorf("tokenizer %q vocabulary (%d) does not match the model (%d)",
			name, tok.VocabSize(), model.Config().VocabSize)
	}

	prompt, err := tok.Encode(opts.prompt)
	if err != nil {
		return err
	}
	if len(prompt) == 0 {
		return fmt.Errorf("prompt %q encodes to no tokens", opts.prompt)
	}

	config := lm.DefaultGenerateConfig()
	config.MaxTokens = opts.maxTokens
	config.Sampling.Temperature = opts.temperature
	config.Sampling.TopK = opts.topK
	config.Sampling.TopP = opts.topP
	config.Sampling.Seed = opts.seed
	if bpe, ok := tok.(*tokenizer.TikToken); ok {
		config.StopTokens = append(config.StopTokens, bpe.EosToken())
	}

	result, err := model.Generate(prompt, config)
	if err != nil {
		return err
	}

	// Decode the continuation in one pass: byte-level vocabularies can
	// split multibyte runes across tokens, so partial decodes are not
	// guaranteed to be valid text.
	text, err := tok.Decode(result.Tokens)
	if err != nil {
		return err
	}
	fmt.Println(opts.prompt + text)

	slog.Debug("generation finished", "tokens", len(result.Tokens), "reason", result.Reason)
	return nil
}
