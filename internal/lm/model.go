// Package lm assembles the framework's pieces into a recurrent language
// model: token embedding, recurrent cell stack, linear head over the
// vocabulary, a training loop, and autoregressive generation.
//
// The model is a next-token predictor. Training consumes [seq, batch]
// token grids from the textdata package; generation threads the
// recurrent state one token at a time through the same cell stack.
package lm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/nn"
	"github.com/born-ml/recurrent/internal/rnn"
	"github.com/born-ml/recurrent/internal/rnn/step"
	"github.com/born-ml/recurrent/internal/sample"
	"github.com/born-ml/recurrent/internal/serialization"
	"github.com/born-ml/recurrent/internal/tensor"
	"github.com/born-ml/recurrent/internal/textdata"
)

// configMetaKey is the metadata key the model's JSON configuration is
// stored under in weights files and checkpoints.
const configMetaKey = "lm_config"

// Model is a recurrent language model: embedding, cell stack, head.
//
// The cell instance is created once at construction, so the weights are
// fixed for the model's lifetime. A model built for Training carries the
// configured dropout operator; Loss and Generate strip it for their
// forward passes, so the same weights serve training, evaluation, and
// sampling without copies.
type Model[B tensor.Backend] struct {
	config  Config
	backend B
	mode    rnn.Mode

	embedding *nn.Embedding[B]
	cell      rnn.Cell[B]
	instance  *rnn.CellInstance[B]
	head      *nn.Linear[B]
	criterion *nn.CrossEntropyLoss[B]
}

// New builds a model for the given phase. Use rnn.Training for models
// that will be trained (dropout active in TrainStep) and rnn.Inference
// for generation-only models, where the cell tree hands back its inner
// instance without any masking operator.
func New[B tensor.Backend](config Config, backend B, mode rnn.Mode) (*Model[B], error) {
	cell, err := BuildCell(config, backend)
	if err != nil {
		return nil, err
	}
	instance, err := cell.CreateInstance(mode)
	if err != nil {
		return nil, err
	}

	return &Model[B]{
		config:    config,
		backend:   backend,
		mode:      mode,
		embedding: nn.NewEmbedding(config.VocabSize, config.EmbedDim, backend),
		cell:      cell,
		instance:  instance,
		head:      nn.NewLinear(config.HiddenSize, config.VocabSize, backend),
		criterion: nn.NewCrossEntropyLoss(backend),
	}, nil
}

// Config returns the model's configuration.
func (m *Model[B]) Config() Config {
	return m.config
}

// Mode returns the phase the model was built for.
func (m *Model[B]) Mode() rnn.Mode {
	return m.mode
}

// Backend returns the backend the model runs on.
func (m *Model[B]) Backend() B {
	return m.backend
}

// Parameters returns the model's parameters in a stable order: embedding
// table, cell weights in layer order, then head.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 2+len(m.instance.Trainable)+len(m.instance.NonTrainable))
	params = append(params, m.embedding.Weight)
	params = append(params, m.instance.Parameters()...)
	params = append(params, m.head.Parameters()...)
	return params
}

// NumParameters returns the total trainable element count, for logs.
func (m *Model[B]) NumParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().NumElements()
	}
	return total
}

// CheckpointParameters returns the model's parameters renamed into a
// stable namespace, aliasing the same tensors.
//
// Cell instance names carry a process-wide uniquifying counter, so a
// fresh process that builds other cells first would produce different
// names and fail name-keyed loading. Checkpoints therefore key the cell
// weights by position instead: "cell.3.weight_hh_forget" is the fourth
// cell parameter regardless of which instance it came from. Loading
// copies into the aliased raw buffers, so the live parameters see the
// restored values.
func (m *Model[B]) CheckpointParameters() []*nn.Parameter[B] {
	cellParams := m.instance.Parameters()

	out := make([]*nn.Parameter[B], 0, len(cellParams)+3)
	out = append(out, nn.NewParameter("embedding.weight", m.embedding.Weight.Tensor()))
	for i, p := range cellParams {
		tail := p.Name()
		if idx := strings.LastIndex(tail, "/"); idx >= 0 {
			tail = tail[idx+1:]
		}
		out = append(out, nn.NewParameter(fmt.Sprintf("cell.%d.%s", i, tail), p.Tensor()))
	}
	out = append(out, nn.NewParameter("head.weight", m.head.Weight().Tensor()))
	if bias := m.head.Bias(); bias != nil {
		out = append(out, nn.NewParameter("head.bias", bias.Tensor()))
	}
	return out
}

// stepHandle returns the step cell for a phase. The instance is created
// once at construction; phases other than Training run with the dropout
// operator stripped so the same weights execute unmasked.
func (m *Model[B]) stepHandle(mode rnn.Mode) step.Cell[B] {
	if mode != rnn.Training {
		if d, ok := m.instance.Cell.(*step.Dropout[B]); ok {
			return d.Inner()
		}
	}
	return m.instance.Cell
}

// forward runs tokens [seq, batch] through embedding, cell stack, and
// head, returning logits [seq*batch, vocab] and the final recurrent
// state. A nil initial state starts from zeros.
func (m *Model[B]) forward(
	tokens *tensor.Tensor[int32, B],
	initial step.State[B],
	mode rnn.Mode,
) (*tensor.Tensor[float32, B], step.State[B], error) {
	shape := tokens.Shape()
	if len(shape) != 2 {
		return nil, nil, fmt.Errorf("lm: tokens must be [seq, batch], got shape %v: %w",
			shape, rnn.ErrInvalidArgument)
	}
	seqLen, batchSize := shape[0], shape[1]

	embedded := m.embedding.Forward(tokens) // [seq, batch, embed]

	outputs, final, err := rnn.Unroll(m.stepHandle(mode), embedded, initial)
	if err != nil {
		return nil, nil, err
	}

	flat := outputs.Reshape(seqLen*batchSize, m.config.HiddenSize)
	return m.head.Forward(flat), final, nil
}

// pauseRecording stops tape recording for a forward-only pass and
// returns the restore function. A no-op on backends without a tape or
// with recording already off.
func (m *Model[B]) pauseRecording() func() {
	bc, ok := any(m.backend).(interface{ GetTape() *autodiff.GradientTape })
	if !ok {
		return func() {}
	}
	tape := bc.GetTape()
	if !tape.IsRecording() {
		return func() {}
	}
	tape.StopRecording()
	return tape.StartRecording
}

// Loss computes the mean next-token cross-entropy over a batch, forward
// only and without dropout. Use it for held-out evaluation; perplexity
// is exp of the returned value.
func (m *Model[B]) Loss(batch textdata.Batch) (float32, error) {
	defer m.pauseRecording()()

	tokens := tensor.New[int32, B](batch.Input, m.backend)
	logits, _, err := m.forward(tokens, nil, rnn.Evaluation)
	if err != nil {
		return 0, err
	}

	targets := tensor.New[int32, B](batch.Target, m.backend)
	loss := m.criterion.Forward(logits, targets.Reshape(targets.NumElements()))
	return loss.Item(), nil
}

// GenerateConfig controls autoregressive generation.
type GenerateConfig struct {
	// MaxTokens caps the generated continuation length. Non-positive
	// falls back to the DefaultGenerateConfig value.
	MaxTokens int
	// StopTokens end generation when sampled. The stop token is included
	// in the output.
	StopTokens []int32
	// Sampling configures the logits-to-token strategy.
	Sampling sample.Config
	// OnToken, when set, is called with each token as it is sampled.
	OnToken func(token int32)
}

// DefaultGenerateConfig returns a 256-token budget with default
// sampling.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		MaxTokens: 256,
		Sampling:  sample.DefaultConfig(),
	}
}

// GenerateResult is a finished generation: the continuation (prompt
// excluded) and why it stopped.
type GenerateResult struct {
	Tokens []int32
	// Reason is "stop_token" or "max_tokens".
	Reason string
}

// Generate samples a continuation of prompt.
//
// The prompt is consumed in one unroll to warm the recurrent state, then
// tokens are sampled one at a time, each fed back through the stack.
// Dropout never applies, whichever phase the model was built for. The
// full history, prompt included, feeds the sampler's repetition
// penalties.
func (m *Model[B]) Generate(prompt []int32, config GenerateConfig) (*GenerateResult, error) {
	if len(prompt) == 0 {
		return nil, fmt.Errorf("lm: generate needs at least one prompt token: %w", rnn.ErrInvalidArgument)
	}
	for _, id := range prompt {
		if id < 0 || int(id) >= m.config.VocabSize {
			return nil, fmt.Errorf("lm: prompt token %d outside vocabulary of %d: %w",
				id, m.config.VocabSize, rnn.ErrInvalidArgument)
		}
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultGenerateConfig().MaxTokens
	}

	// Keep generation off a recording tape; restore on the way out so a
	// training loop can sample preview text mid-epoch.
	defer m.pauseRecording()()

	sampler := sample.New(config.Sampling)

	history := make([]int32, 0, len(prompt)+config.MaxTokens)
	history = append(history, prompt...)

	lastLogits, state, err := m.stepTokens(prompt, nil)
	if err != nil {
		return nil, err
	}

	generated := make([]int32, 0, config.MaxTokens)
	reason := "max_tokens"
	for len(generated) < config.MaxTokens {
		next := sampler.Sample(lastLogits, history)
		generated = append(generated, next)
		history = append(history, next)
		if config.OnToken != nil {
			config.OnToken(next)
		}

		if isStopToken(next, config.StopTokens) {
			reason = "stop_token"
			break
		}
		if len(generated) == config.MaxTokens {
			break
		}

		lastLogits, state, err = m.stepTokens([]int32{next}, state)
		if err != nil {
			return nil, err
		}
	}

	return &GenerateResult{Tokens: generated, Reason: reason}, nil
}

// stepTokens advances the model over tokens at batch size one and
// returns the final frame's logits plus the carried state.
func (m *Model[B]) stepTokens(tokens []int32, state step.State[B]) ([]float32, step.State[B], error) {
	seqLen := len(tokens)
	input, err := tensor.FromSlice(tokens, tensor.Shape{seqLen, 1}, m.backend)
	if err != nil {
		return nil, nil, err
	}

	logits, next, err := m.forward(input, state, rnn.Inference)
	if err != nil {
		return nil, nil, err
	}

	// logits is [seq, vocab] at batch size one; the last row scores the
	// next token.
	vocab := m.config.VocabSize
	last := make([]float32, vocab)
	copy(last, logits.Data()[(seqLen-1)*vocab:])
	return last, next, nil
}

func isStopToken(token int32, stops []int32) bool {
	for _, s := range stops {
		if token == s {
			return true
		}
	}
	return false
}

// SaveWeights writes the model's parameters and configuration to a .rnn
// file. The configuration rides in the header metadata so LoadModel can
// rebuild the architecture without outside help.
func (m *Model[B]) SaveWeights(path string) error {
	blob, err := json.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("lm: failed to encode config: %w", err)
	}
	meta := map[string]string{configMetaKey: string(blob)}
	return nn.SaveWeights(path, m.CheckpointParameters(), "RecurrentLM", meta)
}

// SaveCheckpoint writes a resumable training snapshot: parameters,
// optimizer state, bookkeeping, and the model configuration.
func (m *Model[B]) SaveCheckpoint(path string, optimizer nn.OptimizerState, epoch int, stepNum int64, loss float64) error {
	blob, err := json.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("lm: failed to encode config: %w", err)
	}

	checkpoint := &nn.Checkpoint[B]{
		Params:    m.CheckpointParameters(),
		Optimizer: optimizer,
		Epoch:     epoch,
		Step:      stepNum,
		Loss:      loss,
		Metadata:  map[string]any{configMetaKey: string(blob)},
	}
	return checkpoint.Save(path)
}

// Resume restores training state saved by SaveCheckpoint into this model
// and optimizer. The returned checkpoint carries the saved epoch, step,
// and loss so the caller can pick up the schedule where it stopped.
func (m *Model[B]) Resume(path string, optimizer nn.OptimizerState) (*nn.Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, m.backend, m.CheckpointParameters(), optimizer)
}

// LoadModel rebuilds a model from a file written by SaveWeights or
// SaveCheckpoint: the configuration comes from the file's metadata, the
// model is constructed for the given mode, and the saved values are
// copied into its parameters. Optimizer state in a checkpoint is
// ignored; use Resume to restore it.
func LoadModel[B tensor.Backend](path string, backend B, mode rnn.Mode) (*Model[B], error) {
	config, err := readConfig(path)
	if err != nil {
		return nil, err
	}

	model, err := New(config, backend, mode)
	if err != nil {
		return nil, err
	}
	if err := nn.LoadWeights(path, backend, model.CheckpointParameters()); err != nil {
		return nil, err
	}
	return model, nil
}

// readConfig extracts the stored model configuration from a weights file
// (header metadata) or checkpoint (training metadata).
func readConfig(path string) (Config, error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	blob, ok := header.Metadata[configMetaKey]
	if !ok && header.CheckpointMeta != nil {
		blob, ok = header.CheckpointMeta.TrainingMeta[configMetaKey].(string)
	}
	if !ok {
		return Config{}, fmt.Errorf("lm: %s carries no model configuration", path)
	}

	var config Config
	if err := json.Unmarshal([]byte(blob), &config); err != nil {
		return Config{}, fmt.Errorf("lm: bad model configuration in %s: %w", path, err)
	}
	return config, nil
}
