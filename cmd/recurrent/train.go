package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/born-ml/recurrent/internal/autodiff"
	"github.com/born-ml/recurrent/internal/backend/cpu"
	"github.com/born-ml/recurrent/internal/envconfig"
	"github.com/born-ml/recurrent/internal/lm"
	"github.com/born-ml/recurrent/internal/optim"
	"github.com/born-ml/recurrent/internal/rnn"
	"github.com/born-ml/recurrent/internal/sample"
	"github.com/born-ml/recurrent/internal/textdata"
	"github.com/born-ml/recurrent/internal/tokenizer"
	"github.com/born-ml/recurrent/internal/track"
)

type trainOptions struct {
	corpus    string
	tokenizer string

	cell        string
	embedDim    int
	hiddenSize  int
	layers      int
	inputKeep   float32
	outputKeep  float32
	stateKeep   float32
	dropoutSeed int64

	seqLen      int
	batchSize   int
	epochs      int
	optimizer   string
	lr          float32
	momentum    float32
	clipNorm    float64
	valFraction float64

	out     string
	resume  string
	backend string

	runName   string
	store     string
	storePath string
	logEvery  int
	preview   int
}

func newTrainCmd() *cobra.Command {
	trainCmd := &cobra.Command{
		Use:   "train CORPUS",
		Short: "Train a recurrent language model on a text corpus",
		Args:  cobra.ExactArgs(1),
		RunE:  TrainHandler,
	}

	trainCmd.Flags().String("tokenizer", "byte", "Tokenizer: byte, cl100k_base, p50k_base, or r50k_base")
	trainCmd.Flags().String("cell", "lstm", "Recurrent cell: lstm, gru, or basic")
	trainCmd.Flags().Int("embed", 64, "Token embedding width")
	trainCmd.Flags().Int("hidden", 256, "Hidden size of every recurrent layer")
	trainCmd.Flags().Int("layers", 2, "Number of stacked recurrent layers")
	trainCmd.Flags().Float32("input-keep", 1.0, "Dropout input keep probability in (0, 1]")
	trainCmd.Flags().Float32("output-keep", 1.0, "Dropout output keep probability in (0, 1]")
	trainCmd.Flags().Float32("state-keep", 1.0, "Dropout state keep probability in (0, 1]")
	trainCmd.Flags().Int64("dropout-seed", -1, "Seed for reproducible dropout masks (-1 = random)")

	trainCmd.Flags().Int("seq-len", 64, "Truncated backpropagation window length")
	trainCmd.Flags().Int("batch-size", 32, "Parallel token streams per batch")
	trainCmd.Flags().Int("epochs", 10, "Training epochs")
	trainCmd.Flags().String("optimizer", "adam", "Optimizer: adam or sgd")
	trainCmd.Flags().Float32("lr", 0.001, "Learning rate")
	trainCmd.Flags().Float32("momentum", 0, "SGD momentum (ignored by adam)")
	trainCmd.Flags().Float64("clip", 5.0, "Global gradient norm clip (<= 0 disables)")
	trainCmd.Flags().Float64("val-fraction", 0.1, "Fraction of the corpus held out for validation (0 disables)")

	trainCmd.Flags().String("out", "model.rnn", "Checkpoint output path")
	trainCmd.Flags().String("resume", "", "Checkpoint to resume training from")
	trainCmd.Flags().String("backend", "cpu", "Compute backend: cpu or webgpu")

	trainCmd.Flags().String("run-name", "", "Run label for experiment tracking (default: derived from the cell)")
	trainCmd.Flags().String("store", envconfig.Store(), "Tracking store backend: memory or sqlite")
	trainCmd.Flags().String("store-path", envconfig.StorePath(), "SQLite database path for the sqlite store")
	trainCmd.Flags().Int("log-every", 50, "Steps between progress log lines (0 disables)")
	trainCmd.Flags().Int("preview", 0, "Sample this many tokens after each epoch (0 disables)")

	return trainCmd
}

// TrainHandler reads the flags and dispatches to the selected backend.
func TrainHandler(cmd *cobra.Command, args []string) error {
	opts, err := trainOptionsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	switch opts.backend {
	case "cpu":
		return runTraining(cmd.Context(), autodiff.New(cpu.New()), opts)
	case "webgpu":
		return trainWebGPU(cmd.Context(), opts)
	default:
		return fmt.Errorf("unknown backend %q (want cpu or webgpu)", opts.backend)
	}
}

func trainOptionsFromFlags(cmd *cobra.Command, args []string) (trainOptions, error) {
	var opts trainOptions
	opts.corpus = args[0]

	flags := cmd.Flags()
	opts.tokenizer, _ = flags.GetString("tokenizer")
	opts.cell, _ = flags.GetString("cell")
	opts.embedDim, _ = flags.GetInt("embed")
	opts.hiddenSize, _ = flags.GetInt("hidden")
	opts.layers, _ = flags.GetInt("layers")
	opts.inputKeep, _ = flags.GetFloat32("input-keep")
	opts.outputKeep, _ = flags.GetFloat32("output-keep")
	opts.stateKeep, _ = flags.GetFloat32("state-keep")
	opts.dropoutSeed, _ = flags.GetInt64("dropout-seed")
	opts.seqLen, _ = flags.GetInt("seq-len")
	opts.batchSize, _ = flags.GetInt("batch-size")
	opts.epochs, _ = flags.GetInt("epochs")
	opts.optimizer, _ = flags.GetString("optimizer")
	opts.lr, _ = flags.GetFloat32("lr")
	opts.momentum, _ = flags.GetFloat32("momentum")
	opts.clipNorm, _ = flags.GetFloat64("clip")
	opts.valFraction, _ = flags.GetFloat64("val-fraction")
	opts.out, _ = flags.GetString("out")
	opts.resume, _ = flags.GetString("resume")
	opts.backend, _ = flags.GetString("backend")
	opts.runName, _ = flags.GetString("run-name")
	opts.store, _ = flags.GetString("store")
	opts.storePath, _ = flags.GetString("store-path")
	opts.logEvery, _ = flags.GetInt("log-every")
	opts.preview, _ = flags.GetInt("preview")

	if opts.epochs <= 0 {
		return opts, fmt.Errorf("epochs must be positive, got %d", opts.epochs)
	}
	if opts.valFraction < 0 || opts.valFraction >= 1 {
		return opts, fmt.Errorf("val-fraction must be in [0, 1), got %v", opts.valFraction)
	}
	return opts, nil
}

// buildTokenizer maps a tokenizer name to an implementation. "byte" is
// the vocabulary-free default; the rest are tiktoken BPE encodings.
func buildTokenizer(name string) (tokenizer.Tokenizer, error) {
	if name == "byte" {
		return tokenizer.NewByte(), nil
	}
	return tokenizer.NewTikToken(name)
}

// runTraining is the full training flow: corpus, model, optimizer,
// epochs, tracking, checkpoints.
func runTraining[B autodiff.BackwardCapable](ctx context.Context, backend B, opts trainOptions) error {
	// When resuming, the checkpoint's configuration wins over the flags:
	// architecture and tokenizer are baked into the weights.
	var model *lm.Model[B]
	if opts.resume != "" {
		var err error
		model, err = lm.LoadModel(opts.resume, backend, rnn.Training)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if stored := model.Config().Tokenizer; stored != "" && stored != opts.tokenizer {
			slog.Info("using the tokenizer the model was trained with", "tokenizer", stored)
			opts.tokenizer = stored
		}
	}

	tok, err := buildTokenizer(opts.tokenizer)
	if err != nil {
		return err
	}

	info, err := os.Stat(opts.corpus)
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	ds, err := textdata.LoadFile(opts.corpus, tok)
	if err != nil {
		return err
	}
	slog.Info("corpus loaded",
		"path", opts.corpus,
		"size", humanize.Bytes(uint64(info.Size())),
		"tokens", humanize.Comma(int64(ds.Len())),
		"vocab", tok.VocabSize())

	if model == nil {
		cell, err := lm.ParseCellKind(opts.cell)
		if err != nil {
			return err
		}
		config := lm.DefaultConfig()
		config.VocabSize = tok.VocabSize()
		config.EmbedDim = opts.embedDim
		config.HiddenSize = opts.hiddenSize
		config.Layers = opts.layers
		config.Cell = cell
		config.InputKeepProb = opts.inputKeep
		config.OutputKeepProb = opts.outputKeep
		config.StateKeepProb = opts.stateKeep
		config.DropoutSeed = opts.dropoutSeed
		config.Tokenizer = opts.tokenizer

		model, err = lm.New(config, backend, rnn.Training)
		if err != nil {
			return err
		}
	}
	if model.Config().VocabSize != ds.VocabSize() {
		return fmt.Errorf("model vocabulary (%d) does not match the corpus tokenizer (%d)",
			model.Config().VocabSize, ds.VocabSize())
	}

	optimizer, err := buildOptimizer(model, opts)
	if err != nil {
		return err
	}
	trainer, err := lm.NewTrainer(model, optimizer, opts.clipNorm)
	if err != nil {
		return err
	}

	startEpoch := 1
	globalStep := int64(0)
	if opts.resume != "" {
		ckpt, err := model.Resume(opts.resume, optimizer)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		startEpoch = ckpt.Epoch + 1
		globalStep = ckpt.Step
		slog.Info("resumed", "checkpoint", opts.resume, "epoch", ckpt.Epoch, "step", ckpt.Step)
	}

	trainDS := ds
	var valBatches []textdata.Batch
	if opts.valFraction > 0 {
		var valDS *textdata.Dataset
		trainDS, valDS = ds.Split(1 - opts.valFraction)
		valBatches, err = valDS.Batches(opts.seqLen, opts.batchSize)
		if err != nil {
			slog.Warn("validation set too small, skipping validation", "error", err)
			valBatches = nil
		}
	}
	batches, err := trainDS.Batches(opts.seqLen, opts.batchSize)
	if err != nil {
		return err
	}

	slog.Info("model ready",
		"cell", model.Config().Cell,
		"layers", model.Config().Layers,
		"parameters", humanize.Comma(int64(model.NumParameters())),
		"batches", len(batches),
		"backend", backend.Name())

	store, err := track.NewStore(opts.store, opts.storePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close tracking store", "error", err)
		}
	}()

	runName := opts.runName
	if runName == "" {
		runName = fmt.Sprintf("%s-%dx%d", model.Config().Cell, model.Config().Layers, model.Config().HiddenSize)
	}
	run := track.NewRun(runName, runConfig(model.Config(), opts))
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	slog.Info("run started", "run", run.ID, "name", run.Name, "store", opts.store)

	for epoch := startEpoch; epoch < startEpoch+opts.epochs; epoch++ {
		trainer.ResetState()
		epochStart := time.Now()

		var epochLoss float64
		tokensSeen := 0
		for i, batch := range batches {
			stats, err := trainer.Step(batch)
			if err != nil {
				return err
			}
			epochLoss += float64(stats.Loss)
			tokensSeen += stats.Tokens
			globalStep++

			if opts.logEvery > 0 && (i+1)%opts.logEvery == 0 {
				rate := float64(tokensSeen) / time.Since(epochStart).Seconds()
				slog.Info("train",
					"epoch", epoch,
					"batch", fmt.Sprintf("%d/%d", i+1, len(batches)),
					"loss", fmt.Sprintf("%.4f", stats.Loss),
					"grad_norm", fmt.Sprintf("%.2f", stats.GradNorm),
					"tok/s", humanize.Comma(int64(rate)))
			}
		}
		trainLoss := epochLoss / float64(len(batches))

		logMetric(ctx, store, run.ID, "train_loss", int64(epoch), trainLoss)
		attrs := []any{
			"epoch", epoch,
			"train_loss", fmt.Sprintf("%.4f", trainLoss),
			"perplexity", fmt.Sprintf("%.2f", lm.Perplexity(trainLoss)),
		}
		if len(valBatches) > 0 {
			valLoss, err := trainer.Evaluate(valBatches)
			if err != nil {
				return err
			}
			logMetric(ctx, store, run.ID, "val_loss", int64(epoch), valLoss)
			attrs = append(attrs, "val_loss", fmt.Sprintf("%.4f", valLoss))
		}
		attrs = append(attrs, "duration", time.Since(epochStart).Round(time.Second))
		slog.Info("epoch complete", attrs...)

		if opts.preview > 0 {
			previewSample(model, tok, ds, opts.preview)
		}

		if err := model.SaveCheckpoint(opts.out, optimizer, epoch, globalStep, trainLoss); err != nil {
			return err
		}
	}

	slog.Info("training complete", "checkpoint", opts.out, "steps", globalStep)
	return nil
}

func buildOptimizer[B autodiff.BackwardCapable](model *lm.Model[B], opts trainOptions) (optim.Optimizer, error) {
	switch opts.optimizer {
	case "adam":
		return optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: opts.lr}, model.Backend()), nil
	case "sgd":
		return optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: opts.lr, Momentum: opts.momentum}, model.Backend()), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q (want adam or sgd)", opts.optimizer)
	}
}

// runConfig flattens the hyperparameters for the tracking store.
func runConfig(config lm.Config, opts trainOptions) map[string]string {
	return map[string]string{
		"corpus":      opts.corpus,
		"tokenizer":   config.Tokenizer,
		"cell":        string(config.Cell),
		"embed":       strconv.Itoa(config.EmbedDim),
		"hidden":      strconv.Itoa(config.HiddenSize),
		"layers":      strconv.Itoa(config.Layers),
		"input_keep":  formatFloat32(config.InputKeepProb),
		"output_keep": formatFloat32(config.OutputKeepProb),
		"state_keep":  formatFloat32(config.StateKeepProb),
		"seq_len":     strconv.Itoa(opts.seqLen),
		"batch_size":  strconv.Itoa(opts.batchSize),
		"optimizer":   opts.optimizer,
		"lr":          formatFloat32(opts.lr),
		"clip":        strconv.FormatFloat(opts.clipNorm, 'g', -1, 64),
	}
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func logMetric(ctx context.Context, store track.Store, runID, name string, step int64, value float64) {
	metric := track.Metric{RunID: runID, Name: name, Step: step, Value: value, At: time.Now().UTC()}
	if err := store.LogMetric(ctx, metric); err != nil {
		slog.Warn("failed to log metric", "metric", name, "error", err)
	}
}

// previewSample generates a short continuation of the corpus opening so
// training progress is visible as text, not just as a loss curve.
func previewSample[B autodiff.BackwardCapable](model *lm.Model[B], tok tokenizer.Tokenizer, ds *textdata.Dataset, maxTokens int) {
	prompt := []int32{ds.Tokens()[0]}

	config := lm.DefaultGenerateConfig()
	config.MaxTokens = maxTokens
	config.Sampling = sample.DefaultConfig()
	config.Sampling.Temperature = 0.8

	result, err := model.Generate(prompt, config)
	if err != nil {
		slog.Warn("preview generation failed", "error", err)
		return
	}
	text, err := tok.Decode(append(prompt, result.Tokens...))
	if err != nil {
		slog.Warn("preview decode failed", "error", err)
		return
	}
	slog.Info("sample", "text", text)
}
