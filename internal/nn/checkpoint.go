package nn

import (
	"fmt"
	"strings"
	"time"

	"github.com/born-ml/recurrent/internal/serialization"
	"github.com/born-ml/recurrent/internal/tensor"
)

// optimizerPrefix namespaces optimizer state inside a checkpoint so it
// cannot collide with parameter names.
const optimizerPrefix = "optimizer."

// OptimizerState is the slice of the optim package checkpoints need.
//
// Declared here rather than imported so nn does not depend on optim.
// Optimizers from the optim package implement this interface.
type OptimizerState interface {
	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads optimizer state from serialization.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// GetLR returns the current learning rate.
	GetLR() float32
}

// StateDictFrom builds a state dict from a list of named parameters.
//
// Every parameter keeps the name it was constructed with, so scoped names
// like "LSTMCell/weight_ih_input" survive the round trip. Duplicate names
// are an error: two parameters writing to the same key would silently
// drop one of them.
func StateDictFrom[B tensor.Backend](params []*Parameter[B]) (map[string]*tensor.RawTensor, error) {
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		if p == nil {
			return nil, fmt.Errorf("nil parameter in list")
		}
		if _, exists := stateDict[p.Name()]; exists {
			return nil, fmt.Errorf("duplicate parameter name %q", p.Name())
		}
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict, nil
}

// LoadStateDictInto copies saved values into an existing parameter list.
//
// Values are copied into each parameter's raw buffer rather than swapping
// tensors, so pointers held by optimizers and gradient tapes stay valid.
// Every parameter must be present in the state dict with a matching shape
// and dtype; extra entries in the dict are ignored.
func LoadStateDictInto[B tensor.Backend](params []*Parameter[B], stateDict map[string]*tensor.RawTensor) error {
	for _, p := range params {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("missing parameter %q in state dict", p.Name())
		}

		target := p.Tensor().Raw()
		if !raw.Shape().Equal(target.Shape()) {
			return fmt.Errorf("parameter %q shape mismatch: expected %v, got %v",
				p.Name(), target.Shape(), raw.Shape())
		}
		if raw.DType() != target.DType() {
			return fmt.Errorf("parameter %q dtype mismatch: expected %v, got %v",
				p.Name(), target.DType(), raw.DType())
		}

		copy(target.Data(), raw.Data())
	}
	return nil
}

// Checkpoint is a complete training state snapshot: model parameters,
// optimizer state, and enough bookkeeping to resume a run.
//
// Example:
//
//	checkpoint := &nn.Checkpoint[B]{
//	    Params:    model.AllParameters(),
//	    Optimizer: optimizer,
//	    Epoch:     10,
//	    Step:      5000,
//	    Loss:      0.123,
//	}
//	err := checkpoint.Save("checkpoint_epoch_10.rnn")
//
// To resume, reconstruct the model and optimizer with the same
// configuration, then:
//
//	checkpoint, err := nn.LoadCheckpoint("checkpoint.rnn", backend, model.AllParameters(), optimizer)
//	startEpoch := checkpoint.Epoch + 1
type Checkpoint[B tensor.Backend] struct {
	Params    []*Parameter[B] // model parameters, trainable and non-trainable
	Optimizer OptimizerState  // optimizer with its state
	Epoch     int             // training epoch number
	Step      int64           // training step number
	Loss      float64         // loss value at this checkpoint
	Metadata  map[string]any  // additional training metadata
	CreatedAt time.Time       // when the checkpoint was created
}

// Save writes the checkpoint to a .rnn file.
//
// Model parameters are stored under their own names and optimizer state
// under the "optimizer." prefix, in one file.
func (c *Checkpoint[B]) Save(path string) error {
	combined, err := StateDictFrom(c.Params)
	if err != nil {
		return fmt.Errorf("failed to build model state dict: %w", err)
	}

	if c.Optimizer != nil {
		for name, raw := range c.Optimizer.StateDict() {
			combined[optimizerPrefix+name] = raw
		}
	}

	header := serialization.Header{
		ModelType: "Checkpoint",
		CheckpointMeta: &serialization.CheckpointMeta{
			IsCheckpoint:    true,
			Epoch:           c.Epoch,
			Step:            c.Step,
			Loss:            c.Loss,
			OptimizerType:   optimizerTypeName(c.Optimizer),
			OptimizerConfig: optimizerConfig(c.Optimizer),
			TrainingMeta:    c.Metadata,
		},
	}

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	if err := writer.WriteStateDictWithHeader(combined, header); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return writer.Close()
}

// LoadCheckpoint restores a training snapshot from a .rnn file.
//
// The parameter list and optimizer must be pre-constructed with the same
// architecture and configuration the checkpoint was saved from. Parameter
// values are restored in place; optimizer may be nil when only weights
// are wanted.
func LoadCheckpoint[B tensor.Backend](
	path string,
	backend B,
	params []*Parameter[B],
	optimizer OptimizerState,
) (*Checkpoint[B], error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	if header.CheckpointMeta == nil || !header.CheckpointMeta.IsCheckpoint {
		return nil, fmt.Errorf("file %q is not a checkpoint", path)
	}

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to read state dict: %w", err)
	}

	modelState := make(map[string]*tensor.RawTensor)
	optimizerState := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			optimizerState[rest] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := LoadStateDictInto(params, modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if optimizer != nil && len(optimizerState) > 0 {
		if err := optimizer.LoadStateDict(optimizerState); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
	}

	return &Checkpoint[B]{
		Params:    params,
		Optimizer: optimizer,
		Epoch:     header.CheckpointMeta.Epoch,
		Step:      header.CheckpointMeta.Step,
		Loss:      header.CheckpointMeta.Loss,
		Metadata:  header.CheckpointMeta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// SaveWeights writes just the parameters to a .rnn file, without optimizer
// state or checkpoint bookkeeping. Use this for finished models.
func SaveWeights[B tensor.Backend](path string, params []*Parameter[B], modelType string, metadata map[string]string) error {
	stateDict, err := StateDictFrom(params)
	if err != nil {
		return fmt.Errorf("failed to build state dict: %w", err)
	}

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	if err := writer.WriteStateDict(stateDict, modelType, metadata); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return writer.Close()
}

// LoadWeights restores parameter values in place from a .rnn file written
// by SaveWeights or Checkpoint.Save (optimizer entries are skipped).
func LoadWeights[B tensor.Backend](path string, backend B, params []*Parameter[B]) error {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open weights file: %w", err)
	}
	defer func() { _ = reader.Close() }()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return fmt.Errorf("failed to read state dict: %w", err)
	}

	modelState := make(map[string]*tensor.RawTensor, len(stateDict))
	for name, raw := range stateDict {
		if !strings.HasPrefix(name, optimizerPrefix) {
			modelState[name] = raw
		}
	}
	return LoadStateDictInto(params, modelState)
}

// optimizerTypeName reports the optimizer's concrete type name without
// importing optim: "*optim.Adam[...]" becomes "Adam".
func optimizerTypeName(opt OptimizerState) string {
	if opt == nil {
		return ""
	}
	name := fmt.Sprintf("%T", opt)
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}

func optimizerConfig(opt OptimizerState) map[string]any {
	if opt == nil {
		return nil
	}
	return map[string]any{"lr": opt.GetLR()}
}
