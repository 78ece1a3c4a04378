package serialization

import (
	"time"

	"github.com/born-ml/recurrent/internal/tensor"
)

// Format constants.
const (
	MagicBytes        = "RNNC"
	FormatVersion     = 1    // v1: legacy layout without checksum
	FormatVersionV2   = 2    // v2: fixed header with SHA-256 checksum
	HeaderAlignment   = 64   // tensor data alignment in bytes
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 digest size
	ChecksumOffsetV2  = 0x20 // checksum offset within the v2 fixed header
)

// Data type strings used in tensor metadata. float16 is a storage encoding
// for float32 tensors, not a compute type: the writer narrows on encode and
// the reader widens on decode.
const (
	DTypeFloat32 = "float32"
	DTypeFloat16 = "float16"
	DTypeInt32   = "int32"
)

// Header flags.
const (
	FlagHasOptimizer uint32 = 1 << 1 // optimizer state tensors included
	FlagHasMetadata  uint32 = 1 << 2 // custom metadata present
	FlagFloat16      uint32 = 1 << 3 // float32 payloads stored as float16
)

// Header is the JSON header of a .rnn file.
type Header struct {
	FormatVersion    int               `json:"format_version"`
	RecurrentVersion string            `json:"recurrent_version"`
	ModelType        string            `json:"model_type"`
	CreatedAt        time.Time         `json:"created_at"`
	Tensors          []TensorMeta      `json:"tensors"`
	Metadata         map[string]string `json:"metadata"`
	CheckpointMeta   *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta carries training state for resumable checkpoints.
type CheckpointMeta struct {
	IsCheckpoint    bool           `json:"is_checkpoint"`
	Epoch           int            `json:"epoch"`
	Step            int64          `json:"step"`
	Loss            float64        `json:"loss"`
	OptimizerType   string         `json:"optimizer_type"`
	OptimizerConfig map[string]any `json:"optimizer_config"`
	TrainingMeta    map[string]any `json:"training_meta"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // parameter name, e.g. "LSTMCell/weight_ih_input"
	DType  string `json:"dtype"`  // storage dtype ("float32", "float16", "int32")
	Shape  []int  `json:"shape"`  // logical tensor shape
	Offset int64  `json:"offset"` // byte offset from the start of the data section
	Size   int64  `json:"size"`   // stored size in bytes
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Int32:
		return DTypeInt32
	default:
		return "unknown"
	}
}

// stringToDtype maps a storage dtype to the in-memory DataType it decodes
// into. float16 widens to Float32.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32, DTypeFloat16:
		return tensor.Float32, true
	case DTypeInt32:
		return tensor.Int32, true
	default:
		return 0, false
	}
}
