// Package tensor provides the core tensor types and operations for the
// recurrent sequence-modeling toolkit.
package tensor

// DType is a constraint for supported tensor data types.
//
// The toolkit computes in float32 (weights, activations, gradients) and
// int32 (token ids, class indices). Checkpoint files may additionally
// store tensors as float16, but that is a storage encoding handled by the
// serialization package, never a compute type.
type DType interface {
	~float32 | ~int32
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Int32
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	default:
		panic("unsupported type")
	}
}
