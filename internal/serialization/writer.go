package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/x448/float16"

	"github.com/born-ml/recurrent/internal/tensor"
)

const recurrentVersion = "0.1.0"

// WriteOptions configures how tensor payloads are stored.
type WriteOptions struct {
	// Float16 stores float32 tensors as IEEE 754 half precision, halving
	// file size. Values round to nearest on write and widen back to
	// float32 on read. Int32 tensors are unaffected.
	Float16 bool
}

// Writer writes .rnn files. The writer always produces format v2.
type Writer struct {
	file   *os.File
	opts   WriteOptions
	closed bool
}

// NewWriter creates a .rnn file writer with full-precision storage.
func NewWriter(path string) (*Writer, error) {
	return NewWriterWithOptions(path, WriteOptions{})
}

// NewWriterWithOptions creates a .rnn file writer with explicit storage
// options.
func NewWriterWithOptions(path string, opts WriteOptions) (*Writer, error) {
	//nolint:gosec // G304: the path is the user's chosen checkpoint location
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &Writer{file: file, opts: opts}, nil
}

// WriteStateDict writes a state dictionary with a minimal header.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return w.WriteStateDictWithHeader(stateDict, Header{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// WriteStateDictWithHeader writes a state dictionary with a caller-built
// header, which is how checkpoints attach CheckpointMeta. Version, library
// version, creation time, and tensor metadata are filled in here.
func (w *Writer) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return writeV2(w.file, stateDict, header, w.opts)
}

// Close closes the writer and the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo writes a state dictionary in v2 format to an arbitrary
// io.Writer, for buffers or network connections.
func WriteTo(writer io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return writeV2(writer, stateDict, Header{
		ModelType: modelType,
		Metadata:  metadata,
	}, WriteOptions{})
}

// encodeTensor returns the stored payload and storage dtype string for one
// tensor. Float32 narrows to float16 when requested; everything else is
// the raw buffer as-is.
func encodeTensor(raw *tensor.RawTensor, toF16 bool) ([]byte, string) {
	if toF16 && raw.DType() == tensor.Float32 {
		values := raw.AsFloat32()
		buf := make([]byte, len(values)*2)
		for i, v := range values {
			binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(v).Bits())
		}
		return buf, DTypeFloat16
	}
	return raw.Data(), dtypeToString(raw.DType())
}

// writeV2 lays out and writes a complete v2 file: fixed header, JSON
// header, alignment padding, tensor payload. Tensors are written in sorted
// name order so identical state dicts produce identical files.
func writeV2(out io.Writer, stateDict map[string]*tensor.RawTensor, header Header, opts WriteOptions) error {
	header.FormatVersion = FormatVersionV2
	header.RecurrentVersion = recurrentVersion
	header.CreatedAt = time.Now().UTC()
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header.Tensors = make([]TensorMeta, 0, len(names))
	var payload []byte
	var currentOffset int64

	for _, name := range names {
		raw := stateDict[name]
		data, dtype := encodeTensor(raw, opts.Float16)

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   int64(len(data)),
		})

		payload = append(payload, data...)
		currentOffset += int64(len(data))
	}

	checksum := ComputeChecksum(payload)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixedHeader := make([]byte, FixedHeaderSizeV2)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersionV2))

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil && header.CheckpointMeta.IsCheckpoint {
		flags |= FlagHasOptimizer
	}
	if opts.Float16 {
		flags |= FlagFloat16
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	// 0x0C-0x0F reserved, zero from make.
	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(payload)))
	copy(fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	if _, err := out.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	currentPos := int64(FixedHeaderSizeV2) + int64(len(headerJSON))
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := out.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := out.Write(payload); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}
