// Package serialization implements the native .rnn checkpoint format.
//
// A v2 .rnn file is laid out as:
//
//	[64 bytes: fixed header]
//	  0x00  magic "RNNC"
//	  0x04  version (uint32 LE)
//	  0x08  flags (uint32 LE)
//	  0x0C  reserved
//	  0x10  header size (uint64 LE)
//	  0x18  data size (uint64 LE)
//	  0x20  SHA-256 checksum of the data section
//	[JSON header: tensor metadata, checkpoint metadata]
//	[tensor data: raw bytes, 64-byte aligned]
//
// Tensors are float32 or int32. With WriteOptions.Float16 the writer stores
// float32 payloads as IEEE 754 half precision, halving file size; the
// reader widens them back to float32 transparently.
//
// The reader also accepts the legacy v1 layout (no fixed header, no
// checksum); the writer only produces v2.
package serialization
