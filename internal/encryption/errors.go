package encryption

import "errors"

var (
	// ErrEmptyData is returned when attempting to unpad an empty block.
	ErrEmptyData = errors.New("empty data")
	// ErrCorruptPadding is returned when the final block carries a padding length outside [1,16]
	// or padding bytes that do not all match that length.
	ErrCorruptPadding = errors.New("corrupt padding")
	// ErrInvalidBlockSize is returned when encrypted data length is not aligned with AES block size.
	ErrInvalidBlockSize = errors.New("ciphertext is not a multiple of block size")
	// ErrInvalidKeySize is returned when the key or IV is not exactly one block long.
	ErrInvalidKeySize = errors.New("key and iv must be 16 bytes")
	// ErrEntropyUnavailable is returned when the secure random source cannot supply bytes.
	ErrEntropyUnavailable = errors.New("entropy unavailable")
)
