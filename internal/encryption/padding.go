package encryption

import (
	"bytes"
	"fmt"
)

// PaddingMode selects how out-of-range padding on the final block is handled.
type PaddingMode byte

const (
	// PaddingStrict rejects malformed padding with ErrCorruptPadding.
	PaddingStrict PaddingMode = iota
	// PaddingLenient keeps the final block untouched when its padding length is out of range.
	PaddingLenient
)

// ParsePaddingMode maps "strict" and "lenient" to a PaddingMode.
func ParsePaddingMode(s string) (PaddingMode, error) {
	switch s {
	case "", "strict":
		return PaddingStrict, nil
	case "lenient":
		return PaddingLenient, nil
	default:
		return 0, fmt.Errorf("unknown padding mode %q", s)
	}
}

func (m PaddingMode) String() string {
	if m == PaddingLenient {
		return "lenient"
	}

	return "strict"
}

// Pad appends BlockSize-len(data)%BlockSize copies of that length to data.
// A block-aligned input gains a whole block of padding.
func Pad(data []byte) []byte {
	padding := BlockSize - len(data)%BlockSize
	padText := bytes.Repeat([]byte{byte(padding)}, padding)

	return append(data, padText...)
}

// Unpad removes padding from the final decrypted block.
// It reports whether padding was stripped; in lenient mode an out-of-range length
// returns the block unchanged and false.
func Unpad(data []byte, mode PaddingMode) ([]byte, bool, error) {
	length := len(data)
	if length == 0 {
		return nil, false, ErrEmptyData
	}

	padding := int(data[length-1])

	if mode == PaddingLenient {
		if padding < 1 || padding > BlockSize || padding > length {
			return data, false, nil
		}

		return data[:length-padding], true, nil
	}

	if padding < 1 || padding > BlockSize || padding > length {
		return nil, false, fmt.Errorf("%w: length %d", ErrCorruptPadding, padding)
	}

	for i := length - padding; i < length; i++ {
		if data[i] != byte(padding) {
			return nil, false, fmt.Errorf("%w: byte %d is %#x, want %#x", ErrCorruptPadding, i, data[i], padding)
		}
	}

	return data[:length-padding], true, nil
}
