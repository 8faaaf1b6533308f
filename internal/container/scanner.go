package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// Delimiter terminates the token field of the legacy layout.
	Delimiter = "MIT"

	// MaxTokenSize bounds the bytes scanned while looking for the delimiter.
	MaxTokenSize = 64 * 1024
)

// ScanToken reads r one byte at a time until Delimiter appears contiguously and
// returns the bytes before it. The match is not escaped: a token containing the
// delimiter is cut at its first occurrence.
func ScanToken(r io.ByteReader) ([]byte, error) {
	delimiter := []byte(Delimiter)
	token := make([]byte, 0, 256)

	for {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: stream ended after %d bytes", ErrMarkerNotFound, len(token))
		}

		if err != nil {
			return nil, fmt.Errorf("%w: reading token: %w", ErrIO, err)
		}

		token = append(token, b)

		if bytes.HasSuffix(token, delimiter) {
			return token[:len(token)-len(delimiter)], nil
		}

		if len(token) > MaxTokenSize+len(delimiter) {
			return nil, fmt.Errorf("%w: no delimiter within %d bytes", ErrMarkerNotFound, MaxTokenSize)
		}
	}
}
