package container

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/idelchi/tokenseal/internal/encryption"
)

// SeparatorSize is the length of the cosmetic separator field.
const SeparatorSize = 16

// Header holds the fields that precede the ciphertext.
type Header struct {
	// Token is the opaque authorization token, as supplied by the caller.
	Token []byte

	// IV is the CBC initialization vector.
	IV []byte

	// Separator is random printable filler carried for format compatibility.
	Separator []byte

	// Key is the stored key field: the raw AES key, or the wrapped key when Wrapped is set.
	Key []byte

	// Wrapped marks Key as sealed by a KeyWrapper.
	Wrapped bool
}

// Zeroize clears the key material held by the header.
func (h *Header) Zeroize() {
	encryption.Zero(h.Key)
	encryption.Zero(h.IV)
}

// Layout is one byte arrangement of the container header.
// Reading is split in two so that the token can be authorized before the
// key material is touched.
type Layout interface {
	// Name identifies the layout in configuration and logs.
	Name() string

	// CheckToken reports whether token can be stored by this layout.
	CheckToken(token []byte) error

	// WriteHeader writes every header field to w.
	WriteHeader(w io.Writer, h *Header) error

	// ReadToken reads the header up to and including the token field.
	ReadToken(r *bufio.Reader) (*Header, error)

	// ReadKeyMaterial reads the iv, separator and key fields into h.
	ReadKeyMaterial(r *bufio.Reader, h *Header) error
}

// LayoutByName returns the layout registered under name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case "", Legacy.Name():
		return Legacy, nil
	case Framed.Name():
		return Framed, nil
	default:
		return nil, fmt.Errorf("unknown container layout %q", name)
	}
}

// Legacy is the delimiter-terminated layout: token | "MIT" | iv | separator | key.
// It has no version field and no length prefixes.
//
//nolint:gochecknoglobals
var Legacy Layout = legacyLayout{}

type legacyLayout struct{}

func (legacyLayout) Name() string { return "legacy" }

func (legacyLayout) CheckToken(token []byte) error {
	if len(token) > MaxTokenSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTokenTooLarge, len(token), MaxTokenSize)
	}

	if bytes.Contains(token, []byte(Delimiter)) {
		return fmt.Errorf("%w: %q", ErrTokenContainsDelimiter, Delimiter)
	}

	return nil
}

func (legacyLayout) WriteHeader(w io.Writer, h *Header) error {
	if h.Wrapped {
		return errors.New("legacy layout cannot store a wrapped key")
	}

	if err := checkFixedFields(h); err != nil {
		return err
	}

	header := make([]byte, 0, len(h.Token)+len(Delimiter)+encryption.BlockSize+SeparatorSize+encryption.KeySize)
	header = append(header, h.Token...)
	header = append(header, Delimiter...)
	header = append(header, h.IV...)
	header = append(header, h.Separator...)
	header = append(header, h.Key...)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w: writing header: %w", ErrIO, err)
	}

	return nil
}

func (legacyLayout) ReadToken(r *bufio.Reader) (*Header, error) {
	token, err := ScanToken(r)
	if err != nil {
		return nil, err
	}

	return &Header{Token: token}, nil
}

func (legacyLayout) ReadKeyMaterial(r *bufio.Reader, h *Header) error {
	var err error

	if h.IV, err = readFixed(r, encryption.BlockSize, "iv"); err != nil {
		return err
	}

	if h.Separator, err = readFixed(r, SeparatorSize, "separator"); err != nil {
		return err
	}

	if h.Key, err = readFixed(r, encryption.KeySize, "key"); err != nil {
		return err
	}

	return nil
}

func checkFixedFields(h *Header) error {
	switch {
	case len(h.IV) != encryption.BlockSize:
		return fmt.Errorf("iv must be %d bytes, got %d", encryption.BlockSize, len(h.IV))
	case len(h.Separator) != SeparatorSize:
		return fmt.Errorf("separator must be %d bytes, got %d", SeparatorSize, len(h.Separator))
	case !h.Wrapped && len(h.Key) != encryption.KeySize:
		return fmt.Errorf("key must be %d bytes, got %d", encryption.KeySize, len(h.Key))
	}

	return nil
}

func readFixed(r io.Reader, n int, field string) ([]byte, error) {
	buf := make([]byte, n)

	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: reading %s", ErrTruncatedHeader, field)
		}

		return nil, fmt.Errorf("%w: reading %s: %w", ErrIO, field, err)
	}

	return buf, nil
}
