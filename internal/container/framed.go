package container

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	bstd "github.com/deneonet/benc/std"

	"github.com/idelchi/tokenseal/internal/encryption"
)

const (
	framedMagic   = "TKSL"
	framedVersion = byte(1)

	framedFlagWrapped = 0x01

	// maxSectionSize bounds a length-prefixed header section.
	maxSectionSize = MaxTokenSize + 1024
)

const framedPreambleSize = len(framedMagic) + 2

// Framed is the length-prefixed layout:
//
//	magic "TKSL" | version | flags | uint32 size | token section | uint32 size | key section
//
// The token section holds the token bytes, the key section holds iv, separator and key.
// Both sections are benc encoded, so tokens may contain any byte sequence.
//
//nolint:gochecknoglobals
var Framed Layout = framedLayout{}

type framedLayout struct{}

func (framedLayout) Name() string { return "framed" }

func (framedLayout) CheckToken(token []byte) error {
	if len(token) > MaxTokenSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTokenTooLarge, len(token), MaxTokenSize)
	}

	return nil
}

func (framedLayout) WriteHeader(w io.Writer, h *Header) error {
	if err := checkFixedFields(h); err != nil {
		return err
	}

	tokenSection := make([]byte, bstd.SizeBytes(h.Token))
	bstd.MarshalBytes(0, tokenSection, h.Token)

	keySection := make([]byte, bstd.SizeBytes(h.IV)+bstd.SizeBytes(h.Separator)+bstd.SizeBytes(h.Key))
	ofs := bstd.MarshalBytes(0, keySection, h.IV)
	ofs = bstd.MarshalBytes(ofs, keySection, h.Separator)
	bstd.MarshalBytes(ofs, keySection, h.Key)

	var flags byte
	if h.Wrapped {
		flags |= framedFlagWrapped
	}

	header := make([]byte, framedPreambleSize+2*bstd.SizeUint32()+len(tokenSection)+len(keySection))
	copy(header, framedMagic)
	ofs = bstd.MarshalByte(len(framedMagic), header, framedVersion)
	ofs = bstd.MarshalByte(ofs, header, flags)
	ofs = bstd.MarshalUint32(ofs, header, uint32(len(tokenSection))) //nolint:gosec
	ofs += copy(header[ofs:], tokenSection)
	ofs = bstd.MarshalUint32(ofs, header, uint32(len(keySection))) //nolint:gosec
	copy(header[ofs:], keySection)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w: writing header: %w", ErrIO, err)
	}

	return nil
}

func (framedLayout) ReadToken(r *bufio.Reader) (*Header, error) {
	preamble, err := readFixed(r, framedPreambleSize, "preamble")
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(preamble[:len(framedMagic)], []byte(framedMagic)) {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidHeader)
	}

	ofs, version, err := bstd.UnmarshalByte(len(framedMagic), preamble)
	if err != nil || version != framedVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHeader, version)
	}

	_, flags, err := bstd.UnmarshalByte(ofs, preamble)
	if err != nil {
		return nil, fmt.Errorf("%w: reading flags: %w", ErrInvalidHeader, err)
	}

	section, err := readSection(r, "token")
	if err != nil {
		return nil, err
	}

	ofs, token, err := bstd.UnmarshalBytesCopied(0, section)
	if err != nil || ofs != len(section) {
		return nil, fmt.Errorf("%w: malformed token section", ErrInvalidHeader)
	}

	return &Header{Token: token, Wrapped: flags&framedFlagWrapped != 0}, nil
}

func (framedLayout) ReadKeyMaterial(r *bufio.Reader, h *Header) error {
	section, err := readSection(r, "key")
	if err != nil {
		return err
	}

	defer encryption.Zero(section)

	ofs, iv, err := bstd.UnmarshalBytesCopied(0, section)
	if err != nil {
		return fmt.Errorf("%w: malformed iv", ErrInvalidHeader)
	}

	ofs, separator, err := bstd.UnmarshalBytesCopied(ofs, section)
	if err != nil {
		return fmt.Errorf("%w: malformed separator", ErrInvalidHeader)
	}

	ofs, key, err := bstd.UnmarshalBytesCopied(ofs, section)
	if err != nil || ofs != len(section) {
		return fmt.Errorf("%w: malformed key", ErrInvalidHeader)
	}

	h.IV, h.Separator, h.Key = iv, separator, key

	if err := checkFixedFields(h); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	return nil
}

// readSection reads a uint32 size prefix followed by that many bytes.
func readSection(r io.Reader, name string) ([]byte, error) {
	prefix, err := readFixed(r, bstd.SizeUint32(), name+" section size")
	if err != nil {
		return nil, err
	}

	_, size, err := bstd.UnmarshalUint32(0, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %s section size: %w", ErrInvalidHeader, name, err)
	}

	if size > maxSectionSize {
		return nil, fmt.Errorf("%w: %s section of %d bytes exceeds %d", ErrInvalidHeader, name, size, maxSectionSize)
	}

	return readFixed(r, int(size), name+" section")
}
