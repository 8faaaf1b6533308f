package encryption

import (
	"crypto/rand"
	"fmt"
	"io"
)

// PatternAlphabet is the character set used for separator patterns.
const PatternAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomSource draws bytes from a cryptographically secure reader.
// A failing reader is reported, never replaced by a weaker source.
type RandomSource struct {
	r io.Reader
}

// NewRandomSource returns a RandomSource reading from r, or from crypto/rand when r is nil.
func NewRandomSource(r io.Reader) *RandomSource {
	if r == nil {
		r = rand.Reader
	}

	return &RandomSource{r: r}
}

// Generate returns n random bytes.
func (s *RandomSource) Generate(n int) ([]byte, error) {
	buf := make([]byte, n)

	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, fmt.Errorf("%w: reading %d random bytes: %w", ErrEntropyUnavailable, n, err)
	}

	return buf, nil
}

// Pattern returns n characters drawn from PatternAlphabet.
// Each random byte is reduced modulo the alphabet size; the resulting bias is
// acceptable because the pattern carries no cryptographic weight.
func (s *RandomSource) Pattern(n int) ([]byte, error) {
	indices, err := s.Generate(n)
	if err != nil {
		return nil, err
	}

	for i, b := range indices {
		indices[i] = PatternAlphabet[int(b)%len(PatternAlphabet)]
	}

	return indices, nil
}

// KeyMaterial generates a fresh AES-128 key and IV.
func (s *RandomSource) KeyMaterial() (key, iv []byte, err error) {
	key, err = s.Generate(KeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("generating key: %w", err)
	}

	iv, err = s.Generate(BlockSize)
	if err != nil {
		Zero(key)

		return nil, nil, fmt.Errorf("generating IV: %w", err)
	}

	return key, iv, nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}

	b[0] = 0
	for ofs := 1; ofs < len(b); ofs *= 2 {
		copy(b[ofs:], b[:ofs])
	}
}
