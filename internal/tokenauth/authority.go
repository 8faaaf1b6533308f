// Package tokenauth is a reference Token Authority.
//
// Tokens are claims sealed with AES-SIV and hex encoded. Hex output never
// contains the legacy "MIT" delimiter, so issued tokens fit either container layout.
// The same secret also derives an AES-GCM key used to wrap per-file keys.
package tokenauth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/daead"
	"github.com/tink-crypto/tink-go/v2/tink"

	"golang.org/x/crypto/hkdf"

	"github.com/idelchi/tokenseal/internal/container"
	"github.com/idelchi/tokenseal/internal/encryption"
)

const (
	// SecretSize is the length of the authority secret in bytes.
	SecretSize = 32

	sivKeySize  = 64
	wrapKeySize = 32

	tokenInfo = "tokenseal/token"
	wrapInfo  = "tokenseal/wrap"
)

var (
	// ErrInvalidSecret is returned for a secret that is not SecretSize bytes.
	ErrInvalidSecret = errors.New("invalid authority secret")

	// ErrEmptySender is returned when issuing a token without a sender.
	ErrEmptySender = errors.New("sender must not be empty")

	tokenAssociatedData = []byte("tokenseal token v1")
	wrapAssociatedData  = []byte("tokenseal key v1")
)

// Authority issues, opens and validates tokens, and wraps per-file keys.
// It satisfies container.Authority and container.KeyWrapper.
type Authority struct {
	daead tink.DeterministicAEAD
	aead  tink.AEAD
	now   func() time.Time
}

// Option configures an Authority.
type Option func(*Authority)

// WithClock replaces the clock used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

// New derives the token and wrapping keys from secret.
func New(secret []byte, opts ...Option) (*Authority, error) {
	if len(secret) != SecretSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSecret, len(secret), SecretSize)
	}

	sivKey, err := derive(secret, tokenInfo, sivKeySize)
	if err != nil {
		return nil, err
	}

	defer encryption.Zero(sivKey)

	wrapKey, err := derive(secret, wrapInfo, wrapKeySize)
	if err != nil {
		return nil, err
	}

	defer encryption.Zero(wrapKey)

	sivHandle, err := newSivKeyHandle(sivKey)
	if err != nil {
		return nil, err
	}

	daeadPrimitive, err := daead.New(sivHandle)
	if err != nil {
		return nil, fmt.Errorf("creating DeterministicAEAD: %w", err)
	}

	gcmHandle, err := newGcmKeyHandle(wrapKey)
	if err != nil {
		return nil, err
	}

	aeadPrimitive, err := aead.New(gcmHandle)
	if err != nil {
		return nil, fmt.Errorf("creating AEAD: %w", err)
	}

	a := &Authority{
		daead: daeadPrimitive,
		aead:  aeadPrimitive,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// NewFromHex decodes a hex secret and calls New.
func NewFromHex(secret string, opts ...Option) (*Authority, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(secret))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSecret, err)
	}

	defer encryption.Zero(raw)

	return New(raw, opts...)
}

func derive(secret []byte, info string, size int) ([]byte, error) {
	out := make([]byte, size)

	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), out); err != nil {
		return nil, fmt.Errorf("deriving %s key: %w", info, err)
	}

	return out, nil
}

// Issue mints a token authorizing sender. A zero ttl never expires.
func (a *Authority) Issue(sender string, ttl time.Duration) ([]byte, error) {
	if sender == "" {
		return nil, ErrEmptySender
	}

	now := a.now()

	claims := container.Claims{Sender: sender, IssuedAt: now}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl)
	}

	sealed, err := a.daead.EncryptDeterministically(marshalClaims(claims), tokenAssociatedData)
	if err != nil {
		return nil, fmt.Errorf("sealing claims: %w", err)
	}

	token := make([]byte, hex.EncodedLen(len(sealed)))
	hex.Encode(token, sealed)

	return token, nil
}

// DecryptToken opens a token minted by Issue.
func (a *Authority) DecryptToken(opaque []byte) (container.Claims, error) {
	sealed := make([]byte, hex.DecodedLen(len(opaque)))

	if _, err := hex.Decode(sealed, opaque); err != nil {
		return container.Claims{}, fmt.Errorf("decoding token: %w", err)
	}

	plain, err := a.daead.DecryptDeterministically(sealed, tokenAssociatedData)
	if err != nil {
		return container.Claims{}, fmt.Errorf("opening token: %w", err)
	}

	return unmarshalClaims(plain)
}

// ValidateToken reports whether claims name claimedSender and have not expired.
func (a *Authority) ValidateToken(claims container.Claims, claimedSender string) bool {
	if subtle.ConstantTimeCompare([]byte(claims.Sender), []byte(claimedSender)) != 1 {
		return false
	}

	return claims.ExpiresAt.IsZero() || a.now().Before(claims.ExpiresAt)
}

// WrapKey seals a per-file key.
func (a *Authority) WrapKey(key []byte) ([]byte, error) {
	wrapped, err := a.aead.Encrypt(key, wrapAssociatedData)
	if err != nil {
		return nil, fmt.Errorf("wrapping key: %w", err)
	}

	return wrapped, nil
}

// UnwrapKey opens a key sealed by WrapKey.
func (a *Authority) UnwrapKey(wrapped []byte) ([]byte, error) {
	key, err := a.aead.Decrypt(wrapped, wrapAssociatedData)
	if err != nil {
		return nil, fmt.Errorf("unwrapping key: %w", err)
	}

	return key, nil
}
