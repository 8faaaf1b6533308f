package container

import "time"

// Claims is the decrypted content of an authorization token.
type Claims struct {
	// Sender is the identity the token authorizes.
	Sender string

	// IssuedAt is when the token was minted.
	IssuedAt time.Time

	// ExpiresAt is when the token stops being valid. The zero value never expires.
	ExpiresAt time.Time
}

// Authority decrypts and validates authorization tokens.
type Authority interface {
	// DecryptToken opens the opaque token bytes stored in a container.
	DecryptToken(opaque []byte) (Claims, error)

	// ValidateToken reports whether claims authorize claimedSender.
	ValidateToken(claims Claims, claimedSender string) bool
}

// KeyWrapper seals the per-file key for the framed layout.
type KeyWrapper interface {
	WrapKey(key []byte) ([]byte, error)
	UnwrapKey(wrapped []byte) ([]byte, error)
}

// Logger accepts leveled messages with alternating key-value pairs.
// Implementations must not fail the caller.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
