package container

import (
	"errors"
	"fmt"
)

// Gate authorizes the token embedded in a container before any key material is read.
type Gate struct {
	authority Authority
}

// NewGate returns a Gate backed by authority.
func NewGate(authority Authority) *Gate {
	return &Gate{authority: authority}
}

// Authorize decrypts rawToken and checks that it authorizes claimedSender.
// It returns ErrTokenInvalid when the token cannot be decrypted and
// ErrSenderMismatch when validation fails.
func (g *Gate) Authorize(rawToken []byte, claimedSender string) (Claims, error) {
	if g.authority == nil {
		return Claims{}, errors.New("no token authority configured")
	}

	claims, err := g.authority.DecryptToken(rawToken)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !g.authority.ValidateToken(claims, claimedSender) {
		return Claims{}, fmt.Errorf("%w: token does not authorize %q", ErrSenderMismatch, claimedSender)
	}

	return claims, nil
}
