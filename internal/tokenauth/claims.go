package tokenauth

import (
	"errors"
	"time"

	bstd "github.com/deneonet/benc/std"

	"github.com/idelchi/tokenseal/internal/container"
)

const claimsVersion = uint16(2)

// ErrMalformedClaims is returned when decrypted token bytes do not decode to claims.
var ErrMalformedClaims = errors.New("malformed token claims")

func marshalClaims(c container.Claims) []byte {
	bufSize := bstd.SizeUint16() + bstd.SizeString(c.Sender) + 2*bstd.SizeUint64()
	buf := make([]byte, bufSize)

	ofs := bstd.MarshalUint16(0, buf, claimsVersion)
	ofs = bstd.MarshalString(ofs, buf, c.Sender)
	ofs = bstd.MarshalInt64(ofs, buf, unixNanoOrZero(c.IssuedAt))
	bstd.MarshalInt64(ofs, buf, unixNanoOrZero(c.ExpiresAt))

	return buf
}

func unmarshalClaims(buf []byte) (container.Claims, error) {
	var (
		c                   container.Claims
		issuedAt, expiresAt int64
	)

	if len(buf) <= bstd.SizeUint16() {
		return c, ErrMalformedClaims
	}

	ofs, version, err := bstd.UnmarshalUint16(0, buf)
	if err != nil || version != claimsVersion {
		return c, ErrMalformedClaims
	}

	if ofs, c.Sender, err = bstd.UnmarshalString(ofs, buf); err != nil {
		return c, ErrMalformedClaims
	}

	if ofs, issuedAt, err = bstd.UnmarshalInt64(ofs, buf); err != nil {
		return c, ErrMalformedClaims
	}

	if ofs, expiresAt, err = bstd.UnmarshalInt64(ofs, buf); err != nil {
		return c, ErrMalformedClaims
	}

	if ofs != len(buf) {
		return c, ErrMalformedClaims
	}

	c.IssuedAt = timeOrZero(issuedAt)
	c.ExpiresAt = timeOrZero(expiresAt)

	return c, nil
}

// unixNanoOrZero keeps sub-second TTLs exact. Zero encodes the zero time.
func unixNanoOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

func timeOrZero(nsec int64) time.Time {
	if nsec == 0 {
		return time.Time{}
	}

	return time.Unix(0, nsec).UTC()
}
