package container

import "errors"

var (
	// ErrIO is returned when opening, reading or writing a file fails.
	ErrIO = errors.New("i/o error")
	// ErrMarkerNotFound is returned when the stream ends before the token delimiter.
	ErrMarkerNotFound = errors.New("token delimiter not found")
	// ErrTruncatedHeader is returned when a fixed-size header field is short.
	ErrTruncatedHeader = errors.New("truncated header")
	// ErrInvalidHeader is returned when a framed header has a bad magic, version or section size.
	ErrInvalidHeader = errors.New("invalid header")
	// ErrTokenInvalid is returned when the Authority cannot decrypt the embedded token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrSenderMismatch is returned when the token does not authorize the claimed sender.
	ErrSenderMismatch = errors.New("sender mismatch")
	// ErrTokenContainsDelimiter is returned when a token for the legacy layout contains the delimiter.
	ErrTokenContainsDelimiter = errors.New("token contains the delimiter")
	// ErrTokenTooLarge is returned when a token exceeds MaxTokenSize.
	ErrTokenTooLarge = errors.New("token too large")
	// ErrKeyUnwrap is returned when a wrapped key cannot be recovered.
	ErrKeyUnwrap = errors.New("key unwrap failed")
)
