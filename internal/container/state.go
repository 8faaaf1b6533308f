package container

// decryptState tracks progress through a single Decrypt call.
// Every failure is terminal; there is no way back to an earlier state.
type decryptState int

const (
	stateStart decryptState = iota
	stateTokenExtracted
	stateTokenAuthorized
	stateHeaderRead
	stateStreaming
	stateDone
)

func (s decryptState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateTokenExtracted:
		return "token-extracted"
	case stateTokenAuthorized:
		return "token-authorized"
	case stateHeaderRead:
		return "header-read"
	case stateStreaming:
		return "streaming"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}
