package container_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/idelchi/tokenseal/internal/container"
)

// stubAuthority accepts tokens listed in its map and authorizes the mapped sender.
type stubAuthority struct {
	mu     sync.Mutex
	tokens map[string]string
	seen   []string
}

func newStubAuthority(pairs ...string) *stubAuthority {
	tokens := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		tokens[pairs[i]] = pairs[i+1]
	}

	return &stubAuthority{tokens: tokens}
}

func (a *stubAuthority) DecryptToken(opaque []byte) (container.Claims, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seen = append(a.seen, string(opaque))

	sender, ok := a.tokens[string(opaque)]
	if !ok {
		return container.Claims{}, errors.New("unknown token")
	}

	return container.Claims{Sender: sender}, nil
}

func (a *stubAuthority) ValidateToken(claims container.Claims, claimedSender string) bool {
	return claims.Sender == claimedSender
}

func (a *stubAuthority) tokensSeen() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.seen...)
}

type entry struct {
	level string
	msg   string
}

// recordingLogger keeps every message for later inspection.
type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry{level: level, msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int

	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}

	return n
}

// xorWrapper is a reversible stand-in for a real key wrapper.
type xorWrapper struct{}

func (xorWrapper) WrapKey(key []byte) ([]byte, error) {
	out := make([]byte, len(key)+1)
	out[0] = 0xA5

	for i, b := range key {
		out[i+1] = b ^ 0x5A
	}

	return out, nil
}

func (xorWrapper) UnwrapKey(wrapped []byte) ([]byte, error) {
	if len(wrapped) == 0 || wrapped[0] != 0xA5 {
		return nil, errors.New("not wrapped by xorWrapper")
	}

	out := make([]byte, len(wrapped)-1)
	for i, b := range wrapped[1:] {
		out[i] = b ^ 0x5A
	}

	return out, nil
}

// untouchable fails the test if anything reads from it.
type untouchable struct {
	t *testing.T
}

func (u untouchable) Read([]byte) (int, error) {
	u.t.Helper()
	u.t.Error("header fields after the token were read")

	return 0, errors.New("untouchable")
}
