package logic

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptSecret reads the hex authority secret from the terminal without echo.
// When stdin is piped it falls back to /dev/tty.
func promptSecret() (string, error) {
	fmt.Fprint(os.Stderr, "Authority secret (hex): ")

	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int

	if !term.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return "", fmt.Errorf("stdin is not a terminal and /dev/tty is unavailable, set TOKENSEAL_SECRET: %w", err)
		}
		defer tty.Close()

		fd = int(tty.Fd()) //nolint:gosec // file descriptors fit in int
	}

	secret, err := term.ReadPassword(fd)

	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}
