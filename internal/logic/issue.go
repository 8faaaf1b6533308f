package logic

import (
	"fmt"

	"github.com/idelchi/tokenseal/internal/config"
)

// RunIssue mints a token for cfg.Sender and writes it to the runner's stdout.
func (r *Runner) RunIssue(cfg *config.Config) error {
	authority, err := r.newAuthority(cfg)
	if err != nil {
		return err
	}

	token, err := authority.Issue(cfg.Sender, cfg.TTL)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}

	_, err = fmt.Fprintf(r.Stdout, "%s\n", token)

	return err
}

// RunIssue mints a token using the process streams.
func RunIssue(cfg *config.Config) error {
	return NewRunner().RunIssue(cfg)
}
