package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/tokenseal/internal/config"
	"github.com/idelchi/tokenseal/internal/logic"
)

// NewIssueCommand creates a new cobra command for the issue subcommand.
func NewIssueCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue [flags]",
		Short: "Issue a token for a sender",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return cfg.ValidateIssue()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.RunIssue(cfg)
		},
	}

	cmd.Flags().String("sender", "", "Sender the token authorizes")
	cmd.Flags().Duration("ttl", 0, "Lifetime of the token, 0 never expires")

	return cmd
}
