package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/tokenseal/internal/config"
	"github.com/idelchi/tokenseal/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags] [paths...]",
		Aliases: []string{"dec"},
		Short:   "Decrypt containers whose token authorizes the sender",
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, true),
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.Run(cfg)
		},
	}

	cmd.Flags().String("sender", "", "Sender the embedded token must authorize")

	return cmd
}
