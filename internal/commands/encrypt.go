package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/tokenseal/internal/config"
	"github.com/idelchi/tokenseal/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] [paths...]",
		Aliases: []string{"enc"},
		Short:   "Encrypt files into token-gated containers",
		Long: `Encrypt files into token-gated containers.
The embedded token is either given with --token or issued for --sender.`,
		Args:    cobra.ArbitraryArgs,
		PreRunE: preRun(cfg, false),
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.Run(cfg)
		},
	}

	cmd.Flags().StringP("token", "t", "", "Token to embed, used as-is")
	cmd.Flags().String("sender", "", "Issue a token for this sender when --token is not set")
	cmd.Flags().Duration("ttl", 0, "Lifetime of an issued token, 0 never expires")
	cmd.Flags().Bool("wrap-key", false, "Seal the file key with the authority (framed layout only)")

	return cmd
}
