// Package commands provides the command-line interface for the tokenseal tool.
//
// It implements commands for:
//   - encryption
//   - decryption
//   - token issuance
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/tokenseal/internal/config"
)

// preRun returns a PreRunE handler that resolves positional args into cfg.Files
// and validates the configuration.
func preRun(cfg *config.Config, decrypt bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		cfg.Files = args
		cfg.Decrypt = decrypt

		if cfg.Show {
			return nil
		}

		return cfg.Validate()
	}
}
