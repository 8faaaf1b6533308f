package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/tokenseal/internal/config"
)

// EnvPrefix prefixes the environment variables read for every flag.
const EnvPrefix = "TOKENSEAL"

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "tokenseal [flags] command [flags]",
		Short: "Token-gated file encryption",
		Long: `Encrypts files into single-file containers that embed an authorization token.
Decryption first checks the token against a token authority for the claimed sender.`,
		Version:           version,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindConfig(cmd, cfg)
		},
	}

	flags := root.PersistentFlags()

	flags.String("secret", "", "Token authority secret (32 bytes, hex-encoded)")
	flags.String("secret-file", "", "Path to a file holding the token authority secret")

	flags.String("layout", "legacy", "Container header layout: legacy or framed")
	flags.String("padding", "strict", "Handling of malformed padding on decryption: strict or lenient")

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.Bool("stats", false, "Print statistics after processing")
	flags.Bool("dry", false, "List the files that would be processed without processing them")
	flags.Bool("preserve-timestamps", false, "Copy the modification time of each input to its output")

	flags.String("encrypt-ext", ".tks", "Suffix to append to encrypted files")
	flags.String("decrypt-ext", "", "Suffix to append to decrypted files, after stripping the encrypted suffix")

	flags.StringSliceP("include", "i", nil, "Patterns selecting files inside directories")
	flags.StringSliceP("exclude", "e", nil, "Patterns excluding files inside directories")
	flags.String("include-from", "", "JSONC file with include patterns")
	flags.String("exclude-from", "", "JSONC file with exclude patterns")
	flags.StringP("manifest", "m", "", "JSONC file listing input/output pairs")

	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Also write logs to this file, rotated at 1 MiB")

	root.AddCommand(NewEncryptCommand(cfg), NewDecryptCommand(cfg), NewIssueCommand(cfg))

	return root
}

// bindConfig merges flags and TOKENSEAL_* environment variables into cfg.
func bindConfig(cmd *cobra.Command, cfg *config.Config) error {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("parsing configuration: %w", err)
	}

	return nil
}
