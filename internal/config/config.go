// Package config holds the runtime configuration of tokenseal.
//
// Values come from flags and TOKENSEAL_* environment variables through viper and
// are checked with validator struct tags before any command runs.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Suffixes control output file naming.
type Suffixes struct {
	// Encrypt is appended to encrypted files and stripped on decryption.
	Encrypt string `mapstructure:"encrypt-ext" validate:"required"`

	// Decrypt is appended to decrypted files after stripping Encrypt.
	Decrypt string `mapstructure:"decrypt-ext"`
}

// Log configures the structured logger.
type Log struct {
	Level string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"log-file"`
}

// Config is the merged configuration for a single command invocation.
type Config struct {
	// Hex encoded authority secret, or a file holding it.
	Secret     string `mask:"fixed" validate:"omitempty,hexadecimal,len=64"`
	SecretFile string `mapstructure:"secret-file" validate:"exclusive=Secret" label:"secret-file"`

	// Container format.
	Layout  string `validate:"oneof=legacy framed"`
	Padding string `validate:"oneof=strict lenient"`
	WrapKey bool   `mapstructure:"wrap-key"`

	// Token embedded on encryption. When empty, one is issued for Sender.
	Token string `mask:"fixed" validate:"nodelim=Layout"`

	// Sender named by issued tokens and claimed on decryption.
	Sender string
	TTL    time.Duration `validate:"min=0"`

	// Batch processing.
	Parallel           int  `validate:"min=1"`
	Quiet              bool
	Stats              bool
	Dry                bool
	PreserveTimestamps bool   `mapstructure:"preserve-timestamps"`
	Manifest           string `validate:"omitempty,file"`

	Include     []string
	Exclude     []string
	IncludeFrom string `mapstructure:"include-from" validate:"omitempty,file"`
	ExcludeFrom string `mapstructure:"exclude-from" validate:"omitempty,file"`

	Suffixes Suffixes `mapstructure:",squash"`
	Log      Log      `mapstructure:",squash"`

	// Show prints the configuration and exits.
	Show bool

	// Set by the command being run.
	Decrypt bool `mapstructure:"-"`

	// Positional arguments.
	Files []string `mapstructure:"-"`
}

// Validate checks the struct tags and the rules that span several fields.
func (c *Config) Validate() error {
	if err := c.validateStruct(); err != nil {
		return err
	}

	if c.WrapKey && c.Layout != "framed" {
		return errors.New("wrap-key requires the framed layout")
	}

	if len(c.Files) == 0 && c.Manifest == "" && !c.Show {
		return errors.New("no input files: pass paths or --manifest")
	}

	if c.Decrypt && c.Sender == "" {
		return errors.New("decrypt: --sender is required")
	}

	if !c.Decrypt && c.Token == "" && c.Sender == "" {
		return errors.New("encrypt: one of --token or --sender is required")
	}

	return nil
}

// ValidateIssue checks the configuration of the issue command.
func (c *Config) ValidateIssue() error {
	if err := c.validateStruct(); err != nil {
		return err
	}

	if c.Sender == "" {
		return errors.New("issue: --sender is required")
	}

	return nil
}

func (c *Config) validateStruct() error {
	validate, err := newValidator()
	if err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	return nil
}

// SecretHex returns the authority secret from Secret or SecretFile.
// It returns an empty string when neither is set.
func (c *Config) SecretHex() (string, error) {
	if c.Secret != "" {
		return c.Secret, nil
	}

	if c.SecretFile == "" {
		return "", nil
	}

	data, err := os.ReadFile(c.SecretFile)
	if err != nil {
		return "", fmt.Errorf("reading secret file: %w", err)
	}

	secret := strings.TrimSpace(string(data))
	if _, err := hex.DecodeString(secret); err != nil {
		return "", fmt.Errorf("secret file %q: %w", c.SecretFile, err)
	}

	return secret, nil
}

// NeedsAuthority reports whether the command requires a token authority.
// Encryption with an explicit token and no key wrapping does not.
func (c *Config) NeedsAuthority() bool {
	return c.Decrypt || c.Token == "" || c.WrapKey
}
