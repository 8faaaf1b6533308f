package logic

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	mask "github.com/showa-93/go-mask"

	"github.com/idelchi/tokenseal/internal/config"
)

// Show writes cfg as YAML with the secret and token masked.
func Show(w io.Writer, cfg *config.Config) error {
	masked, err := mask.Mask(*cfg)
	if err != nil {
		return fmt.Errorf("masking configuration: %w", err)
	}

	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}

	return nil
}
