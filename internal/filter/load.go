package filter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Job is one input/output pair of a batch manifest.
type Job struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// LoadPatterns reads a JSONC file holding an array of glob patterns.
func LoadPatterns(path string) ([]string, error) {
	var patterns []string

	if err := loadJSONC(path, &patterns); err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}

	return patterns, nil
}

// LoadManifest reads a JSONC file holding an array of jobs.
// Jobs without an output are given one later from the configured suffixes.
func LoadManifest(path string) ([]Job, error) {
	var jobs []Job

	if err := loadJSONC(path, &jobs); err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	for i, job := range jobs {
		if job.Input == "" {
			return nil, fmt.Errorf("manifest %q: entry %d has no input", path, i)
		}
	}

	return jobs, nil
}

func loadJSONC(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is from user-supplied config
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}

	if err := json.Unmarshal(jsonc.ToJSONInPlace(data), v); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}

	return nil
}
