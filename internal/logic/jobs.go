package logic

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/idelchi/tokenseal/internal/config"
	"github.com/idelchi/tokenseal/internal/filter"
)

// resolveJobs turns the manifest and positional arguments into input/output pairs.
// It returns the jobs and the number of candidate files scanned.
func resolveJobs(cfg *config.Config) ([]filter.Job, int, error) {
	var (
		jobs    []filter.Job
		scanned int
	)

	if cfg.Manifest != "" {
		manifest, err := filter.LoadManifest(cfg.Manifest)
		if err != nil {
			return nil, 0, err
		}

		scanned += len(manifest)

		for _, job := range manifest {
			if job.Output == "" {
				job.Output = outputPath(job.Input, cfg)
			}

			if err := checkJob(job); err != nil {
				return nil, 0, err
			}

			jobs = append(jobs, job)
		}
	}

	if len(cfg.Files) > 0 {
		includes, excludes, err := loadPatterns(cfg)
		if err != nil {
			return nil, 0, err
		}

		flt, err := filter.NewFilter(includes, excludes)
		if err != nil {
			return nil, 0, err
		}

		files, total, err := flt.Resolve(cfg.Files)
		if err != nil {
			return nil, 0, fmt.Errorf("filtering files: %w", err)
		}

		scanned += total

		for _, file := range files {
			job := filter.Job{Input: file, Output: outputPath(file, cfg)}
			if err := checkJob(job); err != nil {
				return nil, 0, err
			}

			jobs = append(jobs, job)
		}
	}

	return jobs, scanned, nil
}

// loadPatterns merges CLI and file-based include/exclude patterns.
// Decryption of a directory defaults to files carrying the encrypted suffix.
func loadPatterns(cfg *config.Config) (includes, excludes []string, err error) {
	includes = append(includes, cfg.Include...)
	excludes = append(excludes, cfg.Exclude...)

	if cfg.IncludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.IncludeFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("loading include patterns: %w", err)
		}

		includes = append(includes, patterns...)
	}

	if cfg.ExcludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.ExcludeFrom)
		if err != nil {
			return nil, nil, fmt.Errorf("loading exclude patterns: %w", err)
		}

		excludes = append(excludes, patterns...)
	}

	if len(includes) == 0 && cfg.Decrypt {
		includes = append(includes, "*"+cfg.Suffixes.Encrypt)
	}

	return includes, excludes, nil
}

func checkJob(job filter.Job) error {
	if filepath.Clean(job.Input) == filepath.Clean(job.Output) {
		return fmt.Errorf("output for %q would overwrite its input", job.Input)
	}

	return nil
}

func outputPath(filename string, cfg *config.Config) string {
	ext := cfg.Suffixes.Encrypt

	if cfg.Decrypt {
		filename = strings.TrimSuffix(filename, cfg.Suffixes.Encrypt)
		ext = cfg.Suffixes.Decrypt
	}

	return filepath.Join(filepath.Dir(filename), filepath.Base(filename)+ext)
}
