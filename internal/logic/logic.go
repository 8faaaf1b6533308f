// Package logic implements the encrypt, decrypt and issue commands on top of
// the container and token authority packages.
package logic

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/tokenseal/internal/config"
	"github.com/idelchi/tokenseal/internal/container"
	"github.com/idelchi/tokenseal/internal/encryption"
	"github.com/idelchi/tokenseal/internal/fileutil"
	"github.com/idelchi/tokenseal/internal/filter"
	"github.com/idelchi/tokenseal/internal/logging"
	"github.com/idelchi/tokenseal/internal/tokenauth"
)

// Runner carries the streams and secret source a command writes to and reads from.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer

	// Prompt reads the authority secret when the configuration does not hold one.
	Prompt func() (string, error)

	// Now is the clock used by the token authority. Nil means time.Now.
	Now func() time.Time
}

// NewRunner returns a Runner bound to the process streams and the terminal prompt.
func NewRunner() *Runner {
	return &Runner{Stdout: os.Stdout, Stderr: os.Stderr, Prompt: promptSecret}
}

// Run is the main logic of the encrypt and decrypt commands.
func Run(cfg *config.Config) error {
	return NewRunner().Run(cfg)
}

type result struct {
	input      string
	output     string
	outputSize int64
	err        error
}

type stats struct {
	scanned, excluded  int
	processed, errored int
	totalSize          int64
	start              time.Time
}

// Run resolves the jobs described by cfg and processes them in parallel.
//
//nolint:cyclop,funlen // parallel processing pipeline with printer goroutine
func (r *Runner) Run(cfg *config.Config) error {
	if cfg.Show {
		return Show(r.Stdout, cfg)
	}

	st := stats{start: time.Now()}

	jobs, scanned, err := resolveJobs(cfg)
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	st.scanned = scanned
	st.excluded = scanned - len(jobs)

	if cfg.Dry {
		return r.dryRun(cfg, jobs, st)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File, Console: r.Stderr})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	defer logger.Close()

	sealer, token, err := r.newSealer(cfg, logger)
	if err != nil {
		return err
	}

	results := make(chan result, len(jobs))

	group := errgroup.Group{}
	group.SetLimit(cfg.Parallel)

	printed := make(chan struct{})

	go func() {
		defer close(printed)

		for res := range results {
			if res.err != nil {
				st.errored++

				fmt.Fprintf(r.Stderr, "Error processing %q: %v\n", res.input, res.err)

				continue
			}

			st.processed++
			st.totalSize += res.outputSize

			if !cfg.Quiet {
				fmt.Fprintf(r.Stdout, "Processed %q -> %q\n", res.input, res.output)
			}
		}
	}()

	for _, job := range jobs {
		group.Go(func() error {
			var err error

			if cfg.Decrypt {
				err = sealer.DecryptFile(job.Input, job.Output, cfg.Sender)
			} else {
				err = sealer.EncryptFile(job.Input, job.Output, token)
			}

			res := result{input: job.Input, output: job.Output, err: err}

			if err == nil {
				if size, statErr := fileutil.FileSize(job.Output); statErr == nil {
					res.outputSize = size
				}
			}

			results <- res

			return err
		})
	}

	err = group.Wait()

	close(results)

	<-printed

	if cfg.Stats {
		r.printStats(st)
	}

	if err != nil {
		return fmt.Errorf("processing files: %w", err)
	}

	return nil
}

// newSealer builds the sealer for cfg and, for encryption, the token to embed.
func (r *Runner) newSealer(cfg *config.Config, logger *logging.Logger) (*container.Sealer, []byte, error) {
	layout, err := container.LayoutByName(cfg.Layout)
	if err != nil {
		return nil, nil, err
	}

	padding, err := encryption.ParsePaddingMode(cfg.Padding)
	if err != nil {
		return nil, nil, err
	}

	opts := container.Options{
		Layout:             layout,
		Padding:            padding,
		PreserveTimestamps: cfg.PreserveTimestamps,
	}

	var authority container.Authority

	if cfg.NeedsAuthority() {
		auth, err := r.newAuthority(cfg)
		if err != nil {
			return nil, nil, err
		}

		authority = auth

		// Decryption unwraps whenever a container says its key is wrapped.
		if cfg.WrapKey || cfg.Decrypt {
			opts.Wrapper = auth
		}

		if !cfg.Decrypt && cfg.Token == "" {
			token, err := auth.Issue(cfg.Sender, cfg.TTL)
			if err != nil {
				return nil, nil, fmt.Errorf("issuing token: %w", err)
			}

			logger.Info("issued token", "sender", cfg.Sender, "ttl", cfg.TTL)

			return container.New(authority, logger, opts), token, nil
		}
	}

	return container.New(authority, logger, opts), []byte(cfg.Token), nil
}

func (r *Runner) newAuthority(cfg *config.Config) (*tokenauth.Authority, error) {
	secret, err := cfg.SecretHex()
	if err != nil {
		return nil, err
	}

	if secret == "" {
		if r.Prompt == nil {
			return nil, fmt.Errorf("%w: no secret configured", tokenauth.ErrInvalidSecret)
		}

		if secret, err = r.Prompt(); err != nil {
			return nil, fmt.Errorf("reading secret: %w", err)
		}
	}

	var opts []tokenauth.Option
	if r.Now != nil {
		opts = append(opts, tokenauth.WithClock(r.Now))
	}

	authority, err := tokenauth.NewFromHex(secret, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating token authority: %w", err)
	}

	return authority, nil
}

// dryRun previews what would be processed without actually encrypting/decrypting.
func (r *Runner) dryRun(cfg *config.Config, jobs []filter.Job, st stats) error {
	for _, job := range jobs {
		if !cfg.Quiet {
			fmt.Fprintf(r.Stdout, "Would process %q -> %q\n", job.Input, job.Output)
		}

		if size, err := fileutil.FileSize(job.Input); err == nil {
			st.totalSize += size
		}
	}

	st.processed = len(jobs)

	if cfg.Stats {
		r.printStats(st)
	}

	return nil
}

func (r *Runner) printStats(st stats) {
	fmt.Fprintf(r.Stderr, "\nStats\n")
	fmt.Fprintf(r.Stderr, "  Scanned:   %d\n", st.scanned)
	fmt.Fprintf(r.Stderr, "  Excluded:  %d\n", st.excluded)
	fmt.Fprintf(r.Stderr, "  Processed: %d\n", st.processed)
	fmt.Fprintf(r.Stderr, "  Errors:    %d\n", st.errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(r.Stderr, "  Size:      %s\n", humanize.IBytes(uint64(max(0, st.totalSize))))
	fmt.Fprintf(r.Stderr, "  Duration:  %s\n", time.Since(st.start).Round(time.Millisecond))
}
