package container

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/idelchi/tokenseal/internal/encryption"
	"github.com/idelchi/tokenseal/internal/fileutil"
)

const readerSize = 32 * 1024

// Options configures a Sealer.
type Options struct {
	// Layout selects the header layout written on encryption and expected on decryption.
	// Defaults to Legacy.
	Layout Layout

	// Padding controls handling of malformed padding on decryption.
	Padding encryption.PaddingMode

	// Wrapper, when set, seals the per-file key in framed containers.
	Wrapper KeyWrapper

	// Random overrides the secure random source, mainly for tests.
	Random io.Reader

	// PreserveTimestamps copies the input modification time to the output file.
	PreserveTimestamps bool
}

// Sealer encrypts files into containers and decrypts containers for authorized senders.
// A Sealer holds no per-call state and may be used from several goroutines.
type Sealer struct {
	gate    *Gate
	log     Logger
	layout  Layout
	engine  encryption.Engine
	wrapper KeyWrapper
	random  *encryption.RandomSource

	preserveTimestamps bool
}

// New returns a Sealer that authorizes decryption through authority and logs to logger.
func New(authority Authority, logger Logger, opts Options) *Sealer {
	if logger == nil {
		logger = nopLogger{}
	}

	layout := opts.Layout
	if layout == nil {
		layout = Legacy
	}

	return &Sealer{
		gate:               NewGate(authority),
		log:                logger,
		layout:             layout,
		engine:             encryption.Engine{Padding: opts.Padding},
		wrapper:            opts.Wrapper,
		random:             encryption.NewRandomSource(opts.Random),
		preserveTimestamps: opts.PreserveTimestamps,
	}
}

// Layout returns the header layout used by s.
func (s *Sealer) Layout() Layout {
	return s.layout
}

// Encrypt writes a container holding the plaintext read from r to w.
// A fresh key, IV and separator are drawn for every call.
func (s *Sealer) Encrypt(r io.Reader, w io.Writer, token []byte) (encryption.Report, error) {
	if err := s.layout.CheckToken(token); err != nil {
		return encryption.Report{}, err
	}

	key, iv, err := s.random.KeyMaterial()
	if err != nil {
		return encryption.Report{}, err
	}

	defer encryption.Zero(key)
	defer encryption.Zero(iv)

	separator, err := s.random.Pattern(SeparatorSize)
	if err != nil {
		return encryption.Report{}, fmt.Errorf("generating separator: %w", err)
	}

	header := &Header{Token: token, IV: iv, Separator: separator, Key: key}

	if s.wrapper != nil {
		wrapped, err := s.wrapper.WrapKey(key)
		if err != nil {
			return encryption.Report{}, fmt.Errorf("wrapping key: %w", err)
		}

		header.Key = wrapped
		header.Wrapped = true
	}

	if err := s.layout.WriteHeader(w, header); err != nil {
		return encryption.Report{}, err
	}

	s.log.Debug("header written", "layout", s.layout.Name(), "token_bytes", len(token), "wrapped", header.Wrapped)

	report, err := s.engine.Encrypt(r, w, key, iv)
	if err != nil {
		return report, classify(err)
	}

	return report, nil
}

// Decrypt reads a container from r and writes the plaintext to w.
// The token is authorized for claimedSender before the iv, separator or key are read;
// nothing is written to w for an unauthorized request.
func (s *Sealer) Decrypt(r io.Reader, w io.Writer, claimedSender string) (encryption.Report, error) {
	var report encryption.Report

	br := bufio.NewReaderSize(r, readerSize)
	state := stateStart

	advance := func(next decryptState) {
		s.log.Debug("decrypt state", "from", state, "to", next)
		state = next
	}

	header, err := s.layout.ReadToken(br)
	if err != nil {
		return report, err
	}

	advance(stateTokenExtracted)

	claims, err := s.gate.Authorize(header.Token, claimedSender)
	if err != nil {
		return report, err
	}

	advance(stateTokenAuthorized)

	if err := s.layout.ReadKeyMaterial(br, header); err != nil {
		return report, err
	}

	defer header.Zeroize()

	advance(stateHeaderRead)

	key := header.Key

	if header.Wrapped {
		if s.wrapper == nil {
			return report, fmt.Errorf("%w: container key is wrapped but no key wrapper is configured", ErrKeyUnwrap)
		}

		if key, err = s.wrapper.UnwrapKey(header.Key); err != nil {
			return report, fmt.Errorf("%w: %w", ErrKeyUnwrap, err)
		}

		defer encryption.Zero(key)
	}

	advance(stateStreaming)

	report, err = s.engine.Decrypt(br, w, key, header.IV)
	if err != nil {
		return report, classify(err)
	}

	if report.PaddingAbsent {
		s.log.Warn("final block has no valid padding, kept as-is", "sender", claims.Sender)
	}

	advance(stateDone)

	return report, nil
}

// EncryptFile encrypts inputPath into a container at outputPath embedding token.
// The outcome is logged; on failure no output file is left behind.
func (s *Sealer) EncryptFile(inputPath, outputPath string, token []byte) (err error) {
	start := time.Now()

	s.log.Info("starting file encryption", "input", inputPath, "output", outputPath, "layout", s.layout.Name())

	defer func() { s.logOutcome("encryption", inputPath, outputPath, start, err) }()

	return s.processFile(inputPath, outputPath, func(r io.Reader, w io.Writer) error {
		_, err := s.Encrypt(r, w, token)

		return err
	})
}

// DecryptFile decrypts the container at inputPath into outputPath if its token
// authorizes claimedSender. The outcome is logged; on failure no output file is left behind.
func (s *Sealer) DecryptFile(inputPath, outputPath, claimedSender string) (err error) {
	start := time.Now()

	s.log.Info("starting file decryption", "input", inputPath, "output", outputPath, "sender", claimedSender)

	defer func() { s.logOutcome("decryption", inputPath, outputPath, start, err) }()

	return s.processFile(inputPath, outputPath, func(r io.Reader, w io.Writer) error {
		_, err := s.Decrypt(r, w, claimedSender)

		return err
	})
}

// processFile opens inputPath, streams it through transform into a temp file and
// renames the temp file to outputPath on success.
func (s *Sealer) processFile(inputPath, outputPath string, transform func(io.Reader, io.Writer) error) (err error) {
	inFile, err := os.Open(filepath.Clean(inputPath))
	if err != nil {
		return fmt.Errorf("%w: opening input file: %w", ErrIO, err)
	}
	defer inFile.Close()

	info, err := inFile.Stat()
	if err != nil {
		return fmt.Errorf("%w: getting file info for %q: %w", ErrIO, inputPath, err)
	}

	tc, err := fileutil.NewTempContext(outputPath)
	if err != nil {
		return fmt.Errorf("%w: preparing output: %w", ErrIO, err)
	}

	defer tc.CleanupOnError(&err)

	if err = transform(inFile, tc.TmpFile); err != nil {
		return err
	}

	if s.preserveTimestamps {
		if err = tc.PreserveTimes(info.ModTime()); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}

	const ownerReadWrite = 0o600

	if err = tc.Commit(ownerReadWrite); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return nil
}

func (s *Sealer) logOutcome(op, inputPath, outputPath string, start time.Time, err error) {
	if err != nil {
		s.log.Error("file "+op+" failed", "input", inputPath, "output", outputPath, "error", err)

		return
	}

	s.log.Info("file "+op+" completed", "input", inputPath, "output", outputPath, "duration", time.Since(start))
}

// classify marks engine failures that are not format errors as I/O errors.
func classify(err error) error {
	switch {
	case errors.Is(err, encryption.ErrCorruptPadding),
		errors.Is(err, encryption.ErrInvalidBlockSize),
		errors.Is(err, encryption.ErrInvalidKeySize):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
}
