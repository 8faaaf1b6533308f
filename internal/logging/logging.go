// Package logging builds the structured logger used across tokenseal.
//
// Entries are JSON encoded with lowercase levels and RFC3339 timestamps with
// trailing nanoseconds. An optional log file is rotated once it reaches 1 MiB.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// RFC3339TrailingNano is RFC3339 format with trailing nanoseconds precision.
	RFC3339TrailingNano = "2006-01-02T15:04:05.000000000Z07:00"

	// maxFileSizeMB is the size at which the log file is rotated.
	maxFileSizeMB = 1
	maxBackups    = 3
)

// Config selects the level and sinks of a Logger.
type Config struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string

	// File, when set, receives every entry in addition to Console.
	File string

	// Console receives entries; nil means stderr.
	Console io.Writer
}

// Logger is a leveled key-value logger backed by zap.
type Logger struct {
	core   *zap.SugaredLogger
	closer io.Closer
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	encoder := zapcore.NewJSONEncoder(newEncoderConfig())
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(console), level)}

	var closer io.Closer

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxBackups,
		}

		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
		closer = rotator
	}

	core := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{core: core.Sugar(), closer: closer}, nil
}

// NewFromCore wraps an existing zap logger, mainly so tests can observe entries.
func NewFromCore(core *zap.SugaredLogger) *Logger {
	return &Logger{core: core}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{core: zap.NewNop().Sugar()}
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", name, err)
	}

	return level, nil
}

// Debug logs msg at debug level with alternating key-value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...any) { l.core.Debugw(msg, keysAndValues...) }

// Info logs msg at info level with alternating key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...any) { l.core.Infow(msg, keysAndValues...) }

// Warn logs msg at warn level with alternating key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...any) { l.core.Warnw(msg, keysAndValues...) }

// Error logs msg at error level with alternating key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...any) { l.core.Errorw(msg, keysAndValues...) }

// With returns a Logger that adds keysAndValues to every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{core: l.core.With(keysAndValues...), closer: l.closer}
}

// Close flushes buffered entries and closes the log file, if any.
func (l *Logger) Close() error {
	// Sync on a console sink fails with EINVAL on some platforms; it carries no data loss.
	_ = l.core.Sync() //nolint:errcheck

	if l.closer == nil {
		return nil
	}

	if err := l.closer.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}

	return nil
}

// newEncoderConfig is similar to zap's production config with short callers and
// nanosecond timestamps.
func newEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     rfc3339TrailingNanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func rfc3339TrailingNanoTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(RFC3339TrailingNano))
}
