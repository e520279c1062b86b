// Package logging builds the slog JSON loggers used by the binaries.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string

	// File, when set, receives a copy of every line through a size-rotated
	// writer. MaxSizeMB and MaxBackups control rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New returns a JSON logger writing to stdout and, if configured, to a
// rotating file. The returned closer releases the file and must be called on
// exit; it is a no-op when no file is configured.
func New(opts Options) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closer = rotator
	}

	return NewWithWriter(out, opts.Level), closer
}

// NewWithWriter returns a JSON logger at the given level writing to w.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
