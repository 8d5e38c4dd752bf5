// Package logging builds the logrus logger shared by the CLI and the TUI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects where and how log entries are written.
type Options struct {
	Level  string
	Format string
	// File, when set, receives the log instead of Output.
	File string
	// Output is used when File is empty. Nil discards everything, which is
	// what the TUI wants since the terminal belongs to the renderer.
	Output io.Writer
}

// New builds a logger. The returned close func releases the log file, if any.
func New(opts Options) (*logrus.Logger, func() error, error) {
	logger := logrus.New()
	closer := func() error { return nil }

	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, closer, err
	}
	logger.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
			DisableColors:   opts.File != "",
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, closer, fmt.Errorf("unknown log format %q (want text or json)", opts.Format)
	}

	switch {
	case strings.TrimSpace(opts.File) != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, closer, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("opening log file: %w", err)
		}
		logger.SetOutput(f)
		closer = f.Close
	case opts.Output != nil:
		logger.SetOutput(opts.Output)
	default:
		logger.SetOutput(io.Discard)
	}
	return logger, closer, nil
}

func parseLevel(raw string) (logrus.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

// Discard is a logger that drops every entry.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
