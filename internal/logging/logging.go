// Package logging configures the zerolog loggers shared by Awaken components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.Nop()
)

// Options controls how the base logger is built.
type Options struct {
	// Level is a zerolog level name (debug, info, warn, error, disabled).
	// Empty means info.
	Level string

	// Writer receives log lines. Nil disables logging.
	Writer io.Writer
}

// Init replaces the base logger.
func Init(opts Options) error {
	level := zerolog.InfoLevel
	if name := strings.TrimSpace(opts.Level); name != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(name))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", name, err)
		}
		level = parsed
	}

	logger := zerolog.Nop()
	if opts.Writer != nil {
		logger = zerolog.New(opts.Writer).
			Level(level).
			With().
			Timestamp().
			Logger()
	}

	mu.Lock()
	base = logger
	mu.Unlock()
	return nil
}

// InitFile points the base logger at a file, creating parent directories.
// The terminal belongs to the TUI, so logs never go to stdout.
// The returned cleanup closes the file and resets the logger.
func InitFile(path, level string) (func() error, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		if err := Init(Options{Level: level}); err != nil {
			return nil, err
		}
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	if err := Init(Options{Level: level, Writer: f}); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() error {
		_ = Init(Options{})
		return f.Close()
	}, nil
}

// Logger returns the current base logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Component returns a logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}
