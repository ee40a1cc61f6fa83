// Package logging configures structured JSON logging for uiground.
//
// Logs are written as JSON lines to a rotating file so that long-running
// servers never exhaust disk, with an optional stderr mirror for
// interactive use. The file format is one slog record per line, which
// keeps the output greppable and machine-parseable.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `yaml:"level"`

	// FilePath is the log file destination. Empty means DefaultLogPath().
	FilePath string `yaml:"file_path"`

	// MaxSizeMB caps the active log file size before rotation.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxFiles is the number of rotated files to retain.
	MaxFiles int `yaml:"max_files"`

	// WriteToStderr mirrors log output to stderr in addition to the file.
	WriteToStderr bool `yaml:"write_to_stderr"`
}

// DefaultConfig returns the standard logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		MaxSizeMB: 10,
		MaxFiles:  3,
	}
}

// Setup builds the process logger from cfg and installs it as the slog
// default. The returned cleanup closes the underlying file and must be
// called on shutdown.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	path := cfg.FilePath
	if path == "" {
		path = DefaultLogPath()
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 3
	}

	writer, err := NewRotatingWriter(path, maxSize, maxFiles)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	var out io.Writer = writer
	if cfg.WriteToStderr {
		out = io.MultiWriter(writer, os.Stderr)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cleanup := func() {
		_ = writer.Close()
	}
	return logger, cleanup, nil
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
