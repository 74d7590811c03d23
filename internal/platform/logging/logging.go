// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package logging builds the root [*slog.Logger] shared by the API server and
// the manage CLI.
//
// Records are JSON. When a file path is configured, output is teed to stdout
// and to a daily-rotated file kept for a week.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

const (
	rotationTime = 24 * time.Hour
	maxAge       = 7 * 24 * time.Hour
)

// Options controls the root logger.
type Options struct {
	// App is attached to every record as "app".
	App string
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// File, when set, adds a rotated file sink (e.g. logs/real_estate.log).
	File string
	// Stdout overrides the console sink; nil means os.Stdout.
	Stdout io.Writer
}

// nopCloser is returned when no file sink is open.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

/*
New constructs the root logger.

Returns:
  - *slog.Logger: JSON logger tagged with the app name
  - io.Closer: Closes the file sink (no-op without one)
  - error: The log directory or rotator could not be created
*/
func New(options Options) (*slog.Logger, io.Closer, error) {
	var writer io.Writer = os.Stdout
	if options.Stdout != nil {
		writer = options.Stdout
	}

	var closer io.Closer = nopCloser{}
	if options.File != "" {
		if err := os.MkdirAll(filepath.Dir(options.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: failed to create log directory: %w", err)
		}

		rotator, err := rotatelogs.New(
			options.File+".%Y%m%d",
			rotatelogs.WithLinkName(options.File),
			rotatelogs.WithRotationTime(rotationTime),
			rotatelogs.WithMaxAge(maxAge),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: failed to open %s: %w", options.File, err)
		}

		writer = io.MultiWriter(writer, rotator)
		closer = rotator
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: ParseLevel(options.Level)})

	logger := slog.New(handler)
	if options.App != "" {
		logger = logger.With(slog.String("app", options.App))
	}

	return logger, closer, nil
}

// ParseLevel maps a textual level to [slog.Level].
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
