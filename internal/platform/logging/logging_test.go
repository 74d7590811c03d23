// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/realestate/internal/platform/logging"
)

/*
TestParseLevel maps configuration strings to slog levels.
*/
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.ParseLevel(tt.input))
		})
	}
}

/*
TestNew_Console checks the JSON shape and the app tag.
*/
func TestNew_Console(t *testing.T) {
	var buffer bytes.Buffer

	logger, closer, err := logging.New(logging.Options{App: "realestate", Level: "warn", Stdout: &buffer})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("dropped")
	logger.Warn("account_created", slog.String("email", "a@example.com"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
	assert.Equal(t, "account_created", record["msg"])
	assert.Equal(t, "realestate", record["app"])
}

/*
TestNew_File verifies the rotated file sink receives records.
*/
func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "real_estate.log")

	logger, closer, err := logging.New(logging.Options{Level: "info", File: path, Stdout: &bytes.Buffer{}})
	require.NoError(t, err)

	logger.Info("file_sink_ready")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "file_sink_ready")
}
