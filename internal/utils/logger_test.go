package utils

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerWritesToStdoutOnly(t *testing.T) {
	var out bytes.Buffer
	logger, err := newLogger(&out, "info", "")
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug("hidden")
	logger.Info("visible", "count", 3)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg=visible count=3")
}

func TestLoggerWritesToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var out bytes.Buffer

	logger, err := newLogger(&out, "debug", dir)
	require.NoError(t, err)
	logger.Debug("to both")
	require.NoError(t, logger.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^generate_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.log$`, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, out.String(), "to both")
}
