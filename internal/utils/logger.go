package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger wraps an slog.Logger that writes to stdout and, optionally, to a
// timestamped log file.
type Logger struct {
	*slog.Logger
	file *os.File
}

// NewLogger builds a text logger at the given level. When logsDir is not
// empty a file named generate_<timestamp>.log is created inside it and
// receives the same records as stdout.
func NewLogger(level, logsDir string) (*Logger, error) {
	return newLogger(os.Stdout, level, logsDir)
}

func newLogger(out io.Writer, level, logsDir string) (*Logger, error) {
	l := &Logger{}
	w := out

	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logPath := filepath.Join(logsDir, fmt.Sprintf("generate_%s.log", timestamp))

		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		l.file = file
		w = io.MultiWriter(out, file)
	}

	l.Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	return l, nil
}

// ParseLevel maps a level name to an slog.Level, defaulting to info.
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

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
