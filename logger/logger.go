package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

var defaultLogger *slog.Logger

// Init initializes the default logger with appropriate handler based on environment.
// When logFile is set, output is also written to a rotating file.
func Init(env string, debug bool, logFile string) {
	slog.SetDefault(New(os.Stdout, env, debug, logFile))
	defaultLogger = slog.Default()
}

// New builds a logger writing to out (and logFile, if set) without touching
// the process default.
func New(out io.Writer, env string, debug bool, logFile string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err == nil {
			out = io.MultiWriter(out, &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    DefaultMaxSizeMB,
				MaxBackups: DefaultMaxBackups,
				MaxAge:     DefaultMaxAgeDays,
				Compress:   true,
			})
		}
	}

	var handler slog.Handler
	if debug || env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// Default returns the default logger instance
func Default() *slog.Logger {
	if defaultLogger == nil {
		defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return defaultLogger
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Default().With(args...)
}
