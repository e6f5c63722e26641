// Package logger owns the process-wide slog.Logger. The exporter logs little
// outside of startup and failed scrapes, so one global logger is enough.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// globalLogger holds the configured slog.Logger.
// Access it with L() and set it with Set()/Configure().
var globalLogger *slog.Logger

// initOnce ensures the default logger is initialized exactly once.
var initOnce sync.Once

// L returns the configured slog.Logger. If Configure/Set hasn't been called
// yet, it returns a default text logger at INFO level to avoid nil panics.
func L() *slog.Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			globalLogger = slog.New(handler)
		}
	})

	return globalLogger
}

// Set replaces the global logger (primarily for tests or custom wiring).
func Set(newLogger *slog.Logger) {
	globalLogger = newLogger
}

// Configure builds and installs a slog.Logger.
// format: "json", "text" or "plain" (unknown -> text)
// debug: selects DEBUG level instead of INFO.
func Configure(format string, debug bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler

	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	case "plain":
		handler = newPlainTextHandler(os.Stdout, logLevel)
	default: // "text"
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		})
	}

	configured := slog.New(handler)
	Set(configured)

	return configured
}
