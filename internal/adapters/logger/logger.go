// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
	mu     sync.RWMutex
}

// New creates a new Logger writing human-readable text to stderr at info level.
func New() *Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	return &Logger{
		logger: newSlog(os.Stderr, level),
		level:  level,
	}
}

func newSlog(w io.Writer, level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetOutput updates the logger's output destination.
// The current level carries over to the new handler.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = newSlog(w, l.level)
}

// SetVerbose switches between debug and info level.
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(slog.LevelInfo)
}

// Debug logs a diagnostic message, shown only in verbose mode.
func (l *Logger) Debug(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs an error together with any metadata attached through zerr.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Error("operation failed", "error", err)
}
