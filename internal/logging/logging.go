// Package logging provides leveled, structured logging for omni.
//
// It wraps charmbracelet/log and keeps a small API on top of it: a
// package-level default logger, per-component sub-loggers and an HTTP
// round-tripper that logs provider traffic with secrets redacted.
//
// # Usage
//
//	logging.Configure(logging.Options{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	    Output: os.Stderr,
//	})
//
//	logging.Info("starting session", "model", "openai/gpt-4o")
//
//	log := logging.With("component", "gateway")
//	log.Error("stream failed", err, "model", model)
//
// Output is silent below LevelError by default so that log lines never mix
// with the chat transcript unless --verbose or --log-level asks for them.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Level represents a logging level
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseLevel parses a string into a Level. Unknown values map to LevelError.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off":
		return LevelNone
	default:
		return LevelError
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelInfo:
		return log.InfoLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		// Above fatal: nothing is emitted.
		return log.FatalLevel + 1
	}
}

// Format represents the output format
type Format int

const (
	// FormatText outputs human-readable text
	FormatText Format = iota
	// FormatJSON outputs machine-readable JSON
	FormatJSON
)

// ParseFormat parses "json" or "text"; anything else is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Options configures the logger
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
	// File, when set, overrides Output with an append-only log file.
	File string
}

// Logger provides structured logging capabilities
type Logger struct {
	base  *log.Logger
	level Level
}

var (
	mu            sync.Mutex
	defaultLogger = New(Options{Level: LevelError, Output: os.Stderr})
	logFile       *os.File
)

// New creates a new Logger with the given options. Options.File is ignored;
// use Configure to log to a file.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	base := log.NewWithOptions(opts.Output, log.Options{
		Level:           opts.Level.charm(),
		ReportTimestamp: opts.Format == FormatJSON,
	})
	base.SetTimeFormat("")
	if opts.Format == FormatJSON {
		base.SetFormatter(log.JSONFormatter)
	} else {
		base.SetStyles(styles())
	}
	return &Logger{base: base, level: opts.Level}
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	s.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	s.Keys["component"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	s.Keys["model"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	return s
}

// Level returns the logger's level.
func (l *Logger) Level() Level { return l.level }

// Enabled reports whether messages at level would be emitted.
func (l *Logger) Enabled(level Level) bool { return level != LevelNone && level >= l.level }

// With returns a child logger that prefixes every entry with keyvals.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{base: l.base.With(keyvals...), level: l.level}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.base.Debug(msg, keyvals...)
}

// Info logs an info message
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.base.Info(msg, keyvals...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.base.Warn(msg, keyvals...)
}

// Error logs an error message. err may be nil.
func (l *Logger) Error(msg string, err error, keyvals ...interface{}) {
	if err != nil {
		keyvals = append([]interface{}{"error", err.Error()}, keyvals...)
	}
	l.base.Error(msg, keyvals...)
}

// Configure replaces the default logger. When opts.File is set the file is
// opened in append mode and any previously configured file is closed.
func Configure(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	var file *os.File
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		opts.Output = f
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	defaultLogger = New(opts)
	return nil
}

// Close releases the log file opened by Configure, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	defaultLogger = New(Options{Level: defaultLogger.level, Output: os.Stderr})
	return err
}

// Default returns the package-level logger.
func Default() *Logger {
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger
}

// Package-level convenience functions using the default logger

// With returns a child of the default logger.
func With(keyvals ...interface{}) *Logger { return Default().With(keyvals...) }

// Debug logs a debug message using the default logger
func Debug(msg string, keyvals ...interface{}) { Default().Debug(msg, keyvals...) }

// Info logs an info message using the default logger
func Info(msg string, keyvals ...interface{}) { Default().Info(msg, keyvals...) }

// Warn logs a warning message using the default logger
func Warn(msg string, keyvals ...interface{}) { Default().Warn(msg, keyvals...) }

// Error logs an error message using the default logger
func Error(msg string, err error, keyvals ...interface{}) { Default().Error(msg, err, keyvals...) }
