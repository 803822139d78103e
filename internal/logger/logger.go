// Package logger provides the zap-backed structured logger shared by the
// controller, its devices and the HTTP layer.
package logger

import (
	"io"
	"os"
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options selects level, encoding and destination.
// A nil Output means stdout.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger. Only the first call's options count.
func Get(opts Options) *Logger {
	once.Do(func() {
		globalLogger = New(opts)
	})
	return globalLogger
}

// New builds a standalone logger, for a device or a test that wants its
// own instance.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return newZapLogger(opts)
}

// ValidLevel reports whether s is one of the known level names.
func ValidLevel(s string) bool {
	switch s {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return true
	}
	return false
}

// ValidFormat reports whether s names a supported encoding.
func ValidFormat(s string) bool {
	return s == FormatConsole || s == FormatJSON
}

// OutputFor maps a configured destination name to a writer.
func OutputFor(name string) io.Writer {
	if name == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}
