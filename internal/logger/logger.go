// Package logger provides verbose logging for the ilayer CLI.
// When verbose mode is enabled via the --verbose flag, debug messages about
// runs, evaluations and model requests are printed to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level tags a log line.
type Level string

// Log levels. Only LevelError is printed without verbose mode.
const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf holds the write lock so concurrent lines never interleave.
func logf(level Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose && level != LevelError {
		return
	}
	fmt.Fprintf(output, "["+string(level)+"] "+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn prints a warning if verbose mode is enabled.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error prints an error message, verbose or not.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs the start of an operation and returns a function that logs its
// duration. Use as: defer logger.Timed("import")().
func Timed(operation string) func() {
	began := time.Now()
	Debug("%s: started", operation)
	return func() {
		Debug("%s: finished in %s", operation, time.Since(began).Round(time.Millisecond))
	}
}
