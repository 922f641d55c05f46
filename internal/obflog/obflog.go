// Package obflog provides the process-wide logger for the obfuscator.
//
// A single mutex-guarded writer backs every level helper. Logging is
// always-on: progress and per-file outcomes are operator-facing, not
// gated behind a build-time debug flag.
package obflog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logFileName = "obfuscation_log"

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	logFile *os.File
	verbose bool
	debugOn bool
)

// Init opens the log file under folder (os.TempDir() when folder is
// empty) and fans output out to both stderr and the file.
func Init(folder string, verboseMode, debugMode bool) error {
	mu.Lock()
	defer mu.Unlock()

	verbose = verboseMode
	debugOn = debugMode

	if folder == "" {
		folder = os.TempDir()
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("obflog: create log folder %s: %w", folder, err)
	}
	f, err := os.OpenFile(filepath.Join(folder, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("obflog: open log file: %w", err)
	}
	logFile = f
	out = io.MultiWriter(os.Stderr, f)
	return nil
}

// Close releases the log file, if one was opened via Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	out = os.Stderr
	return err
}

// SetOutput redirects log output; used by tests to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func writeLine(level, format string, args ...interface{}) {
	mu.Lock()
	w := out
	mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(w, "%s [%s] %s\n", ts, level, fmt.Sprintf(format, args...))
}

// Info logs run progress: files discovered, strategy chosen, routing decisions.
func Info(format string, args ...interface{}) { writeLine("INFO", format, args...) }

// Warning logs recoverable conditions that do not fail the run, such as
// a temp-directory cleanup error.
func Warning(format string, args ...interface{}) { writeLine("WARNING", format, args...) }

// Error logs a per-file failure that does not abort the run.
func Error(format string, args ...interface{}) { writeLine("ERROR", format, args...) }

// Debug logs fine-grained detail, emitted only when --debug is set.
func Debug(format string, args ...interface{}) {
	if !debugOn {
		return
	}
	writeLine("DEBUG", format, args...)
}

// Verbose reports whether --verbose/-v raised the logger's chattiness.
func Verbose() bool { return verbose }

// Summary emits the single top-line SUCCESS/FAILURE/IGNORED verdict.
func Summary(result string) {
	writeLine("RESULT", "%s", result)
}

// Timed runs fn and, when measureTime is set, logs its elapsed wall
// time at INFO under name.
func Timed(name string, measureTime bool, fn func() error) error {
	if !measureTime {
		return fn()
	}
	start := time.Now()
	err := fn()
	Info("%q took %s", name, time.Since(start))
	return err
}
