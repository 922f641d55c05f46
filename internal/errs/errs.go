// Package errs defines the typed error kinds the obfuscator raises,
// distinguishing recoverable per-file failures from run-ending ones.
package errs

import (
	"fmt"
	"time"
)

// Kind classifies an error for exit-code and retry-policy purposes.
type Kind string

const (
	KindNoFilesFound Kind = "no_files_found"
	KindIoError      Kind = "io_error"
	KindToolError    Kind = "tool_error"
	KindConfigError  Kind = "config_error"
	KindInternal     Kind = "internal_error"
)

// Error is the single error type the pipeline and strategies raise.
// File-scoped kinds (IoError, ToolError) are Recoverable: the run logs
// them and continues with the remaining files.
type Error struct {
	Kind        Kind
	Path        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

func new_(kind Kind, op, path string, recoverable bool, err error) *Error {
	return &Error{
		Kind:        kind,
		Path:        path,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: recoverable,
	}
}

// IO wraps a file open/read/write/rename failure.
func IO(op, path string, err error) *Error { return new_(KindIoError, op, path, true, err) }

// Tool wraps a non-zero exit (or stderr output) from an external searcher,
// rewriter, or splitter invocation.
func Tool(op, path string, err error) *Error { return new_(KindToolError, op, path, true, err) }

// Config wraps an invalid flag or flag combination.
func Config(op string, err error) *Error { return new_(KindConfigError, op, "", false, err) }

// Internal wraps a programmer-bug assertion violation; never recoverable.
func Internal(op string, err error) *Error { return new_(KindInternal, op, "", false, err) }

// NoFilesFound signals discovery yielded zero eligible files (exit code IGNORED).
func NoFilesFound(root string) *Error {
	return new_(KindNoFilesFound, "discover", root, false, fmt.Errorf("no eligible text files under %s", root))
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Operation, e.Underlying)
}

func (e *Error) Unwrap() error { return e.Underlying }

// IsRecoverable reports whether the run should continue past this error.
func (e *Error) IsRecoverable() bool { return e.Recoverable }
