package errs

import (
	"errors"
	"testing"
)

func TestIOError(t *testing.T) {
	underlying := errors.New("disk full")
	err := IO("write", "/var/log/app.log", underlying)

	if err.Kind != KindIoError {
		t.Errorf("expected KindIoError, got %v", err.Kind)
	}
	if !err.IsRecoverable() {
		t.Errorf("expected IO error to be recoverable")
	}
	if !errors.Is(err, underlying) {
		t.Errorf("expected Unwrap to reach underlying error")
	}
	want := "io_error: write /var/log/app.log: disk full"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestConfigErrorNotRecoverable(t *testing.T) {
	err := Config("threshold", errors.New("must be >= 1"))
	if err.IsRecoverable() {
		t.Errorf("config errors should abort, not continue per-file")
	}
}

func TestNoFilesFound(t *testing.T) {
	err := NoFilesFound("/tmp/empty")
	if err.Kind != KindNoFilesFound {
		t.Errorf("expected KindNoFilesFound, got %v", err.Kind)
	}
}
