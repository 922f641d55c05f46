package scrub

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/obsidian-labs/logobf/internal/placeholder"
)

func TestFileRewritesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	content := "connect from 10.0.0.1 ok\nplain line\nhost aa:bb:cc:dd:ee:ff up\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	changed, err := File(path, placeholder.Default("1234"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 changed lines, got %d", changed)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rewritten file: %v", err)
	}
	if !regexp.MustCompile(`\{\{IP-[0-9a-f]{8}\}\}`).Match(out) {
		t.Fatalf("expected IP placeholder in output, got %q", out)
	}
	if !regexp.MustCompile(`\{\{MAC-[0-9a-f]{8}\}\}`).Match(out) {
		t.Fatalf("expected MAC placeholder in output, got %q", out)
	}
	if !regexp.MustCompile(`(?m)^plain line$`).Match(out) {
		t.Fatalf("expected unmatched line untouched, got %q", out)
	}
}

func TestFilePreservesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, []byte("10.0.0.1\n"), 0o640); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	if _, err := File(path, placeholder.Default("1234")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("expected mode preserved at 0640, got %v", info.Mode().Perm())
	}
}
