package splitmerge

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/obsidian-labs/logobf/internal/placeholder"
)

func TestPreOneSkipsSmallFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.log")
	os.WriteFile(path, []byte("one\ntwo\n"), 0o644)

	parts, err := PreOne(path, 4, 1024, dir, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 1 || parts[0] != path {
		t.Fatalf("expected untouched single part, got %v", parts)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("original should still exist: %v", err)
	}
}

func TestPreOneSplitsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.log")
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "line "+strconv.Itoa(i))
	}
	content := strings.Join(lines, "\n") + "\n"
	os.WriteFile(path, []byte(content), 0o644)

	parts, err := PreOne(path, 4, 1, dir, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts for 20 lines / 4 workers, got %d: %v", len(parts), parts)
	}
	for _, p := range parts {
		if !strings.Contains(filepath.Base(p), "___pt___") {
			t.Fatalf("expected part name to carry ___pt___ marker: %s", p)
		}
	}
}

func TestPreOneRemovesOriginalWhenRequested(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.log")
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "line "+strconv.Itoa(i))
	}
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)

	if _, err := PreOne(path, 4, 1, dir, true, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected original removed, stat err: %v", err)
	}
}

func TestObfuscateOneWritesSiblingAndScrubs(t *testing.T) {
	dir := t.TempDir()
	part := filepath.Join(dir, "part___pt___00")
	os.WriteFile(part, []byte("ip 10.0.0.1 seen\nplain\n"), 0o644)

	outPath, err := ObfuscateOne(part, placeholder.Default("1234"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(outPath, "___new") {
		t.Fatalf("expected sibling to end in ___new, got %s", outPath)
	}
	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read sibling: %v", err)
	}
	if !regexp.MustCompile(`\{\{IP-[0-9a-f]{8}\}\}`).Match(out) {
		t.Fatalf("expected IP placeholder, got %q", out)
	}
	if _, err := os.Stat(part); err != nil {
		t.Fatalf("original part should remain: %v", err)
	}
}

func TestPostOneMergesInAscendingOrder(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "merged.log")

	p1 := filepath.Join(dir, "merged.log___pt___01___aaaaaaaa___new")
	p0 := filepath.Join(dir, "merged.log___pt___00___bbbbbbbb___new")
	os.WriteFile(p0, []byte("first\n"), 0o644)
	os.WriteFile(p1, []byte("second\n"), 0o644)

	if err := PostOne([]string{p1, p0}, target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(out) != "first\nsecond\n" {
		t.Fatalf("expected parts merged in ascending index order, got %q", out)
	}
}

func TestMergeInPlacePartsUsesPlainIndex(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.log")

	p0 := filepath.Join(dir, "app.log___pt___00")
	p1 := filepath.Join(dir, "app.log___pt___01")
	os.WriteFile(p1, []byte("second\n"), 0o644)
	os.WriteFile(p0, []byte("first\n"), 0o644)

	if err := MergeInPlaceParts([]string{p1, p0}, target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(out) != "first\nsecond\n" {
		t.Fatalf("expected ascending-index merge, got %q", out)
	}
}

func TestPostOneMovesSinglePartDirectly(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.log")
	part := filepath.Join(dir, "out.log___randtoken___new")
	os.WriteFile(part, []byte("content\n"), 0o644)

	if err := PostOne([]string{part}, target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(out) != "content\n" {
		t.Fatalf("unexpected content: %q", out)
	}
	if _, err := os.Stat(part); !os.IsNotExist(err) {
		t.Fatalf("expected source part consumed by move")
	}
}
