// Package fsutil implements file discovery, eligibility filtering, size
// and line counting, atomic in-place rewrite, path cloning, and the
// temp-directory conventions the split/merge strategies share.
//
// Discovery walks the tree with filepath.Walk and per-entry fast
// exclusion checks, pruning whole directories with filepath.SkipDir
// rather than descending and filtering after the fact.
package fsutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// BuiltinIgnoreHint is the literal substring that, found on a file's
// first line, excludes it from discovery regardless of --ignore-hint.
const BuiltinIgnoreHint = "NoObfuscation4Me"

// TempDirPrefix names every strategy's scratch directory; discovery
// refuses to recurse into any directory whose name ends in this prefix.
const TempDirPrefix = "obf_tmp_"

const (
	partInfix = "___pt___"
	newInfix  = "___new"
)

// FileRecord is a discovered, eligible input path.
type FileRecord struct {
	Path string
	Size int64
}

// Discover walks root and returns every eligible FileRecord: files
// whose first line doesn't match the built-in or user ignore hint,
// that aren't temp-part artifacts, don't end in .dat, and don't match
// any of excludeGlobs (doublestar patterns, checked against both the
// full path and the base name).
//
// A single file path for root is accepted directly rather than
// requiring a directory.
func Discover(root string, userIgnoreHint *regexp.Regexp, excludeGlobs []string) ([]FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if matchesAnyGlob(root, excludeGlobs) {
			return nil, nil
		}
		if eligible, size := isEligible(root, userIgnoreHint); eligible {
			return []FileRecord{{Path: root, Size: size}}, nil
		}
		return nil, nil
	}

	var out []FileRecord
	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil // skip unreadable entries, keep walking
		}
		if info.IsDir() {
			if path != root && strings.HasSuffix(info.Name(), TempDirPrefix) {
				return filepath.SkipDir
			}
			if path != root && matchesAnyGlob(path, excludeGlobs) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAnyGlob(path, excludeGlobs) {
			return nil
		}
		if eligible, size := isEligible(path, userIgnoreHint); eligible {
			out = append(out, FileRecord{Path: path, Size: size})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// matchesAnyGlob reports whether path (or its base name) matches any
// of globs, a doublestar pattern list (e.g. "**/*.dat", "vendor/**").
func matchesAnyGlob(path string, globs []string) bool {
	if len(globs) == 0 {
		return false
	}
	base := filepath.Base(path)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

func isEligible(path string, userIgnoreHint *regexp.Regexp) (bool, int64) {
	if strings.Contains(path, newInfix) || strings.Contains(path, partInfix) || strings.HasSuffix(path, ".dat") {
		return false, 0
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		// An empty file has nothing to scrub, so it's excluded here
		// rather than surfaced as a failure.
		return false, 0
	}

	f, err := os.Open(path)
	if err != nil {
		return false, 0
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	firstLine, _ := reader.ReadString('\n')
	if firstLine == "" {
		return false, 0
	}
	if !utf8.ValidString(firstLine) {
		return false, 0 // probably binary
	}
	if strings.Contains(firstLine, BuiltinIgnoreHint) {
		return false, 0
	}
	if userIgnoreHint != nil && userIgnoreHint.MatchString(firstLine) {
		return false, 0
	}
	return true, info.Size()
}

// CountLines returns the number of newline-terminated lines in path.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				count++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	return count, nil
}
