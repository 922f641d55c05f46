package fsutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// randToken returns an 8 hex character token used to keep concurrent
// workers from colliding on the same obfuscated part path. It carries
// no determinism contract — unlike placeholder.Digest, nothing reads
// it back across runs.
func randToken() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano())[:8]
	}
	return hex.EncodeToString(b[:])
}

// NewTempDir creates <output>/obf_tmp_<YYYYmmdd_HHMMSS>/ under output
// and returns its path.
func NewTempDir(output string) (string, error) {
	name := TempDirPrefix + time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(output, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir %s: %w", path, err)
	}
	return path, nil
}

// RemoveTempDir deletes root recursively. Cleanup failures are not fatal
// to a run — callers should log the returned error rather than abort.
func RemoveTempDir(root string) error {
	return os.RemoveAll(root)
}

// PartName builds the "<basename>___pt___<NN>" name for the n'th
// (zero-padded, width 2 minimum) part of basename.
func PartName(basename string, n int) string {
	return fmt.Sprintf("%s%s%02d", basename, partInfix, n)
}

// ObfuscatedPartName builds "<part>___<rand>___new", the randomized
// suffix letting concurrent workers race on the same basename without
// colliding on the same obfuscated output path.
func ObfuscatedPartName(partPath string) string {
	return fmt.Sprintf("%s___%s%s", partPath, randToken(), newInfix)
}

// ErrSidecarName builds the ".err.tmp" sidecar path for a failed part.
func ErrSidecarName(partPath string) string {
	return partPath + ".err.tmp"
}

// ObfuscatedPartIndex extracts the numeric NN from an *obfuscated* part
// path named "<basename>___pt___<NN>___<rand>___new", by splitting on
// "___" and taking the third-from-last field. Merge order is derived
// from this index, not from directory listing order.
func ObfuscatedPartIndex(partPath string) (int, error) {
	fields := splitTriple(filepath.Base(partPath))
	if len(fields) < 3 {
		return 0, fmt.Errorf("part name %q does not carry a ___pt___NN segment", filepath.Base(partPath))
	}
	return parseIndexField(filepath.Base(partPath), fields[len(fields)-3])
}

// PlainPartIndex extracts the numeric NN from an unobfuscated part path
// named "<basename>___pt___<NN>" — the last "___"-delimited field.
func PlainPartIndex(partPath string) (int, error) {
	fields := splitTriple(filepath.Base(partPath))
	if len(fields) < 2 {
		return 0, fmt.Errorf("part name %q does not carry a ___pt___NN segment", filepath.Base(partPath))
	}
	return parseIndexField(filepath.Base(partPath), fields[len(fields)-1])
}

func parseIndexField(base, idxField string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(idxField, "%d", &n); err != nil {
		return 0, fmt.Errorf("part name %q: non-numeric index %q: %w", base, idxField, err)
	}
	return n, nil
}

func splitTriple(s string) []string {
	var out []string
	start := 0
	for i := 0; i+2 < len(s); {
		if s[i] == '_' && s[i+1] == '_' && s[i+2] == '_' {
			out = append(out, s[start:i])
			start = i + 3
			i += 3
			continue
		}
		i++
	}
	out = append(out, s[start:])
	return out
}
