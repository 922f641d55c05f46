package fsutil

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFindsEligibleFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("line one\nline two\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.log"), []byte(""), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "nested.log"), []byte("nested content\n"), 0o644))

	records, err := Discover(dir, nil, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestDiscoverSkipsBuiltinIgnoreHint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.log"), []byte(BuiltinIgnoreHint+"\nmore\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.log"), []byte("keep this\n"), 0o644))

	records, err := Discover(dir, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep.log", filepath.Base(records[0].Path))
}

func TestDiscoverSkipsUserIgnoreHint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.log"), []byte("# DO-NOT-SCRUB\nmore\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.log"), []byte("keep this\n"), 0o644))

	hint := regexp.MustCompile("DO-NOT-SCRUB")
	records, err := Discover(dir, hint, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep.log", filepath.Base(records[0].Path))
}

func TestDiscoverSkipsPartArtifactsAndDatFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log___pt___00"), []byte("part\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log___pt___00___abcd1234___new"), []byte("part\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.dat"), []byte("binary-ish\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("keep\n"), 0o644))

	records, err := Discover(dir, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "app.log", filepath.Base(records[0].Path))
}

func TestDiscoverPrunesTempDirs(t *testing.T) {
	dir := t.TempDir()
	tempSub := filepath.Join(dir, "obf_tmp_20260101_000000")
	require.NoError(t, os.MkdirAll(tempSub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tempSub, "leftover.log"), []byte("stale\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("keep\n"), 0o644))

	records, err := Discover(dir, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1, "expected obf_tmp_ subtree pruned")
	assert.Equal(t, "app.log", filepath.Base(records[0].Path))
}

func TestDiscoverHonorsExcludeGlobs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "dep.log"), []byte("vendored\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("keep\n"), 0o644))

	records, err := Discover(dir, nil, []string{"**/vendor/**"})
	require.NoError(t, err)
	require.Len(t, records, 1, "expected vendor/ excluded")
	assert.Equal(t, "app.log", filepath.Base(records[0].Path))
}

func TestDiscoverAcceptsSingleFileInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solo.log")
	require.NoError(t, os.WriteFile(path, []byte("one line\n"), 0o644))

	records, err := Discover(path, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, path, records[0].Path)
}

func TestCountLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0o644))

	n, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
