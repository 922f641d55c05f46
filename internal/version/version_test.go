package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Info())
}

func TestFullInfoIncludesCommitAndBuildDate(t *testing.T) {
	full := FullInfo()
	assert.Contains(t, full, Version)
	assert.Contains(t, full, GitCommit)
	assert.Contains(t, full, BuildDate)
}
