// Package scrub implements the streaming in-place obfuscation pass
// shared by the in_place, split_in_place, and hybrid-split-fallback
// strategies: read a file (or a split part) line by line, apply every
// detector in tier order, and atomically rewrite it with the result.
package scrub

import (
	"github.com/obsidian-labs/logobf/internal/errs"
	"github.com/obsidian-labs/logobf/internal/fsutil"
	"github.com/obsidian-labs/logobf/internal/placeholder"
)

// File streams path through detectors and rewrites it in place.
// It reports the number of lines that were changed by at least one
// detector, for progress logging.
func File(path string, detectors []*placeholder.Detector) (changed int, err error) {
	rewriteErr := fsutil.StreamRewrite(path, func(line string) string {
		out := placeholder.ScrubLine(detectors, line)
		if out != line {
			changed++
		}
		return out
	})
	if rewriteErr != nil {
		return changed, errs.IO("scrub", path, rewriteErr)
	}
	return changed, nil
}
