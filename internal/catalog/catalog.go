// Package catalog implements the low-level obfuscation strategy: scan a
// file once per detector, collect every distinct literal a detector
// matched into a sorted catalog, then rewrite the file with one
// substitution per literal instead of one per occurrence.
//
// A file with a handful of distinct IPs repeated ten thousand times
// across a log is far cheaper to rewrite this way than with a
// line-by-line regex pass: the cost is proportional to the number of
// distinct literals, not the number of matches.
package catalog

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/obsidian-labs/logobf/internal/errs"
	"github.com/obsidian-labs/logobf/internal/fsutil"
	"github.com/obsidian-labs/logobf/internal/placeholder"
)

// Outcome is the result of Classify.
type Outcome int

const (
	// Accept means the file's catalog is ready for Rewrite.
	Accept Outcome = iota
	// Reject means the distinct-literal count reached the threshold
	// before every detector finished scanning; callers should fall
	// back to a streaming strategy instead.
	Reject
	// Empty means no detector matched anything; there is nothing to do.
	Empty
)

func (o Outcome) String() string {
	switch o {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Catalog maps each detector to its distinct matched literals, cleaned
// and sorted by decreasing length so a longer match's substitution
// command always runs before a shorter literal that happens to be its
// suffix.
type Catalog struct {
	byDetector map[*placeholder.Detector][]string
	total      int
}

// Total returns the cumulative distinct-literal count across every
// detector in the catalog.
func (c *Catalog) Total() int { return c.total }

// Literals returns detector d's cleaned, length-sorted literal list.
func (c *Catalog) Literals(d *placeholder.Detector) []string { return c.byDetector[d] }

// cleanLiteral trims one trailing single-quote, then surrounding
// whitespace — a heuristic for shell-quoted log lines that can
// over-strip legitimate content on rare inputs, kept deliberately.
func cleanLiteral(s string) string {
	s = strings.TrimSuffix(s, "'")
	return strings.TrimSpace(s)
}

// Classify scans path once per detector, in the slice's tier order,
// accumulating distinct literals into a Catalog. When enforceThreshold
// is set, the scan stops and returns Reject as soon as the running
// distinct count reaches threshold — even if detectors later in the
// slice haven't run yet, so Reject never has to wait for a scan that
// would only confirm what's already known.
func Classify(path string, detectors []*placeholder.Detector, threshold int, enforceThreshold bool) (Outcome, *Catalog, error) {
	lines, err := readLines(path)
	if err != nil {
		return Empty, nil, errs.IO("classify", path, err)
	}

	seen := make(map[*placeholder.Detector]map[string]struct{}, len(detectors))
	total := 0

	for _, d := range detectors {
		set := make(map[string]struct{})
		for _, line := range lines {
			for _, m := range d.FindAll(line) {
				lit := cleanLiteral(m.Text)
				if lit == "" {
					continue
				}
				if _, ok := set[lit]; !ok {
					set[lit] = struct{}{}
					total++
				}
			}
		}
		seen[d] = set

		if enforceThreshold && total >= threshold {
			return Reject, nil, nil
		}
	}

	if total == 0 {
		return Empty, nil, nil
	}

	cat := &Catalog{byDetector: make(map[*placeholder.Detector][]string, len(detectors)), total: total}
	for _, d := range detectors {
		lits := make([]string, 0, len(seen[d]))
		for lit := range seen[d] {
			lits = append(lits, lit)
		}
		sort.Slice(lits, func(i, j int) bool {
			if len(lits[i]) != len(lits[j]) {
				return len(lits[i]) > len(lits[j])
			}
			return lits[i] < lits[j]
		})
		cat.byDetector[d] = lits
	}
	return Accept, cat, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Command is one literal-to-placeholder substitution, ordered so that
// applying Commands in slice order never lets a shorter literal
// clobber part of a longer one still waiting to be replaced.
type Command struct {
	Detector *placeholder.Detector
	Literal  string
}

// BuildCommands flattens cat into the ordered Command sequence: detector
// tier order outermost, decreasing literal length within each detector.
func BuildCommands(cat *Catalog, detectors []*placeholder.Detector) []Command {
	var cmds []Command
	for _, d := range detectors {
		for _, lit := range cat.Literals(d) {
			cmds = append(cmds, Command{Detector: d, Literal: lit})
		}
	}
	return cmds
}

// ChunkSize returns the batch size substitution commands are grouped
// into before each batch is applied as one pass over the file content:
// min(50, threshold/5), floored at 1.
func ChunkSize(threshold int) int {
	size := threshold / 5
	if size > 50 {
		size = 50
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Chunkify splits items into batches of at most size, except that a
// final batch shorter than size/3 is folded into the previous one
// instead of standing alone — avoiding a trailing chunk too small to
// be worth its own pass.
func Chunkify[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}

	var out [][]T
	n := len(items)
	i := 0
	for i < n {
		end := i + size
		if end > n {
			end = n
		}
		// Compare remaining*3 < size rather than a pre-floored size/3:
		// the original computes this threshold as a float, and folding
		// the comparison into floor(size/3) disagrees with it exactly
		// when the remainder equals that floor (e.g. size=50, half=16
		// vs. the original's 16.667 — 16 items would stand alone in Go
		// but fold into the previous chunk in the original).
		if remaining := n - end; remaining > 0 && remaining*3 < size {
			end = n
		}
		out = append(out, items[i:end])
		i = end
	}
	return out
}

// Rewrite applies every command in cmds to path's content, in chunks of
// chunkSize applied one after another (never concurrently: a chunk
// touching the same bytes as the next must see the previous chunk's
// output), then atomically replaces the file.
func Rewrite(path string, cmds []Command, chunkSize int) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errs.IO("rewrite", path, err)
	}
	text := string(content)

	for _, chunk := range Chunkify(cmds, chunkSize) {
		for _, cmd := range chunk {
			text = strings.ReplaceAll(text, cmd.Literal, cmd.Detector.Placeholder(cmd.Literal))
		}
	}

	if err := fsutil.AtomicReplace(path, []byte(text)); err != nil {
		return errs.IO("rewrite", path, err)
	}
	return nil
}
