// Package cliflags holds the small per-flag validators and the
// misspelling-suggestion helper cmd/obf wires into its urfave/cli flag
// definitions.
package cliflags

import (
	"fmt"
	"os"

	"github.com/hbollon/go-edlib"
	"github.com/urfave/cli/v2"

	"github.com/obsidian-labs/logobf/internal/errs"
)

// RangeInt returns a urfave/cli per-flag Action rejecting any parsed
// value below min, named after flagName in the resulting error.
func RangeInt(flagName string, min int) func(*cli.Context, int) error {
	return func(c *cli.Context, v int) error {
		if v < min {
			return fmt.Errorf("--%s must be >= %d, got %d", flagName, min, v)
		}
		return nil
	}
}

// ExistingPath returns a per-flag Action rejecting, with a ConfigError,
// a value that does not name a file or directory already on disk. An
// empty value (flag
// not set) passes — callers that require the flag check that
// separately.
func ExistingPath(flagName string) func(*cli.Context, string) error {
	return func(c *cli.Context, v string) error {
		if v == "" {
			return nil
		}
		if _, err := os.Stat(v); err != nil {
			return errs.Config(flagName, fmt.Errorf("--%s: %w", flagName, err))
		}
		return nil
	}
}

// SuggestOneOf returns a "did you mean %q?" hint for value against
// candidates using Levenshtein distance, or "" when candidates is
// empty or value already matches one of them.
func SuggestOneOf(value string, candidates []string) string {
	if value == "" || len(candidates) == 0 {
		return ""
	}
	for _, c := range candidates {
		if c == value {
			return ""
		}
	}
	best := edlib.FuzzySearch(value, candidates, edlib.Levenshtein)
	if best == "" {
		return ""
	}
	return fmt.Sprintf("did you mean %q?", best)
}
