package config

import (
	"fmt"
	"slices"

	"github.com/obsidian-labs/logobf/internal/errs"
)

// Validator checks a resolved Config for invalid flag combinations,
// raising a ConfigError kind.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate rejects invalid flag combinations; it does not mutate cfg —
// callers that want CPU-count auto-detection call Default() first.
func (v *Validator) Validate(cfg *Config) error {
	if cfg.Input == "" {
		return errs.Config("input", fmt.Errorf("--input is required"))
	}
	if cfg.Workers < 1 {
		return errs.Config("workers", fmt.Errorf("--workers must be >= 1, got %d", cfg.Workers))
	}
	if cfg.MinSplitSizeInBytes < 1 {
		return errs.Config("min-split-size-in-bytes", fmt.Errorf("must be >= 1, got %d", cfg.MinSplitSizeInBytes))
	}
	if cfg.Threshold < 1 {
		return errs.Config("threshold", fmt.Errorf("must be >= 1, got %d", cfg.Threshold))
	}
	if !slices.Contains(Strategies, cfg.Strategy) {
		return errs.Config("strategy", fmt.Errorf("unknown strategy %q", cfg.Strategy))
	}
	if !slices.Contains(PoolTypes, cfg.PoolType) {
		return errs.Config("pool-type", fmt.Errorf("unknown pool type %q", cfg.PoolType))
	}
	return nil
}
