// Package strategy wires the detector set, worker pool, catalog,
// scrubber, split-merge, and pipeline packages into the seven named
// obfuscation strategies and drives one end-to-end run: discover,
// dispatch, summarize.
package strategy

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/obsidian-labs/logobf/internal/catalog"
	"github.com/obsidian-labs/logobf/internal/config"
	"github.com/obsidian-labs/logobf/internal/errs"
	"github.com/obsidian-labs/logobf/internal/fsutil"
	"github.com/obsidian-labs/logobf/internal/obflog"
	"github.com/obsidian-labs/logobf/internal/pipeline"
	"github.com/obsidian-labs/logobf/internal/placeholder"
	"github.com/obsidian-labs/logobf/internal/pool"
	"github.com/obsidian-labs/logobf/internal/scrub"
	"github.com/obsidian-labs/logobf/internal/splitmerge"
)

// ExitCode mirrors the three verdicts a run can reach.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitIgnored ExitCode = 1
	ExitFailure ExitCode = 2
)

// Runner drives one full obfuscation run for a resolved Config.
type Runner struct {
	Cfg       *config.Config
	Detectors []*placeholder.Detector
}

// New builds a Runner with the detector set compiled for cfg.Salt.
func New(cfg *config.Config) *Runner {
	return &Runner{Cfg: cfg, Detectors: placeholder.Default(cfg.Salt)}
}

// Run discovers input files, resolves their working copies (cloning
// into --output when it differs from --input), dispatches to the
// configured strategy, and returns the run's verdict.
func (r *Runner) Run() (ExitCode, error) {
	var hint *regexp.Regexp
	if r.Cfg.IgnoreHint != "" {
		compiled, err := regexp.Compile(r.Cfg.IgnoreHint)
		if err != nil {
			return ExitFailure, errs.Config("ignore-hint", err)
		}
		hint = compiled
	}

	records, err := fsutil.Discover(r.Cfg.Input, hint, r.Cfg.ExcludeGlobs)
	if err != nil {
		return ExitFailure, err
	}
	if len(records) == 0 {
		obflog.Summary("IGNORED")
		return ExitIgnored, errs.NoFilesFound(r.Cfg.Input)
	}
	obflog.Info("discovered %d eligible file(s) under %s", len(records), r.Cfg.Input)

	targets, err := r.resolveTargets(records)
	if err != nil {
		obflog.Summary("FAILURE")
		return ExitFailure, err
	}

	var runErrs []error
	_ = obflog.Timed(r.Cfg.Strategy, r.Cfg.MeasureTime, func() error {
		runErrs = r.dispatch(targets)
		if len(runErrs) > 0 {
			return runErrs[0]
		}
		return nil
	})

	if len(runErrs) > 0 {
		for _, e := range runErrs {
			obflog.Error("%v", e)
		}
		obflog.Summary("FAILURE")
		return ExitFailure, runErrs[0]
	}
	obflog.Summary("SUCCESS")
	return ExitSuccess, nil
}

// resolveTargets returns the path each strategy should mutate: the
// discovered path itself when --output is unset or equals --input, or
// a cloned copy under --output otherwise, so --input can stay read-only.
func (r *Runner) resolveTargets(records []fsutil.FileRecord) ([]string, error) {
	if r.Cfg.Output == "" || r.Cfg.Output == r.Cfg.Input {
		out := make([]string, len(records))
		for i, rec := range records {
			out[i] = rec.Path
		}
		return out, nil
	}

	out := make([]string, len(records))
	for i, rec := range records {
		target, err := fsutil.CloneTree(rec.Path, r.Cfg.Input, r.Cfg.Output)
		if err != nil {
			return nil, errs.IO("clone_tree", rec.Path, err)
		}
		if err := fsutil.CopyFile(rec.Path, target); err != nil {
			return nil, errs.IO("clone_tree", rec.Path, err)
		}
		out[i] = target
	}
	return out, nil
}

func (r *Runner) dispatch(targets []string) []error {
	switch r.Cfg.Strategy {
	case config.StrategyInPlace:
		return r.runInPlace(targets)
	case config.StrategySplitInPlace:
		return r.runSplitInPlace(targets)
	case config.StrategySplitMerge:
		return r.runSplitMerge(targets)
	case config.StrategyLowLevel:
		return r.runLowLevel(targets)
	case config.StrategyHybrid:
		return r.runHybrid(targets)
	case config.StrategyHybridSplit:
		return r.runHybridSplit(targets)
	case config.StrategyRipgrep:
		return r.runRipgrep(targets)
	default:
		return []error{errs.Config("strategy", fmt.Errorf("unknown strategy %q", r.Cfg.Strategy))}
	}
}

func collectErrs(in []error) []error {
	var out []error
	for _, e := range in {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// tempRoot picks the directory a strategy's scratch obf_tmp_* folder
// is created under: --output when given, else --input's parent.
func (r *Runner) tempRoot() string {
	if r.Cfg.Output != "" {
		return r.Cfg.Output
	}
	return filepath.Dir(r.Cfg.Input)
}

func (r *Runner) cleanupTemp(tempDir string) {
	if err := splitmerge.PostAll(tempDir); err != nil {
		obflog.Warning("cleanup %s: %v", tempDir, err)
	}
}

// --- in_place ---

func (r *Runner) runInPlace(targets []string) []error {
	p := pool.New(r.Cfg.PoolType, r.Cfg.Workers, r.Cfg.Serially)
	_, errOut := pool.Map(p, func(path string) (int, error) {
		n, err := scrub.File(path, r.Detectors)
		if err == nil {
			obflog.Info("scrubbed %s (%d line(s) changed)", path, n)
		}
		return n, err
	}, targets)
	return collectErrs(errOut)
}

// --- split_in_place ---

func (r *Runner) runSplitInPlace(targets []string) []error {
	tempDir, err := fsutil.NewTempDir(r.tempRoot())
	if err != nil {
		return []error{err}
	}
	defer r.cleanupTemp(tempDir)

	p := pool.New(r.Cfg.PoolType, r.Cfg.Workers, r.Cfg.Serially)
	_, errOut := pool.Map(p, func(path string) (int, error) {
		return 0, r.splitInPlaceOne(path, tempDir)
	}, targets)
	return collectErrs(errOut)
}

func (r *Runner) splitInPlaceOne(path, tempDir string) error {
	parts, err := splitmerge.PreOne(path, r.Cfg.Workers, r.Cfg.MinSplitSizeInBytes, tempDir, false, true)
	if err != nil {
		return err
	}
	if len(parts) == 1 && parts[0] == path {
		_, scrubErr := scrub.File(path, r.Detectors)
		return scrubErr
	}

	management := pool.NewManagement(r.Cfg.Workers)
	_, partErrs := pool.Map(management, func(part string) (int, error) {
		return scrub.File(part, r.Detectors)
	}, parts)
	if failed := collectErrs(partErrs); len(failed) > 0 {
		return failed[0]
	}
	return splitmerge.MergeInPlaceParts(parts, path)
}

// --- split_merge ---

func (r *Runner) runSplitMerge(targets []string) []error {
	tempDir, err := fsutil.NewTempDir(r.tempRoot())
	if err != nil {
		return []error{err}
	}
	defer r.cleanupTemp(tempDir)

	p := pool.New(r.Cfg.PoolType, r.Cfg.Workers, r.Cfg.Serially)
	_, errOut := pool.Map(p, func(path string) (int, error) {
		return 0, r.splitMergeOne(path, tempDir)
	}, targets)
	return collectErrs(errOut)
}

func (r *Runner) splitMergeOne(path, tempDir string) error {
	parts, err := splitmerge.PreOne(path, r.Cfg.Workers, r.Cfg.MinSplitSizeInBytes, tempDir, r.Cfg.RemoveOriginal, false)
	if err != nil {
		return err
	}

	management := pool.NewManagement(r.Cfg.Workers)
	obfParts, partErrs := pool.Map(management, func(part string) (string, error) {
		return splitmerge.ObfuscateOne(part, r.Detectors)
	}, parts)
	if failed := collectErrs(partErrs); len(failed) > 0 {
		return failed[0]
	}
	return splitmerge.PostOne(obfParts, path)
}

// --- low_level (catalog strategy, standalone) ---

func (r *Runner) runLowLevel(targets []string) []error {
	p := pool.New(r.Cfg.PoolType, r.Cfg.Workers, r.Cfg.Serially)
	_, errOut := pool.Map(p, func(path string) (int, error) {
		// enforceThreshold is false here: a bare low_level run has no
		// fallback strategy to route a Reject to, so it never rejects.
		return 0, r.lowLevelOne(path, false)
	}, targets)
	return collectErrs(errOut)
}

func (r *Runner) lowLevelOne(path string, enforceThreshold bool) error {
	outcome, cat, err := catalog.Classify(path, r.Detectors, r.Cfg.Threshold, enforceThreshold)
	if err != nil {
		return err
	}
	switch outcome {
	case catalog.Empty:
		return nil
	case catalog.Reject:
		_, scrubErr := scrub.File(path, r.Detectors)
		return scrubErr
	default:
		cmds := catalog.BuildCommands(cat, r.Detectors)
		return catalog.Rewrite(path, cmds, catalog.ChunkSize(r.Cfg.Threshold))
	}
}

// --- hybrid ---

func (r *Runner) runHybrid(targets []string) []error {
	tempDir, err := fsutil.NewTempDir(r.tempRoot())
	if err != nil {
		return []error{err}
	}
	defer r.cleanupTemp(tempDir)

	classifyFn := func(path string) pipeline.Classification {
		outcome, cat, err := catalog.Classify(path, r.Detectors, r.Cfg.Threshold, true)
		if err != nil {
			obflog.Error("classify %s: %v", path, err)
			return pipeline.Classification{File: path, Route: pipeline.RouteSkip}
		}
		switch outcome {
		case catalog.Empty:
			return pipeline.Classification{File: path, Route: pipeline.RouteSkip}
		case catalog.Reject:
			return pipeline.Classification{File: path, Route: pipeline.RouteFallback}
		default:
			return pipeline.Classification{File: path, Route: pipeline.RoutePrimary, Payload: cat}
		}
	}

	decideFn := func(c pipeline.Classification) func() error {
		switch c.Route {
		case pipeline.RoutePrimary:
			cat := c.Payload.(*catalog.Catalog)
			return func() error {
				cmds := catalog.BuildCommands(cat, r.Detectors)
				return catalog.Rewrite(c.File, cmds, catalog.ChunkSize(r.Cfg.Threshold))
			}
		case pipeline.RouteFallback:
			return func() error { return r.splitInPlaceOne(c.File, tempDir) }
		default:
			return nil
		}
	}

	return pipeline.Run(targets, pipeline.WorkerCounts{Classify: 5, Decide: 2, Execute: 8}, pipeline.Stages{
		Classify: classifyFn,
		Decide:   decideFn,
	})
}

// --- hybrid_split ---

// runHybridSplit reuses the same catalog-density classify step as
// runHybrid (the spec's Stage 1 is shared by both hybrid flavors);
// only the execute side differs, dispatching to split-and-merge
// instead of a catalog rewrite for the primary route.
func (r *Runner) runHybridSplit(targets []string) []error {
	tempDir, err := fsutil.NewTempDir(r.tempRoot())
	if err != nil {
		return []error{err}
	}
	defer r.cleanupTemp(tempDir)

	classifyFn := func(path string) pipeline.Classification {
		outcome, _, err := catalog.Classify(path, r.Detectors, r.Cfg.Threshold, true)
		if err != nil {
			obflog.Error("classify %s: %v", path, err)
			return pipeline.Classification{File: path, Route: pipeline.RouteSkip}
		}
		switch outcome {
		case catalog.Empty:
			return pipeline.Classification{File: path, Route: pipeline.RouteSkip}
		case catalog.Reject:
			return pipeline.Classification{File: path, Route: pipeline.RouteFallback}
		default:
			return pipeline.Classification{File: path, Route: pipeline.RoutePrimary}
		}
	}

	decideFn := func(c pipeline.Classification) func() error {
		switch c.Route {
		case pipeline.RoutePrimary:
			return func() error { return r.splitMergeOne(c.File, tempDir) }
		case pipeline.RouteFallback:
			return func() error { return r.splitInPlaceOne(c.File, tempDir) }
		default:
			return nil
		}
	}

	return pipeline.Run(targets, pipeline.WorkerCounts{Classify: 1, Decide: 1, Execute: 10}, pipeline.Stages{
		Classify: classifyFn,
		Decide:   decideFn,
	})
}

// --- ripgrep ---

func (r *Runner) runRipgrep(targets []string) []error {
	p := pool.New(r.Cfg.PoolType, r.Cfg.Workers, r.Cfg.Serially)
	_, errOut := pool.Map(p, func(path string) (int, error) {
		return 0, r.ripgrepOne(path)
	}, targets)
	return collectErrs(errOut)
}

// ripgrepOne runs one ripgrep --passthru pass per detector, in tier
// order, each reading the previous pass's output. The replacement is
// the fixed token "{{CATEGORY" with no digest and no closing braces —
// a deliberate divergence from the per-literal placeholder contract,
// kept because this variant exists to exercise the external-tool path
// rather than to agree with the other strategies token-for-token.
func (r *Runner) ripgrepOne(path string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}

	current := path
	for i, d := range r.Detectors {
		next := fmt.Sprintf("%s.rg%d.tmp", path, i)
		token := "{{" + string(d.Category)

		out, err := os.Create(next)
		if err != nil {
			return errs.IO("ripgrep", path, err)
		}

		cmd := exec.Command(r.Cfg.RipgrepPath, "--passthru", "--replace", token, d.Pattern(), current)
		var stderr bytes.Buffer
		cmd.Stdout = out
		cmd.Stderr = &stderr
		runErr := cmd.Run()
		out.Close()

		if runErr != nil || stderr.Len() > 0 {
			os.Remove(next)
			return errs.Tool("ripgrep", path, fmt.Errorf("%s: %s", runErr, stderr.String()))
		}
		if current != path {
			os.Remove(current)
		}
		current = next
	}

	if current == path {
		return nil
	}
	if err := os.Chmod(current, mode); err != nil {
		os.Remove(current)
		return errs.IO("ripgrep", path, err)
	}
	if err := os.Rename(current, path); err != nil {
		os.Remove(current)
		return errs.IO("ripgrep", path, err)
	}
	return nil
}
