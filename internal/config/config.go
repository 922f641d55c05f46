// Package config holds the obfuscator's run configuration: the merge of
// an optional .obf.toml file and the CLI flags that override it, with
// CLI flags always winning over the file and the file winning over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// Strategy names accepted by --strategy.
const (
	StrategyInPlace      = "in_place"
	StrategySplitMerge   = "split_merge"
	StrategySplitInPlace = "split_in_place"
	StrategyLowLevel     = "low_level"
	StrategyHybrid       = "hybrid"
	StrategyHybridSplit  = "hybrid_split"
	StrategyRipgrep      = "ripgrep"
)

// Pool type names accepted by --pool-type.
const (
	PoolSerial  = "serial"
	PoolThread  = "thread_pool"
	PoolProcess = "process_pool"
	PoolGreen   = "green"
)

var Strategies = []string{
	StrategyInPlace, StrategySplitMerge, StrategySplitInPlace,
	StrategyLowLevel, StrategyHybrid, StrategyHybridSplit, StrategyRipgrep,
}

var PoolTypes = []string{PoolSerial, PoolThread, PoolProcess, PoolGreen}

const (
	DefaultSalt          = "1234"
	DefaultMinSplitBytes = 5 * 1024 * 1024
	DefaultThreshold     = 200
	DefaultStrategy      = StrategyHybrid
	DefaultPoolType      = PoolProcess
	DefaultReplacer      = "sed -i"
	DefaultSearcher      = "rg -ioe"
	DefaultSorter        = "sort -u"
	DefaultRipgrepPath   = "rg"
	BuiltinIgnoreHint    = "NoObfuscation4Me"
)

// Config is the fully-resolved run configuration, the merge of an
// optional TOML file (File below) and CLI flag overrides.
type Config struct {
	Input               string
	Output              string
	Salt                string
	Workers             int
	Strategy            string
	MinSplitSizeInBytes int64
	RemoveOriginal      bool
	LogFolder           string
	IgnoreHint          string
	MeasureTime         bool
	PoolType            string
	Threshold           int
	Serially            bool
	Verbose             bool
	Debug               bool
	Replacer            string
	Searcher            string
	Sorter              string
	RipgrepPath         string
	ExcludeGlobs        []string
}

// File is the shape of an optional .obf.toml sitting next to the
// input tree; any zero field is left to the CLI default.
type File struct {
	Salt                string `toml:"salt"`
	Workers             int    `toml:"workers"`
	Strategy            string `toml:"strategy"`
	MinSplitSizeInBytes int64  `toml:"min_split_size_in_bytes"`
	Threshold           int    `toml:"threshold"`
	PoolType            string `toml:"pool_type"`
	Replacer            string `toml:"replacer"`
	Searcher            string   `toml:"searcher"`
	Sorter              string   `toml:"sorter"`
	RipgrepPath         string   `toml:"ripgrep_path"`
	ExcludeGlobs        []string `toml:"exclude_globs"`
}

// Default returns a Config carrying every flag's documented default.
func Default() *Config {
	return &Config{
		Salt:                DefaultSalt,
		Workers:             runtime.NumCPU(),
		Strategy:            DefaultStrategy,
		MinSplitSizeInBytes: DefaultMinSplitBytes,
		PoolType:            DefaultPoolType,
		Threshold:           DefaultThreshold,
		Replacer:            DefaultReplacer,
		Searcher:            DefaultSearcher,
		Sorter:              DefaultSorter,
		RipgrepPath:         DefaultRipgrepPath,
	}
}

// LoadFile reads a TOML config sitting next to input (".obf.toml"), if
// present, and merges it field-by-field into base. A missing file is
// not an error: it just means base is returned unchanged.
func LoadFile(inputDir string, base *Config) (*Config, error) {
	candidate := filepath.Join(inputDir, ".obf.toml")
	data, err := os.ReadFile(candidate)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("read %s: %w", candidate, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", candidate, err)
	}

	merged := *base
	if f.Salt != "" {
		merged.Salt = f.Salt
	}
	if f.Workers > 0 {
		merged.Workers = f.Workers
	}
	if f.Strategy != "" {
		merged.Strategy = f.Strategy
	}
	if f.MinSplitSizeInBytes > 0 {
		merged.MinSplitSizeInBytes = f.MinSplitSizeInBytes
	}
	if f.Threshold > 0 {
		merged.Threshold = f.Threshold
	}
	if f.PoolType != "" {
		merged.PoolType = f.PoolType
	}
	if f.Replacer != "" {
		merged.Replacer = f.Replacer
	}
	if f.Searcher != "" {
		merged.Searcher = f.Searcher
	}
	if f.Sorter != "" {
		merged.Sorter = f.Sorter
	}
	if f.RipgrepPath != "" {
		merged.RipgrepPath = f.RipgrepPath
	}
	if len(f.ExcludeGlobs) > 0 {
		merged.ExcludeGlobs = f.ExcludeGlobs
	}
	return &merged, nil
}
