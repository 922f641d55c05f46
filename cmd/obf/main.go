// Command obf deterministically replaces IPs, MAC addresses, file
// paths, credential key-value pairs, and port references in log files
// with stable {{TAG-HASH8}} placeholders, via one of seven obfuscation
// strategies.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/obsidian-labs/logobf/internal/cliflags"
	"github.com/obsidian-labs/logobf/internal/config"
	"github.com/obsidian-labs/logobf/internal/errs"
	"github.com/obsidian-labs/logobf/internal/obflog"
	"github.com/obsidian-labs/logobf/internal/strategy"
	"github.com/obsidian-labs/logobf/internal/version"
)

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name: "input", Aliases: []string{"i"},
			Usage:  "file or directory to scrub",
			Action: cliflags.ExistingPath("input"),
		},
		&cli.StringFlag{
			Name: "output", Aliases: []string{"o"},
			Usage: "directory to write scrubbed copies to (default: scrub --input in place)",
		},
		&cli.StringFlag{
			Name: "salt", Aliases: []string{"s"},
			Usage: "placeholder digest salt", Value: config.DefaultSalt,
		},
		&cli.IntFlag{
			Name: "workers", Aliases: []string{"w"},
			Usage: "worker pool size", Value: runtime.NumCPU(),
			Action: cliflags.RangeInt("workers", 1),
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: fmt.Sprintf("one of %v", config.Strategies), Value: config.DefaultStrategy,
		},
		&cli.Int64Flag{
			Name: "min-split-size-in-bytes", Aliases: []string{"m"},
			Usage: "files smaller than this are never split", Value: config.DefaultMinSplitBytes,
		},
		&cli.BoolFlag{
			Name: "remove-original", Aliases: []string{"rm"},
			Usage: "delete the input once its scrubbed parts are merged back",
		},
		&cli.StringFlag{
			Name: "log-folder", Aliases: []string{"log"},
			Usage: "directory the obfuscation_log file is written under",
		},
		&cli.StringFlag{
			Name:  "ignore-hint",
			Usage: "additional regex; a file whose first line matches it is skipped",
		},
		&cli.BoolFlag{
			Name: "measure-time", Aliases: []string{"t"},
			Usage: "log the chosen strategy's elapsed wall time",
		},
		&cli.StringFlag{
			Name:  "pool-type",
			Usage: fmt.Sprintf("one of %v", config.PoolTypes), Value: config.DefaultPoolType,
		},
		&cli.IntFlag{
			Name:  "threshold",
			Usage: "catalog strategy's distinct-literal reject threshold", Value: config.DefaultThreshold,
			Action: cliflags.RangeInt("threshold", 1),
		},
		&cli.BoolFlag{
			Name:  "serially",
			Usage: "force serial execution regardless of --pool-type",
		},
		&cli.BoolFlag{
			Name: "verbose", Aliases: []string{"v"},
			Usage: "raise log verbosity",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "emit DEBUG-level log lines",
		},
		&cli.StringFlag{
			Name: "replacer", Value: config.DefaultReplacer,
			Usage: "external in-place rewriter command (catalog strategy reference contract)",
		},
		&cli.StringFlag{
			Name: "searcher", Value: config.DefaultSearcher,
			Usage: "external literal-searcher command (catalog strategy reference contract)",
		},
		&cli.StringFlag{
			Name: "sorter", Value: config.DefaultSorter,
			Usage: "external sort-unique command (catalog strategy reference contract)",
		},
		&cli.StringFlag{
			Name: "ripgrep-path", Value: config.DefaultRipgrepPath,
			Usage: "rg binary invoked by the ripgrep strategy",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-glob",
			Usage: "doublestar glob pattern to exclude from discovery (repeatable)",
		},
		&cli.BoolFlag{
			Name: "man", Usage: "print a man page and exit", Hidden: true,
		},
	}
}

// resolveConfig merges flag defaults, an optional .obf.toml next to
// --input, and the CLI flags the user actually set, then validates
// the result — the same precedence order cmd/lci's
// loadConfigWithOverrides uses: file overrides defaults, flags
// override the file.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	input := c.String("input")
	if input == "" {
		return nil, errs.Config("input", fmt.Errorf("--input is required"))
	}

	cfg := config.Default()
	cfg.Input = input

	merged, err := config.LoadFile(configDir(input), cfg)
	if err != nil {
		return nil, errs.Config("config-file", err)
	}
	cfg = merged

	cfg.Output = c.String("output")
	if c.IsSet("salt") {
		cfg.Salt = c.String("salt")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("strategy") {
		cfg.Strategy = c.String("strategy")
	}
	if c.IsSet("min-split-size-in-bytes") {
		cfg.MinSplitSizeInBytes = c.Int64("min-split-size-in-bytes")
	}
	cfg.RemoveOriginal = c.Bool("remove-original")
	cfg.LogFolder = c.String("log-folder")
	cfg.IgnoreHint = c.String("ignore-hint")
	cfg.MeasureTime = c.Bool("measure-time")
	if c.IsSet("pool-type") {
		cfg.PoolType = c.String("pool-type")
	}
	if c.IsSet("threshold") {
		cfg.Threshold = c.Int("threshold")
	}
	cfg.Serially = c.Bool("serially")
	cfg.Verbose = c.Bool("verbose")
	cfg.Debug = c.Bool("debug")
	if c.IsSet("replacer") {
		cfg.Replacer = c.String("replacer")
	}
	if c.IsSet("searcher") {
		cfg.Searcher = c.String("searcher")
	}
	if c.IsSet("sorter") {
		cfg.Sorter = c.String("sorter")
	}
	if c.IsSet("ripgrep-path") {
		cfg.RipgrepPath = c.String("ripgrep-path")
	}
	if c.IsSet("exclude-glob") {
		cfg.ExcludeGlobs = c.StringSlice("exclude-glob")
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, withSuggestion(cfg, err)
	}
	return cfg, nil
}

// configDir returns the directory an optional .obf.toml is looked up
// in: input itself when it's a directory, its parent otherwise.
func configDir(input string) string {
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		return filepath.Dir(input)
	}
	return input
}

// withSuggestion appends a "did you mean" hint to an unknown
// --strategy/--pool-type ConfigError, the way the original's argparse
// choices error pointed the caller at the nearest valid value.
func withSuggestion(cfg *config.Config, err error) error {
	var typed *errs.Error
	if !errors.As(err, &typed) {
		return err
	}
	var suggestion string
	switch typed.Operation {
	case "strategy":
		suggestion = cliflags.SuggestOneOf(cfg.Strategy, config.Strategies)
	case "pool-type":
		suggestion = cliflags.SuggestOneOf(cfg.PoolType, config.PoolTypes)
	}
	if suggestion == "" {
		return err
	}
	return fmt.Errorf("%w (%s)", err, suggestion)
}

func run(c *cli.Context) error {
	if c.Bool("man") {
		man, err := c.App.ToMan()
		if err != nil {
			return cli.Exit(fmt.Sprintf("render man page: %v", err), int(strategy.ExitFailure))
		}
		fmt.Fprintln(c.App.Writer, man)
		return nil
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), int(strategy.ExitFailure))
	}

	if err := obflog.Init(cfg.LogFolder, cfg.Verbose, cfg.Debug); err != nil {
		return cli.Exit(err.Error(), int(strategy.ExitFailure))
	}
	defer obflog.Close()

	code, runErr := strategy.New(cfg).Run()
	if code != strategy.ExitSuccess {
		msg := ""
		if runErr != nil {
			msg = runErr.Error()
		}
		return cli.Exit(msg, int(code))
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:    "obf",
		Usage:   "deterministically obfuscate IPs, MAC addresses, paths, credentials, and ports in log files",
		Version: version.FullInfo(),
		Flags:   buildFlags(),
		Action:  run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(strategy.ExitFailure))
	}
}
