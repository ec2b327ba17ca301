// Command javafmt runs the formatting pipeline over an explicit list of
// Java source files. It wires BatchProcessor over pipeline.FileProcessorPipeline
// and prints the BatchResult/PipelineResult surface from spec.md §6.
//
// It does not implement glob-based file discovery or TOML/KDL config
// *merging* rules — both remain out of scope (spec.md §1); it only
// accepts an explicit path list on the command line, mirroring the
// teacher's cmd/lci/main.go flag/app shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/javafmt/internal/batch"
	"github.com/standardbeagle/javafmt/internal/debug"
	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/memsem"
	"github.com/standardbeagle/javafmt/internal/parser"
	"github.com/standardbeagle/javafmt/internal/pipeline"
	"github.com/standardbeagle/javafmt/internal/rules"
	"github.com/standardbeagle/javafmt/internal/rules/builtin"
	"github.com/standardbeagle/javafmt/internal/security"
	"github.com/standardbeagle/javafmt/internal/strategy"
	"github.com/standardbeagle/javafmt/internal/version"
)

// Exit codes, spec.md §6's taxonomy as consumed by this CLI.
const (
	exitSuccess              = 0
	exitViolationsPresent    = 1
	exitInvalidArguments     = 2
	exitConfigurationError   = 3
	exitSecurityPolicyFailed = 4
	exitIOFailure            = 5
	exitInternalError        = 127
)

func buildRuleSet(c *cli.Context) ([]rules.FormattingRule, map[string][]rules.RuleConfig) {
	ruleSet := []rules.FormattingRule{
		builtin.NewLineLengthRule(),
		builtin.NewIdentifierClarityRule(),
		builtin.NewBraceStyleRule(),
	}

	configs := map[string][]rules.RuleConfig{}
	if maxLen := c.Int("max-line-length"); maxLen > 0 {
		configs[builtin.LineLengthRuleID] = []rules.RuleConfig{builtin.LineLengthConfig{MaxLength: maxLen}}
	}
	if style := c.String("brace-style"); style != "" {
		braceStyle := builtin.BraceStyleSameLine
		if style == "allman" {
			braceStyle = builtin.BraceStyleNextLine
		}
		configs[builtin.BraceStyleRuleID] = []rules.RuleConfig{builtin.BraceStyleConfig{Style: braceStyle}}
	}
	return ruleSet, configs
}

func buildPipeline(limits security.Limits, ruleSet []rules.FormattingRule, configs map[string][]rules.RuleConfig) (*pipeline.FileProcessorPipeline, error) {
	registry := strategy.NewDefaultRegistry()
	langVersion := parser.DefaultLanguageVersion

	pl, err := pipeline.NewBuilder().
		WithParseStage(pipeline.NewDefaultParseStage(registry, langVersion)).
		WithFormatStage(pipeline.NewDefaultFormatStage(ruleSet, configs, limits.Security(), registry, langVersion)).
		WithWriteStage(pipeline.NewDefaultWriteStage(nil)).
		Build()
	if err != nil {
		return nil, err
	}
	return pl, nil
}

type stdoutObserver struct {
	verbose bool
}

func (o stdoutObserver) OnFileComplete(completedSoFar, total int, path string) {
	if o.verbose {
		debug.LogIndexing("processed %d/%d: %s\n", completedSoFar, total, path)
	}
}

func (o stdoutObserver) OnRateSample(filesPerSecond float64) {}

func formatCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("usage: javafmt format <file.java> [file2.java ...]", exitInvalidArguments)
	}

	if c.Bool("verbose") {
		debug.EnableDebug = "true"
		debug.SetDebugOutput(os.Stderr)
	}

	root := c.String("config-dir")
	if root == "" {
		root = "."
	}
	limits, err := security.Load(root)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load security configuration: %v", err), exitConfigurationError)
	}

	ruleSet, configs := buildRuleSet(c)
	pl, err := buildPipeline(limits, ruleSet, configs)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to assemble pipeline: %v", err), exitConfigurationError)
	}
	defer pl.Close()

	mem := memsem.NewMemoryReservationManager(limits.MaxHeapBytes)
	bp := batch.NewBatchProcessor(pl, mem)

	strategyMode := batch.Continue
	if c.Bool("stop-on-first-error") {
		strategyMode = batch.StopOnFirstError
	}

	cfg := batch.ParallelProcessingConfig{
		MaxConcurrency: c.Int("concurrency"),
		ErrorStrategy:  strategyMode,
		Progress:       stdoutObserver{verbose: c.Bool("verbose")},
		FileTimeout:    limits.Timeout,
	}

	result := bp.Process(context.Background(), paths, cfg)
	printBatchResult(result)

	if result.FailureCount > 0 {
		for _, err := range result.Errors {
			if isFileTooLargeForHeap(err) {
				return cli.Exit("", exitSecurityPolicyFailed)
			}
		}
		return cli.Exit("", exitIOFailure)
	}
	return nil
}

// isFileTooLargeForHeap reports whether err is (or wraps) the batch
// package's memsem over-budget failure, which spec.md §6 maps to the
// security/policy exit code rather than a plain I/O failure.
func isFileTooLargeForHeap(err error) bool {
	var batchErr *errs.BatchError
	if errors.As(err, &batchErr) {
		return batchErr.Kind == errs.KindFileTooLargeForHeap
	}
	return false
}

func printBatchResult(result batch.BatchResult) {
	fmt.Printf("processed %d files: %d succeeded, %d failed, %d skipped (%.1f files/sec, %s)\n",
		result.Total, result.SuccessCount, result.FailureCount, result.SkippedCount,
		result.FilesPerSecond, result.Duration.Round(time.Millisecond))

	for path, err := range result.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", path, err)
	}
}

func main() {
	app := &cli.App{
		Name:    "javafmt",
		Usage:   "Format Java source files",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Parse, format, and rewrite the given Java files in place",
				ArgsUsage: "<file.java> [file2.java ...]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Maximum number of files processed concurrently (0 = unbounded)",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-line-length",
						Usage: "Override the line-length rule's maximum (0 = rule default)",
					},
					&cli.StringFlag{
						Name:  "brace-style",
						Usage: "Override the brace-style rule's required style: kr or allman",
					},
					&cli.StringFlag{
						Name:  "config-dir",
						Usage: "Directory to load .javafmt.kdl/.javafmt.toml from",
						Value: ".",
					},
					&cli.BoolFlag{
						Name:  "stop-on-first-error",
						Usage: "Cancel not-yet-started files after the first failure",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Show per-file progress",
					},
				},
				Action: formatCommand,
			},
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	// app.Run's default ExitErrHandler already calls os.Exit with the
	// right code for any cli.Exit(...) returned from an Action; this
	// branch only catches an error that somehow isn't an ExitCoder.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(exitInternalError)
	}
}
