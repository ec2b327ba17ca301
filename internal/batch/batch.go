// Package batch implements BatchProcessor: running many files through a
// pipeline.FileProcessorPipeline concurrently, with per-file isolation,
// bounded concurrency, and a serialized progress callback.
//
// Grounded on the teacher's ConcurrentOperationsManager/OperationRegistry
// (internal/indexing/concurrent_operations.go) for the "track active
// operations, enforce a concurrency cap, aggregate a result" shape, and
// on the structured-concurrency pattern the teacher's own test suite
// already uses (internal/mcp/integration_test.go's
// errgroup.WithContext + g.SetLimit(n)) in place of the teacher's
// hand-rolled OperationQueue/QueueProcessor channel machinery.
package batch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/javafmt/internal/memsem"
	"github.com/standardbeagle/javafmt/internal/pipeline"
)

// ErrorStrategy selects how a batch reacts to a per-file failure.
type ErrorStrategy int

const (
	// Continue processes every file regardless of earlier failures.
	Continue ErrorStrategy = iota
	// StopOnFirstError cooperatively cancels not-yet-started files after
	// the first failure; already-running files still complete.
	StopOnFirstError
)

// ProgressObserver receives per-file completion and optional throughput
// samples. OnFileComplete is invoked exactly once per file, after that
// file's terminal outcome, serialized with every other invocation.
// OnRateSample is an additive hook (SPEC_FULL.md §4's supplemented
// progress-rate feature, not present in the original distillation) that
// an observer may no-op.
type ProgressObserver interface {
	OnFileComplete(completedSoFar, total int, path string)
	OnRateSample(filesPerSecond float64)
}

// NoOpObserver implements ProgressObserver with no behavior; embed it to
// satisfy the interface while overriding only the methods you need.
type NoOpObserver struct{}

func (NoOpObserver) OnFileComplete(completedSoFar, total int, path string) {}
func (NoOpObserver) OnRateSample(filesPerSecond float64)                  {}

// ParallelProcessingConfig configures one BatchProcessor.Process call.
type ParallelProcessingConfig struct {
	MaxConcurrency int
	ErrorStrategy  ErrorStrategy
	// SkipPatterns is checked with doublestar.Match against each supplied
	// path inside that file's task, before the file is read; a match
	// yields a Skipped outcome. It is not directory-walking
	// discovery (spec.md §1 keeps that out of scope), just a narrow
	// exclusion filter over paths the caller already chose.
	SkipPatterns []string
	Progress     ProgressObserver
	// FileTimeout sets the Deadline of each file's
	// pipeline.ProcessingContext; zero or negative means 30 seconds.
	FileTimeout time.Duration
}

// FileOutcome is one file's terminal result inside a BatchResult,
// preserving the file's position in the input path list.
type FileOutcome struct {
	Path     string
	Outcome  pipeline.Outcome
	Err      error
	Duration time.Duration
}

// BatchResult is the aggregate the spec requires: counts, total
// duration, throughput, and per-file outcomes in input order.
type BatchResult struct {
	Total          int
	SuccessCount   int
	FailureCount   int
	SkippedCount   int
	Results        []FileOutcome
	Errors         map[string]error
	Duration       time.Duration
	FilesPerSecond float64
}

// BatchProcessor runs paths through a shared pipeline under a memory
// reservation budget.
type BatchProcessor struct {
	pipeline *pipeline.FileProcessorPipeline
	memory   *memsem.MemoryReservationManager
}

// NewBatchProcessor builds a processor over an already-assembled
// pipeline and memory reservation manager; both are shared read-only
// across every file in a batch (spec.md §5's "strategy registry... is
// immutable after construction, shared read-only" guarantee applies
// equally here).
func NewBatchProcessor(pl *pipeline.FileProcessorPipeline, mem *memsem.MemoryReservationManager) *BatchProcessor {
	return &BatchProcessor{pipeline: pl, memory: mem}
}

// Process runs every path in paths through the pipeline, honoring
// cfg.MaxConcurrency and cfg.ErrorStrategy, and returns results in
// input order regardless of completion order.
func (b *BatchProcessor) Process(ctx context.Context, paths []string, cfg ParallelProcessingConfig) BatchResult {
	start := time.Now()
	total := len(paths)
	results := make([]FileOutcome, total)

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(groupCtx)
	if cfg.MaxConcurrency > 0 {
		eg.SetLimit(cfg.MaxConcurrency)
	}

	var progressMu sync.Mutex
	completed := 0

	reportProgress := func(path string) {
		if cfg.Progress == nil {
			return
		}
		progressMu.Lock()
		completed++
		c := completed
		elapsed := time.Since(start).Seconds()
		progressMu.Unlock()

		cfg.Progress.OnFileComplete(c, total, path)
		if elapsed > 0 {
			cfg.Progress.OnRateSample(float64(c) / elapsed)
		}
	}

	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			results[i] = b.processOne(egCtx, path, cfg, cancel)
			reportProgress(path)
			return nil
		})
	}
	_ = eg.Wait()

	return summarize(results, total, start)
}

// processOne handles a single file: skip-pattern filtering, cooperative
// cancellation, memory reservation, and pipeline execution, isolated so
// that nothing it does can affect another file's task.
func (b *BatchProcessor) processOne(ctx context.Context, path string, cfg ParallelProcessingConfig, cancel context.CancelFunc) FileOutcome {
	start := time.Now()

	select {
	case <-ctx.Done():
		return FileOutcome{Path: path, Outcome: pipeline.OutcomeSkipped, Err: ctx.Err(), Duration: time.Since(start)}
	default:
	}

	if matchesAny(cfg.SkipPatterns, path) {
		return FileOutcome{Path: path, Outcome: pipeline.OutcomeSkipped, Duration: time.Since(start)}
	}

	info, err := os.Stat(path)
	if err != nil {
		outcome := FileOutcome{Path: path, Outcome: pipeline.OutcomeFailure, Err: fmt.Errorf("stat %s: %w", path, err), Duration: time.Since(start)}
		b.maybeCancel(cfg, cancel, outcome)
		return outcome
	}

	var reservation *memsem.Reservation
	if b.memory != nil {
		reservation, err = b.memory.Reserve(ctx, path, info.Size())
		if err != nil {
			outcome := FileOutcome{Path: path, Outcome: pipeline.OutcomeFailure, Err: err, Duration: time.Since(start)}
			b.maybeCancel(cfg, cancel, outcome)
			return outcome
		}
		defer reservation.Release()
	}

	timeout := cfg.FileTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	pr := b.pipeline.Process(ctx, path, timeout, nil)
	outcome := FileOutcome{Path: path, Outcome: pr.Outcome, Err: pr.FailureReason, Duration: pr.Duration}
	b.maybeCancel(cfg, cancel, outcome)
	return outcome
}

func (b *BatchProcessor) maybeCancel(cfg ParallelProcessingConfig, cancel context.CancelFunc, outcome FileOutcome) {
	if cfg.ErrorStrategy == StopOnFirstError && outcome.Outcome == pipeline.OutcomeFailure {
		cancel()
	}
}

func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

func summarize(results []FileOutcome, total int, start time.Time) BatchResult {
	res := BatchResult{Total: total, Results: results, Errors: make(map[string]error)}
	for _, r := range results {
		switch r.Outcome {
		case pipeline.OutcomeSuccess:
			res.SuccessCount++
		case pipeline.OutcomeFailure:
			res.FailureCount++
			if r.Err != nil {
				res.Errors[r.Path] = r.Err
			}
		case pipeline.OutcomeSkipped:
			res.SkippedCount++
		}
	}
	res.Duration = time.Since(start)
	if res.Duration > 0 {
		res.FilesPerSecond = float64(total) / res.Duration.Seconds()
	}
	return res
}
