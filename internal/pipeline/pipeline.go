// Package pipeline implements the three-stage (Parse -> Format -> Write)
// per-file processing pipeline: a typed stage chain with arena lifetime
// scoped to exactly one file's pass through it.
//
// Grounded on the teacher's internal/indexing/pipeline.go and
// pipeline_types.go staged scan/parse/index shape, generalized from a
// many-file channel pipeline down to the strict three-stage per-file
// sequence this spec describes; the channel back-pressure machinery
// itself belongs one level up, in package batch.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/lexer"
)

// ParsedFile is the Parse stage's output: a file's parsed arena plus the
// raw material TransformationContext needs to avoid re-lexing.
type ParsedFile struct {
	Path   string
	Source string
	Arena  *arena.Arena
	Root   arena.NodeIndex
	Tokens []lexer.Token
	Errors []error
}

// Outcome classifies a stage's or a whole pipeline run's terminal state.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StageResult is the outcome of a single stage execution.
type StageResult[O any] struct {
	Output     O
	Err        error
	Skipped    bool
	SkipReason string
}

// ProcessingContext is constructed once per file and threaded through
// every stage; it carries the file's deadline and caller-supplied
// options, never mutated after construction.
type ProcessingContext struct {
	Path     string
	Options  map[string]any
	Now      time.Time
	Deadline time.Time
}

// NewProcessingContext builds a context whose deadline is now+timeout.
func NewProcessingContext(path string, now time.Time, timeout time.Duration, options map[string]any) *ProcessingContext {
	return &ProcessingContext{
		Path:     path,
		Options:  options,
		Now:      now,
		Deadline: now.Add(timeout),
	}
}

// Expired reports whether the context's deadline has passed.
func (pc *ProcessingContext) Expired(at time.Time) bool {
	return at.After(pc.Deadline)
}

// ParseStage is Stage<Path, ParsedFile>.
type ParseStage interface {
	ID() string
	SupportsErrorRecovery() bool
	Execute(ctx context.Context, path string, pc *ProcessingContext) StageResult[ParsedFile]
}

// FormatStage is Stage<ParsedFile, string>.
type FormatStage interface {
	ID() string
	SupportsErrorRecovery() bool
	Execute(ctx context.Context, input ParsedFile, pc *ProcessingContext) StageResult[string]
}

// WriteStage is Stage<string, Path>.
type WriteStage interface {
	ID() string
	SupportsErrorRecovery() bool
	Execute(ctx context.Context, content string, pc *ProcessingContext) StageResult[string]
}

// StageOutcome records one stage's terminal state inside a PipelineResult.
type StageOutcome struct {
	StageID  string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

// PipelineResult is the per-file aggregate the spec requires: terminal
// state, processing time, per-stage outcomes, and (while unclosed) a
// handle to the file's arena for optional downstream inspection.
type PipelineResult struct {
	Path           string
	Outcome        Outcome
	FailureStageID string
	FailureReason  error
	Duration       time.Duration
	Stages         []StageOutcome
	Arena          *arena.Arena
}

// Builder assembles a FileProcessorPipeline from its three typed stages.
// Building with none of the three stages set fails with EmptyPipeline;
// building with only some of them set fails with StageTypeMismatch,
// since Parse -> Format -> Write cannot type-check end to end with a gap
// in the chain (the Go compiler already rejects a stage whose input type
// doesn't match the prior stage's output, so the only runtime check left
// to make here is "is the chain complete").
type Builder struct {
	parse  ParseStage
	format FormatStage
	write  WriteStage
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) WithParseStage(s ParseStage) *Builder {
	b.parse = s
	return b
}

func (b *Builder) WithFormatStage(s FormatStage) *Builder {
	b.format = s
	return b
}

func (b *Builder) WithWriteStage(s WriteStage) *Builder {
	b.write = s
	return b
}

// Build assembles the immutable pipeline, or fails.
func (b *Builder) Build() (*FileProcessorPipeline, error) {
	if b.parse == nil && b.format == nil && b.write == nil {
		return nil, errs.NewStageError(errs.KindEmptyPipeline, "", fmt.Errorf("no stages added to builder"))
	}
	if b.parse == nil || b.format == nil || b.write == nil {
		return nil, errs.NewStageError(errs.KindStageTypeMismatch, "", fmt.Errorf("pipeline requires a parse, format, and write stage to type-check end to end"))
	}
	return &FileProcessorPipeline{parse: b.parse, format: b.format, write: b.write}, nil
}

// FileProcessorPipeline is the assembled, immutable three-stage pipeline.
// It is itself a scoped resource: Close marks the pipeline unusable for
// new work.
type FileProcessorPipeline struct {
	parse  ParseStage
	format FormatStage
	write  WriteStage
	closed bool
}

// Close marks the pipeline closed, so later Process calls fail at once.
// It does not call into the stages, so nothing they hold is released,
// and a Process call already running is not interrupted. Safe to call
// more than once.
func (p *FileProcessorPipeline) Close() {
	p.closed = true
}

// Process runs one file through Parse -> Format -> Write, guaranteeing
// the Parse stage's arena is closed on every exit path: success,
// mid-chain failure, or a panic recovered here and re-reported as a
// StageFailure (a file-processing panic must never crash the batch that
// contains it, per spec.md §4.11's isolation guarantee).
func (p *FileProcessorPipeline) Process(ctx context.Context, path string, deadline time.Duration, options map[string]any) (result PipelineResult) {
	start := time.Now()
	result.Path = path

	if p.closed {
		result.Outcome = OutcomeFailure
		result.FailureStageID = "pipeline"
		result.FailureReason = fmt.Errorf("pipeline is closed")
		result.Duration = time.Since(start)
		return result
	}

	pc := NewProcessingContext(path, start, deadline, options)

	var parsedArena *arena.Arena
	defer func() {
		if parsedArena != nil {
			parsedArena.Close()
		}
		if r := recover(); r != nil {
			result.Outcome = OutcomeFailure
			result.FailureStageID = "panic"
			result.FailureReason = errs.NewStageError(errs.KindStageFailure, "panic", fmt.Errorf("panic: %v", r))
			result.Duration = time.Since(start)
		}
	}()

	parseRes := p.parse.Execute(ctx, path, pc)
	result.Stages = append(result.Stages, StageOutcome{StageID: p.parse.ID(), Outcome: outcomeOf(parseRes.Err, parseRes.Skipped), Err: parseRes.Err})
	parsedArena = parseRes.Output.Arena
	result.Arena = parsedArena
	if parseRes.Err != nil {
		result.Outcome = OutcomeFailure
		result.FailureStageID = p.parse.ID()
		result.FailureReason = parseRes.Err
		result.Duration = time.Since(start)
		return result
	}

	formatRes := p.format.Execute(ctx, parseRes.Output, pc)
	result.Stages = append(result.Stages, StageOutcome{StageID: p.format.ID(), Outcome: outcomeOf(formatRes.Err, formatRes.Skipped), Err: formatRes.Err})
	if formatRes.Err != nil {
		result.Outcome = OutcomeFailure
		result.FailureStageID = p.format.ID()
		result.FailureReason = formatRes.Err
		result.Duration = time.Since(start)
		return result
	}

	writeRes := p.write.Execute(ctx, formatRes.Output, pc)
	result.Stages = append(result.Stages, StageOutcome{StageID: p.write.ID(), Outcome: outcomeOf(writeRes.Err, writeRes.Skipped), Err: writeRes.Err})
	if writeRes.Err != nil {
		result.Outcome = OutcomeFailure
		result.FailureStageID = p.write.ID()
		result.FailureReason = writeRes.Err
		result.Duration = time.Since(start)
		return result
	}

	result.Outcome = OutcomeSuccess
	result.Duration = time.Since(start)
	return result
}

func outcomeOf(err error, skipped bool) Outcome {
	switch {
	case err != nil:
		return OutcomeFailure
	case skipped:
		return OutcomeSkipped
	default:
		return OutcomeSuccess
	}
}
