// Package errs defines the closed error taxonomy shared by the parser,
// arena, rule engine, and pipeline (spec.md §7).
package errs

import (
	"fmt"
	"time"
)

// Kind tags which family of the taxonomy an error belongs to.
type Kind string

const (
	// Parse-time
	KindInputTooLarge        Kind = "input_too_large"
	KindLexError             Kind = "lex_error"
	KindUnexpectedToken      Kind = "unexpected_token"
	KindRecursionLimit       Kind = "recursion_limit_exceeded"
	KindAllocationLimit      Kind = "allocation_limit_exceeded"
	KindInvalidNodeIndex     Kind = "invalid_node_index"
	KindArenaClosed          Kind = "arena_closed"
	KindExecutionTimeout     Kind = "execution_timeout"
	KindInvalidConfiguration Kind = "invalid_configuration"
	KindEmptyPipeline        Kind = "empty_pipeline"
	KindStageTypeMismatch    Kind = "stage_type_mismatch"
	KindStageFailure         Kind = "stage_failure"
	KindEmptyOutput          Kind = "empty_output"
	KindWriteFailed          Kind = "write_failed"
	KindFileTooLargeForHeap  Kind = "file_too_large_for_heap"
	KindBatchCancelled       Kind = "batch_cancelled"
)

// ParseError is a single accumulated lex/parse diagnostic with position.
type ParseError struct {
	Kind      Kind
	Line      int
	Column    int
	Offset    int
	Token     string
	Message   string
	Timestamp time.Time
}

// NewParseError builds a ParseError at the given position.
func NewParseError(kind Kind, offset, line, column int, token, message string) *ParseError {
	return &ParseError{
		Kind:      kind,
		Line:      line,
		Column:    column,
		Offset:    offset,
		Token:     token,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s at %d:%d (near %q): %s", e.Kind, e.Line, e.Column, e.Token, e.Message)
	}
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Column, e.Message)
}

// ArenaError covers InvalidNodeIndex / ArenaClosed / AllocationLimitExceeded.
type ArenaError struct {
	Kind       Kind
	Underlying error
}

func NewArenaError(kind Kind, underlying error) *ArenaError {
	return &ArenaError{Kind: kind, Underlying: underlying}
}

func (e *ArenaError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Underlying)
	}
	return string(e.Kind)
}

func (e *ArenaError) Unwrap() error { return e.Underlying }

// EngineError covers ExecutionTimeout / InvalidConfiguration from the rule engine.
type EngineError struct {
	Kind       Kind
	RuleID     string
	Underlying error
}

func NewEngineError(kind Kind, ruleID string, underlying error) *EngineError {
	return &EngineError{Kind: kind, RuleID: ruleID, Underlying: underlying}
}

func (e *EngineError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("%s in rule %s: %v", e.Kind, e.RuleID, e.Underlying)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Underlying)
}

func (e *EngineError) Unwrap() error { return e.Underlying }

// StageError covers pipeline-level failures: EmptyPipeline,
// StageTypeMismatch, StageFailure, EmptyOutput, WriteFailed.
type StageError struct {
	Kind       Kind
	StageID    string
	Underlying error
}

func NewStageError(kind Kind, stageID string, underlying error) *StageError {
	return &StageError{Kind: kind, StageID: stageID, Underlying: underlying}
}

func (e *StageError) Error() string {
	if e.StageID != "" {
		return fmt.Sprintf("stage %s: %s: %v", e.StageID, e.Kind, e.Underlying)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Underlying)
}

func (e *StageError) Unwrap() error { return e.Underlying }

// BatchError covers FileTooLargeForHeap / BatchCancelled.
type BatchError struct {
	Kind Kind
	Path string
}

func NewBatchError(kind Kind, path string) *BatchError {
	return &BatchError{Kind: kind, Path: path}
}

func (e *BatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return string(e.Kind)
}

// MultiError aggregates zero or more accumulated errors, e.g. best-effort
// parse diagnostics returned alongside a partial tree.
type MultiError struct {
	Errors []error
}

// NewMultiError filters nils and wraps the remainder.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }
