package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/parser"
	"github.com/standardbeagle/javafmt/internal/strategy"
)

// DefaultParseStage reads a file from disk and runs it through
// IndexOverlayParser, matching this spec's "Parse errors are
// accumulated, not thrown" propagation policy: a read failure or an
// arena/recursion-limit failure aborts with Err set, but a parse that
// merely accumulated diagnostics still returns a populated ParsedFile
// with Err nil and Errors non-empty.
type DefaultParseStage struct {
	registry *strategy.Registry
	version  int
}

// NewDefaultParseStage builds a parse stage targeting the given
// registry/language version (parser.DefaultLanguageVersion is the usual
// choice).
func NewDefaultParseStage(registry *strategy.Registry, version int) *DefaultParseStage {
	return &DefaultParseStage{registry: registry, version: version}
}

func (s *DefaultParseStage) ID() string                  { return "parse" }
func (s *DefaultParseStage) SupportsErrorRecovery() bool { return false }

func (s *DefaultParseStage) Execute(ctx context.Context, path string, pc *ProcessingContext) StageResult[ParsedFile] {
	select {
	case <-ctx.Done():
		return StageResult[ParsedFile]{Err: ctx.Err()}
	default:
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return StageResult[ParsedFile]{Err: errs.NewStageError(errs.KindStageFailure, s.ID(), fmt.Errorf("reading %s: %w", path, err))}
	}

	p := parser.NewIndexOverlayParser(s.registry, s.version)
	pf, err := p.Parse(string(content))
	if err != nil {
		return StageResult[ParsedFile]{Err: errs.NewStageError(errs.KindStageFailure, s.ID(), err)}
	}

	return StageResult[ParsedFile]{Output: ParsedFile{
		Path:   path,
		Source: pf.Source,
		Arena:  pf.Arena,
		Root:   pf.Root,
		Tokens: pf.Tokens,
		Errors: pf.Errors,
	}}
}
