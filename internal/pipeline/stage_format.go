package pipeline

import (
	"context"
	"fmt"

	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/parser"
	"github.com/standardbeagle/javafmt/internal/rules"
	"github.com/standardbeagle/javafmt/internal/strategy"
)

// DefaultFormatStage runs an ordered list of rules.FormattingRule over a
// parsed file's text, in caller order, with later rules seeing the text
// produced by earlier ones (spec.md §5: "Rule order within format is the
// order given by the caller; later rules see the text produced by
// earlier rules").
//
// Because a rule's Format may rewrite source text (BraceStyleRule does),
// every arena-derived offset the next rule would consult is invalidated
// the moment the text changes underneath it. Rather than diff-patch the
// existing arena in place — a correctness hazard with no teacher
// analogue to ground it on — this stage re-parses the rewritten text
// before handing it to the next rule, keeping each rule's
// TransformationContext accurate at the cost of one extra parse per
// text-changing rule. Rules that return their input unchanged (the
// common case for reporting-only rules) skip the reparse entirely.
type DefaultFormatStage struct {
	rules    []rules.FormattingRule
	configs  map[string][]rules.RuleConfig
	security rules.SecurityConfig
	registry *strategy.Registry
	version  int
}

// NewDefaultFormatStage builds a format stage that applies ruleSet in
// order, resolving each rule's configuration from configs (keyed by
// rule ID).
func NewDefaultFormatStage(ruleSet []rules.FormattingRule, configs map[string][]rules.RuleConfig, security rules.SecurityConfig, registry *strategy.Registry, version int) *DefaultFormatStage {
	return &DefaultFormatStage{rules: ruleSet, configs: configs, security: security, registry: registry, version: version}
}

func (s *DefaultFormatStage) ID() string                  { return "format" }
func (s *DefaultFormatStage) SupportsErrorRecovery() bool { return false }

func (s *DefaultFormatStage) Execute(ctx context.Context, input ParsedFile, pc *ProcessingContext) StageResult[string] {
	select {
	case <-ctx.Done():
		return StageResult[string]{Err: ctx.Err()}
	default:
	}

	source := input.Source
	currentArena := input.Arena
	currentRoot := input.Root
	currentTokens := input.Tokens
	ownsArena := false
	defer func() {
		if ownsArena && currentArena != nil {
			currentArena.Close()
		}
	}()

	for _, rule := range s.rules {
		rctx := rules.New(currentArena, currentRoot, source, input.Path, currentTokens, s.security)
		out, err := rule.Format(rctx, s.configs[rule.ID()])
		if err != nil {
			return StageResult[string]{Err: errs.NewStageError(errs.KindStageFailure, s.ID(), fmt.Errorf("rule %s: %w", rule.ID(), err))}
		}
		if out == source {
			continue
		}

		p := parser.NewIndexOverlayParser(s.registry, s.version)
		reparsed, perr := p.Parse(out)
		if perr != nil {
			return StageResult[string]{Err: errs.NewStageError(errs.KindStageFailure, s.ID(), fmt.Errorf("reparsing after rule %s: %w", rule.ID(), perr))}
		}
		if ownsArena && currentArena != nil {
			currentArena.Close()
		}
		currentArena = reparsed.Arena
		currentRoot = reparsed.Root
		currentTokens = reparsed.Tokens
		ownsArena = true
		source = out
	}

	return StageResult[string]{Output: source}
}
