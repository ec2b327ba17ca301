package builtin

import (
	"github.com/standardbeagle/javafmt/internal/position"
	"github.com/standardbeagle/javafmt/internal/rules"
)

const defaultMaxLineLength = 120

// LineLengthConfig bounds how long a formatted source line may be
// before LineLengthRule reports a violation.
type LineLengthConfig struct {
	MaxLength int `json:"max_length"`
}

func (c LineLengthConfig) RuleID() string { return LineLengthRuleID }

// LineLengthRule flags lines whose byte length exceeds a configured
// maximum. It is the simplest of the built-in rules: a pure text scan
// using TransformationContext's position mapper, no arena walk needed.
// Grounded on spec.md §4.8's contract directly; there is no teacher
// analogue for a style-linting rule, so this is authored against the
// spec alone, in the same stateless-rule shape every other rule here
// follows.
type LineLengthRule struct{}

const LineLengthRuleID = "line-length"

func NewLineLengthRule() *LineLengthRule { return &LineLengthRule{} }

func (r *LineLengthRule) ID() string          { return LineLengthRuleID }
func (r *LineLengthRule) Name() string        { return "Line Length" }
func (r *LineLengthRule) Description() string { return "flags source lines longer than the configured maximum" }
func (r *LineLengthRule) DefaultSeverity() rules.Severity { return rules.SeverityWarning }

func (r *LineLengthRule) Analyze(ctx *rules.TransformationContext, configs []rules.RuleConfig) ([]rules.FormattingViolation, error) {
	cfg, _ := rules.ResolveConfig(configs, LineLengthConfig{MaxLength: defaultMaxLineLength})
	maxLen := cfg.MaxLength
	if maxLen <= 0 {
		maxLen = defaultMaxLineLength
	}

	var violations []rules.FormattingViolation
	for line := 1; line <= ctx.LineCount(); line++ {
		if err := ctx.CheckDeadline(); err != nil {
			return nil, err
		}
		text := ctx.LineText(line)
		if len(text) <= maxLen {
			continue
		}
		start := ctx.Offset(position.Position{Line: line, Column: 1})
		end := start + len(text)
		violations = append(violations, rules.FormattingViolation{
			RuleID:      LineLengthRuleID,
			Severity:    r.DefaultSeverity(),
			Message:     "line exceeds maximum length",
			File:        ctx.Path(),
			StartOffset: start,
			EndOffset:   end,
			Line:        line,
			Column:      maxLen + 1,
			SuggestedFixes: []rules.FixStrategy{{
				Description:    "manually wrap this line",
				AutoApplicable: false,
				StartOffset:    start,
				EndOffset:      end,
			}},
		})
	}
	return violations, nil
}

// Format is the identity transformation: line length is a reporting-only
// rule with no automatic fix (wrapping a line safely requires knowing
// the Java grammar around the break point, which is left to a future,
// more specialized rule).
func (r *LineLengthRule) Format(ctx *rules.TransformationContext, configs []rules.RuleConfig) (string, error) {
	return ctx.Source(), nil
}
