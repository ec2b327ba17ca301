package builtin

import (
	"fmt"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/rules"
)

const BraceStyleRuleID = "brace-style"

// BraceStyle names an opening-brace placement convention.
type BraceStyle int

const (
	// BraceStyleSameLine (K&R): the opening brace stays on the same
	// line as the declaration/statement header it belongs to.
	BraceStyleSameLine BraceStyle = iota
	// BraceStyleNextLine (Allman): the opening brace starts its own
	// line, indented to match the header.
	BraceStyleNextLine
)

// BraceStyleConfig selects which convention BraceStyleRule enforces.
type BraceStyleConfig struct {
	Style BraceStyle `json:"style"`
}

func (c BraceStyleConfig) RuleID() string { return BraceStyleRuleID }

// braceBearingNodeKinds are the declaration/statement node kinds whose
// span contains exactly one "owned" opening brace worth checking:
// class-like declarations, methods/constructors, and control-flow
// statements. Nested Block nodes are not checked standalone — their
// brace placement is only meaningful relative to the header that
// precedes them, which is exactly the parent node this set already
// covers.
var braceBearingNodeKinds = map[arena.NodeType]bool{
	arena.NodeClassDeclaration:          true,
	arena.NodeInterfaceDeclaration:      true,
	arena.NodeEnumDeclaration:           true,
	arena.NodeRecordDeclaration:         true,
	arena.NodeAnnotationTypeDeclaration: true,
	arena.NodeMethodDeclaration:         true,
	arena.NodeConstructorDeclaration:    true,
	arena.NodeIfStatement:               true,
	arena.NodeForStatement:              true,
	arena.NodeWhileStatement:            true,
	arena.NodeDoStatement:               true,
	arena.NodeTryStatement:              true,
	arena.NodeSwitchStatement:           true,
	arena.NodeSynchronizedStatement:     true,
}

// BraceStyleRule enforces a consistent opening-brace placement
// convention (K&R vs Allman). Grounded on spec.md §4.8's analyze/format
// contract; there is no teacher analogue for a style-formatting rule,
// so the brace-location scan itself is authored directly against the
// arena node spans this parser produces, using
// TransformationContext.InStringLiteral/InTrivia (built per the
// teacher's line-scanner-derived position package) to skip false '{'
// matches inside string/char literals and comments.
type BraceStyleRule struct{}

func NewBraceStyleRule() *BraceStyleRule { return &BraceStyleRule{} }

func (r *BraceStyleRule) ID() string          { return BraceStyleRuleID }
func (r *BraceStyleRule) Name() string        { return "Brace Style" }
func (r *BraceStyleRule) Description() string { return "enforces a consistent opening-brace placement convention" }
func (r *BraceStyleRule) DefaultSeverity() rules.Severity { return rules.SeverityWarning }

func (r *BraceStyleRule) Analyze(ctx *rules.TransformationContext, configs []rules.RuleConfig) ([]rules.FormattingViolation, error) {
	cfg, _ := rules.ResolveConfig(configs, BraceStyleConfig{Style: BraceStyleSameLine})

	var violations []rules.FormattingViolation
	a := ctx.Arena()
	err := walkPreOrder(a, ctx.Root(), func(id arena.NodeIndex) error {
		if err := ctx.CheckDeadline(); err != nil {
			return err
		}
		rec, err := a.Get(id)
		if err != nil {
			return err
		}
		if !braceBearingNodeKinds[rec.NodeType] {
			return nil
		}
		braceOffset, ok := findOwnedBrace(ctx, rec)
		if !ok {
			return nil
		}
		actual := braceStyleAt(ctx.Source(), braceOffset)
		if actual == cfg.Style {
			return nil
		}
		pos := ctx.Position(braceOffset)
		violations = append(violations, rules.FormattingViolation{
			RuleID:      BraceStyleRuleID,
			Severity:    r.DefaultSeverity(),
			Message:     fmt.Sprintf("opening brace does not follow the configured %s style", styleName(cfg.Style)),
			File:        ctx.Path(),
			StartOffset: braceOffset,
			EndOffset:   braceOffset + 1,
			Line:        pos.Line,
			Column:      pos.Column,
			SuggestedFixes: []rules.FixStrategy{{
				Description:     fmt.Sprintf("move brace to match %s style", styleName(cfg.Style)),
				AutoApplicable:  true,
				ReplacementText: replacementFor(ctx.Source(), braceOffset, cfg.Style),
				StartOffset:     whitespaceRunStart(ctx.Source(), braceOffset),
				EndOffset:       braceOffset + 1,
			}},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return violations, nil
}

// Format rewrites every owned opening brace to match the configured
// style. Applied right-to-left over collected fixes so earlier offsets
// stay valid as later ones are rewritten, the same discipline the
// pipeline's Write stage expects from any rule's format output
// (spec.md §4.8: "format... must be deterministic").
func (r *BraceStyleRule) Format(ctx *rules.TransformationContext, configs []rules.RuleConfig) (string, error) {
	violations, err := r.Analyze(ctx, configs)
	if err != nil {
		return "", err
	}
	source := ctx.Source()
	for i := len(violations) - 1; i >= 0; i-- {
		fix := violations[i].SuggestedFixes[0]
		source = source[:fix.StartOffset] + fix.ReplacementText + source[fix.EndOffset:]
	}
	return source, nil
}

func styleName(s BraceStyle) string {
	if s == BraceStyleNextLine {
		return "Allman"
	}
	return "K&R"
}

// findOwnedBrace scans rec's span for the first '{' that is not inside
// a string/char literal, text block, or comment.
func findOwnedBrace(ctx *rules.TransformationContext, rec arena.NodeRecord) (int, bool) {
	source := ctx.Source()
	end := int(rec.EndOffset())
	for i := int(rec.StartOffset); i < end; i++ {
		if source[i] != '{' {
			continue
		}
		if ctx.InTrivia(i) || ctx.InStringLiteral(i) {
			continue
		}
		return i, true
	}
	return 0, false
}

// braceStyleAt classifies the brace at offset by whether a newline
// appears between it and the nearest preceding non-whitespace
// character (Allman) or not (K&R).
func braceStyleAt(source string, offset int) BraceStyle {
	i := offset - 1
	for i >= 0 && (source[i] == ' ' || source[i] == '\t' || source[i] == '\r') {
		i--
	}
	if i >= 0 && source[i] == '\n' {
		return BraceStyleNextLine
	}
	return BraceStyleSameLine
}

// whitespaceRunStart returns the offset of the first whitespace byte in
// the run immediately preceding offset (which may be offset itself if
// there is none), bounded so it never crosses a non-whitespace byte.
func whitespaceRunStart(source string, offset int) int {
	i := offset
	for i > 0 && isHorizontalOrNewlineSpace(source[i-1]) {
		i--
	}
	return i
}

func isHorizontalOrNewlineSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// replacementFor builds the text that should occupy
// [whitespaceRunStart(offset), offset+1) to give the brace at offset
// the requested style: a single space for K&R, or a newline plus the
// indentation of the line containing the preceding non-whitespace
// content for Allman.
func replacementFor(source string, offset int, style BraceStyle) string {
	if style == BraceStyleSameLine {
		return " {"
	}
	lineStart := offset
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	indent := leadingIndent(source[lineStart:])
	return "\n" + indent + "{"
}

func leadingIndent(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}
