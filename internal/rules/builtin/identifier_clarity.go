package builtin

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/surgebase/porter2"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/rules"
)

const IdentifierClarityRuleID = "identifier-clarity"

// defaultBannedStems are filler words that, once stemmed, rarely carry
// meaning on their own in an identifier (spec.md §4.8's open rule set;
// this list is the rule's own declared default, not a grammar fact).
var defaultBannedStems = []string{"data", "info", "manag", "util", "helper", "thing", "object", "obj", "tmp", "temp"}

// IdentifierClarityConfig customizes the banned-stem list.
type IdentifierClarityConfig struct {
	BannedWords []string `json:"banned_words"`
}

func (c IdentifierClarityConfig) RuleID() string { return IdentifierClarityRuleID }

// declarationNodeKinds are the arena node types IdentifierClarityRule
// inspects for their declared name: classes, methods, fields, and their
// interface/enum/record relatives — the declaration kinds the parser
// actually allocates as named nodes (spec.md's statement/expression
// productions stay opaque spans, so there is no separate identifier
// node to inspect for locals/parameters).
var declarationNodeKinds = map[arena.NodeType]bool{
	arena.NodeClassDeclaration:     true,
	arena.NodeInterfaceDeclaration: true,
	arena.NodeEnumDeclaration:      true,
	arena.NodeRecordDeclaration:    true,
	arena.NodeFieldDeclaration:     true,
	arena.NodeMethodDeclaration:    true,
}

// IdentifierClarityRule flags declared names whose every constituent
// word stems to an entry on the banned-filler list (e.g. "data",
// "manager") — names that carry no domain meaning beyond their type.
// Grounded on the teacher's NameSplitter
// (internal/semantic/name_splitter.go: two-pass camelCase/snake_case
// separator detection then split) for splitWords below, and on
// match_detectors.go's direct `porter2.Stem(word)` calls for word
// normalization before comparing against the banned list.
type IdentifierClarityRule struct{}

func NewIdentifierClarityRule() *IdentifierClarityRule { return &IdentifierClarityRule{} }

func (r *IdentifierClarityRule) ID() string   { return IdentifierClarityRuleID }
func (r *IdentifierClarityRule) Name() string { return "Identifier Clarity" }
func (r *IdentifierClarityRule) Description() string {
	return "flags declared names composed entirely of filler words with no domain meaning"
}
func (r *IdentifierClarityRule) DefaultSeverity() rules.Severity { return rules.SeverityInfo }

func (r *IdentifierClarityRule) Analyze(ctx *rules.TransformationContext, configs []rules.RuleConfig) ([]rules.FormattingViolation, error) {
	cfg, _ := rules.ResolveConfig(configs, IdentifierClarityConfig{BannedWords: defaultBannedStems})
	banned := cfg.BannedWords
	if len(banned) == 0 {
		banned = defaultBannedStems
	}
	bannedStems := make(map[string]bool, len(banned))
	for _, w := range banned {
		bannedStems[porter2.Stem(strings.ToLower(w))] = true
	}

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
		if !declarationNodeKinds[rec.NodeType] {
			return nil
		}
		name := declaredName(ctx.Source(), rec)
		if name == "" {
			return nil
		}
		words := splitWords(name)
		if len(words) == 0 || !allBanned(words, bannedStems) {
			return nil
		}
		violations = append(violations, rules.FormattingViolation{
			RuleID:      IdentifierClarityRuleID,
			Severity:    r.DefaultSeverity(),
			Message:     fmt.Sprintf("identifier %q carries no meaning beyond filler words", name),
			File:        ctx.Path(),
			StartOffset: int(rec.StartOffset),
			EndOffset:   int(rec.EndOffset()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return violations, nil
}

// Format never rewrites: renaming an identifier safely requires
// resolving every use site across the file (and potentially others),
// which is out of this rule's scope — it only reports.
func (r *IdentifierClarityRule) Format(ctx *rules.TransformationContext, configs []rules.RuleConfig) (string, error) {
	return ctx.Source(), nil
}

// declarationKeywordSkip is the set of modifiers/keywords that never
// themselves are the name being declared, used when scanning forward
// from a class-like declaration's start.
var declarationKeywordSkip = map[string]bool{
	"public": true, "private": true, "protected": true, "static": true,
	"final": true, "abstract": true, "class": true, "interface": true,
	"enum": true, "record": true, "sealed": true, "non": true,
}

// declaredName extracts the identifier a declaration node introduces.
// This is a best-effort text scan rather than a true identifier-node
// lookup, matching this parser's choice to keep declarations as eagerly
// allocated spans rather than building a full child-identifier node for
// every declaration (see DESIGN.md's internal/parser entry on opaque
// statement/expression spans).
func declaredName(source string, rec arena.NodeRecord) string {
	span := source[rec.StartOffset:rec.EndOffset()]
	switch rec.NodeType {
	case arena.NodeFieldDeclaration, arena.NodeMethodDeclaration:
		return lastIdentifierBeforeSignatureEnd(span)
	default:
		return firstIdentifierAfterKeyword(span)
	}
}

// firstIdentifierAfterKeyword handles class/interface/enum/record
// declarations, where the declared name immediately follows the
// introducing keyword: "class Fine1 { ... }" -> "Fine1".
func firstIdentifierAfterKeyword(span string) string {
	for _, f := range identifierWords(span) {
		if declarationKeywordSkip[f] {
			continue
		}
		return f
	}
	return ""
}

// lastIdentifierBeforeSignatureEnd handles field and method
// declarations, where everything before the name is a (possibly
// multi-token, possibly generic) type: the name is the last identifier
// word before the parameter list ('(', methods) or the initializer/
// terminator ('=' or ';', fields).
func lastIdentifierBeforeSignatureEnd(span string) string {
	cut := len(span)
	for _, delim := range []byte{'(', '=', ';'} {
		if i := strings.IndexByte(span, delim); i >= 0 && i < cut {
			cut = i
		}
	}
	words := identifierWords(span[:cut])
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

func identifierWords(span string) []string {
	return strings.FieldsFunc(span, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// splitWords splits name on underscores and camelCase/PascalCase
// transitions, mirroring NameSplitter's two-pass detect-then-split
// approach but without its LRU cache (this rule runs once per
// declaration per file, not hot enough to need memoizing).
func splitWords(name string) []string {
	var words []string
	var current strings.Builder
	runes := []rune(name)
	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}
	for i, ch := range runes {
		switch {
		case ch == '_' || ch == '-':
			flush()
		case i > 0 && unicode.IsUpper(ch) && unicode.IsLower(runes[i-1]):
			flush()
			current.WriteRune(ch)
		case i > 1 && unicode.IsUpper(ch) && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush()
			current.WriteRune(ch)
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return words
}

func allBanned(words []string, bannedStems map[string]bool) bool {
	for _, w := range words {
		if !bannedStems[porter2.Stem(w)] {
			return false
		}
	}
	return true
}
