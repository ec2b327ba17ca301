// Package lexer turns Java source text into a token stream, retaining
// trivia (comments/whitespace/newlines) as first-class tokens rather
// than discarding it (spec.md §4.2).
package lexer

import "fmt"

// Kind is the closed enumeration a Token's kind is drawn from.
type Kind uint8

const (
	KindEOF Kind = iota
	KindIdentifier
	KindKeyword
	KindContextualKeyword
	KindIntLiteral
	KindLongLiteral
	KindFloatLiteral
	KindDoubleLiteral
	KindCharLiteral
	KindStringLiteral
	KindTextBlock
	KindBooleanLiteral
	KindNullLiteral
	KindOperator
	KindSeparator
	KindLineComment
	KindBlockComment
	KindJavadocComment
	KindWhitespace
	KindNewline
	KindInvalid
)

func (k Kind) String() string {
	names := [...]string{
		"EOF", "Identifier", "Keyword", "ContextualKeyword",
		"IntLiteral", "LongLiteral", "FloatLiteral", "DoubleLiteral",
		"CharLiteral", "StringLiteral", "TextBlock", "BooleanLiteral",
		"NullLiteral", "Operator", "Separator", "LineComment",
		"BlockComment", "JavadocComment", "Whitespace", "Newline", "Invalid",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// IsTrivia reports whether k is whitespace/newline/comment.
func (k Kind) IsTrivia() bool {
	switch k {
	case KindLineComment, KindBlockComment, KindJavadocComment, KindWhitespace, KindNewline:
		return true
	default:
		return false
	}
}

// Token is (kind, start_offset, length) per spec.md §3.
type Token struct {
	Kind   Kind
	Start  int
	Length int
	// Text is a convenience substring copy; callers that need zero-copy
	// access can recompute it from the original source and Start/Length.
	Text string
}

// End returns the exclusive end offset of the token.
func (t Token) End() int { return t.Start + t.Length }

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Start)
}

// Keywords is the set of traditional reserved words through Java 25.
var Keywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "class": true,
	"const": true, "continue": true, "default": true, "do": true,
	"double": true, "else": true, "enum": true, "extends": true,
	"final": true, "finally": true, "float": true, "for": true, "goto": true,
	"if": true, "implements": true, "import": true, "instanceof": true,
	"int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true,
	"public": true, "return": true, "short": true, "static": true,
	"strictfp": true, "super": true, "switch": true, "synchronized": true,
	"this": true, "throw": true, "throws": true, "transient": true,
	"try": true, "void": true, "volatile": true, "while": true,
}

// ContextualKeywords are identifiers that act as keywords only in
// specific syntactic positions (spec.md §4.2); the lexer tags them, and
// the parser/strategy registry decides whether the context applies.
// "non-sealed" is never a single token: the lexer has no hyphenated
// identifiers, so it always scans as identifier "non", a "-" operator,
// and the contextual keyword "sealed"; the parser (isNonSealed)
// recognizes that three-token sequence directly.
var ContextualKeywords = map[string]bool{
	"sealed": true, "permits": true, "yield": true,
	"record": true, "var": true, "open": true, "module": true,
	"requires": true, "exports": true, "opens": true, "uses": true,
	"provides": true, "to": true, "with": true, "transitive": true,
}

// BooleanLiterals and the null literal are reserved words, not
// contextual keywords.
var BooleanLiterals = map[string]bool{"true": true, "false": true}
