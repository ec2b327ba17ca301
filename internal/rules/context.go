package rules

import (
	"time"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/lexer"
	"github.com/standardbeagle/javafmt/internal/position"
)

// SecurityConfig carries the per-file execution limits a
// TransformationContext enforces. Loaded from KDL/TOML by
// internal/security; exposed here so rules can be built and tested
// independently of that loader.
type SecurityConfig struct {
	// Timeout is the wall-clock budget for one file's rule execution
	// (spec.md §5: "Per-file deadline defaults to a security-config
	// value (e.g., 30s)").
	Timeout time.Duration
}

// DefaultSecurityConfig matches spec.md §5's example default.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{Timeout: 30 * time.Second}
}

// triviaRange is one contiguous [start, end) span of source that a rule
// scanning raw text should treat as non-code: trivia (comments,
// whitespace) or the interior of a string/char/text-block literal.
type triviaRange struct {
	start, end int
	isLiteral  bool
}

// TransformationContext is the read-only, deadline-aware view over one
// parsed file that every FormattingRule receives (spec.md §4.7).
// Grounded on the teacher's ContextLookup family
// (internal/core/context_lookup.go): one precomputed structure computed
// once and shared read-only across many independent consumers, rather
// than each rule re-deriving arena/position/trivia state for itself.
type TransformationContext struct {
	arena    *arena.Arena
	root     arena.NodeIndex
	source   string
	path     string
	security SecurityConfig
	mapper   *position.Mapper
	trivia   []triviaRange // sorted, non-overlapping, by start
	deadline time.Time
}

// New builds a TransformationContext over a parsed file. tokens is the
// full token stream (trivia included) the parser produced; it is used
// once here to build the trivia/string-literal index and then
// discarded — rules query the index, not the token stream directly.
func New(a *arena.Arena, root arena.NodeIndex, source, path string, tokens []lexer.Token, security SecurityConfig) *TransformationContext {
	return &TransformationContext{
		arena:    a,
		root:     root,
		source:   source,
		path:     path,
		security: security,
		mapper:   position.New([]byte(source)),
		trivia:   buildTriviaIndex(tokens),
		deadline: time.Now().Add(security.Timeout),
	}
}

func buildTriviaIndex(tokens []lexer.Token) []triviaRange {
	ranges := make([]triviaRange, 0, len(tokens))
	for _, t := range tokens {
		switch {
		case t.Kind.IsTrivia():
			ranges = append(ranges, triviaRange{start: t.Start, end: t.End()})
		case t.Kind == lexer.KindStringLiteral || t.Kind == lexer.KindCharLiteral || t.Kind == lexer.KindTextBlock:
			ranges = append(ranges, triviaRange{start: t.Start, end: t.End(), isLiteral: true})
		}
	}
	return ranges
}

// Arena returns the read-only arena handle for the parsed file.
func (c *TransformationContext) Arena() *arena.Arena { return c.arena }

// Root returns the CompilationUnit root NodeIndex.
func (c *TransformationContext) Root() arena.NodeIndex { return c.root }

// Source returns the exact text that was parsed.
func (c *TransformationContext) Source() string { return c.source }

// Path returns the file path this context was built for.
func (c *TransformationContext) Path() string { return c.path }

// Security returns the security/deadline configuration in effect.
func (c *TransformationContext) Security() SecurityConfig { return c.security }

// Position converts a 0-based byte offset to a 1-based (line, column).
func (c *TransformationContext) Position(offset int) position.Position {
	return c.mapper.Position(offset)
}

// Offset converts a 1-based (line, column) back to a 0-based byte offset.
func (c *TransformationContext) Offset(pos position.Position) int {
	return c.mapper.Offset(pos)
}

// LineText returns the text of a 1-based source line.
func (c *TransformationContext) LineText(line int) string {
	return c.mapper.LineText(line)
}

// LineCount returns the number of lines in the source.
func (c *TransformationContext) LineCount() int {
	return c.mapper.LineCount()
}

// InTrivia reports whether offset falls inside a comment or whitespace
// run, so a rule scanning raw text can skip it without re-lexing.
func (c *TransformationContext) InTrivia(offset int) bool {
	r, ok := c.rangeContaining(offset)
	return ok && !r.isLiteral
}

// InStringLiteral reports whether offset falls inside a string, char, or
// text-block literal (including its delimiters), so a rule scanning raw
// text for structural characters (braces, semicolons) can skip false
// matches inside literal content.
func (c *TransformationContext) InStringLiteral(offset int) bool {
	r, ok := c.rangeContaining(offset)
	return ok && r.isLiteral
}

func (c *TransformationContext) rangeContaining(offset int) (triviaRange, bool) {
	lo, hi := 0, len(c.trivia)
	for lo < hi {
		mid := (lo + hi) / 2
		if c.trivia[mid].end <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(c.trivia) && c.trivia[lo].start <= offset && offset < c.trivia[lo].end {
		return c.trivia[lo], true
	}
	return triviaRange{}, false
}

// CheckDeadline fails with ExecutionTimeout once wall-clock time has
// passed the configured deadline (spec.md §4.7). Rules must call this
// inside any loop whose bound is input-dependent; cancellation is
// cooperative, there is no preemption (spec.md §5).
func (c *TransformationContext) CheckDeadline() error {
	if time.Now().After(c.deadline) {
		return errs.NewEngineError(errs.KindExecutionTimeout, "", nil)
	}
	return nil
}

// LeadingTrivia returns the trivia run immediately preceding node n's
// start offset, stopping at the first blank line or non-trivia token
// (the "attach forward unless a blank line separates" decision recorded
// in DESIGN.md for spec.md's open comment-attachment question).
func (c *TransformationContext) LeadingTrivia(n arena.NodeIndex) string {
	rec, err := c.arena.Get(n)
	if err != nil {
		return ""
	}
	end := int(rec.StartOffset)
	start := end
	for i := len(c.trivia) - 1; i >= 0; i-- {
		r := c.trivia[i]
		if r.isLiteral || r.end > end {
			continue
		}
		if r.end != start {
			break
		}
		if blankLineWithin(c.source, r.start, r.end) {
			break
		}
		start = r.start
	}
	return c.source[start:end]
}

// TrailingTrivia returns the trivia run immediately following node n's
// end offset, stopping at the first blank line.
func (c *TransformationContext) TrailingTrivia(n arena.NodeIndex) string {
	rec, err := c.arena.Get(n)
	if err != nil {
		return ""
	}
	start := int(rec.EndOffset())
	end := start
	for _, r := range c.trivia {
		if r.isLiteral || r.start < start {
			continue
		}
		if r.start != end {
			break
		}
		if blankLineWithin(c.source, r.start, r.end) {
			break
		}
		end = r.end
	}
	return c.source[start:end]
}

// blankLineWithin reports whether the trivia span [start,end) contains
// two consecutive newlines, i.e. a blank line.
func blankLineWithin(source string, start, end int) bool {
	seenNewline := false
	for i := start; i < end && i < len(source); i++ {
		switch source[i] {
		case '\n':
			if seenNewline {
				return true
			}
			seenNewline = true
		case ' ', '\t', '\r':
			// keep scanning within the same line
		default:
			seenNewline = false
		}
	}
	return false
}
