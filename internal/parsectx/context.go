package parsectx

import (
	"fmt"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/lexer"
)

// Input limits from spec.md §4.3.
const (
	MaxSourceBytes = 50 * 1024 * 1024
	MaxSourceChars = 10_000_000
	// DefaultRecursionLimit bounds both PhaseStack depth and general
	// recursive-descent call depth (spec.md §3, §4.3).
	DefaultRecursionLimit = 1000
)

// CheckInputSize enforces spec.md §4.3's pre-parse size check.
func CheckInputSize(source string) error {
	if len(source) > MaxSourceBytes {
		return errs.NewParseError(errs.KindInputTooLarge, 0, 1, 1, "",
			fmt.Sprintf("source is %d bytes, exceeds %d byte limit", len(source), MaxSourceBytes))
	}
	n := 0
	for range source {
		n++
		if n > MaxSourceChars {
			return errs.NewParseError(errs.KindInputTooLarge, 0, 1, 1, "",
				fmt.Sprintf("source exceeds %d character limit", MaxSourceChars))
		}
	}
	return nil
}

// Context is the driver-visible mutable parsing state: cursor, phase
// stack, recursion guard, accumulated errors, the arena the parse
// populates, and the full token stream (trivia included) the lexer
// produced (spec.md §4.3).
type Context struct {
	Source string
	Arena  *arena.Arena

	tokens       []lexer.Token // all tokens, trivia included, source order
	significant  []int         // indices into tokens that are non-trivia
	pos          int           // cursor into significant
	phases       *PhaseStack
	recursion    int
	recursionMax int
	errors       []error
}

// New tokenizes source (via lex) and builds a Context ready to drive a
// recursive-descent parse. CheckInputSize must be called by the caller
// first; New does not re-check it so callers can choose where to
// surface InputTooLarge.
func New(source string, lex *lexer.Lexer) *Context {
	tokens, lexErrs := lex.Tokenize()
	significant := make([]int, 0, len(tokens))
	for i, t := range tokens {
		if !t.Kind.IsTrivia() {
			significant = append(significant, i)
		}
	}
	c := &Context{
		Source:       source,
		tokens:       tokens,
		significant:  significant,
		phases:       NewPhaseStack(),
		recursionMax: DefaultRecursionLimit,
	}
	for _, e := range lexErrs {
		c.errors = append(c.errors, e)
	}
	return c
}

// AttachArena sets the arena this context's parser populates.
func (c *Context) AttachArena(a *arena.Arena) { c.Arena = a }

// AllTokens returns every token, including trivia, in source order.
func (c *Context) AllTokens() []lexer.Token { return c.tokens }

// Errors returns all accumulated parse errors.
func (c *Context) Errors() []error { return c.errors }

// RecordError appends an error to the accumulated list without aborting
// the parse (spec.md §7: parse errors are accumulated, not thrown).
func (c *Context) RecordError(err error) { c.errors = append(c.errors, err) }

// --- Cursor -----------------------------------------------------------

// Peek returns the significant token `offset` positions ahead of the
// cursor (0 = current). Past the end of input it returns the trailing
// EOF token repeatedly.
func (c *Context) Peek(offset int) lexer.Token {
	idx := c.pos + offset
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.significant) {
		return lexer.Token{Kind: lexer.KindEOF, Start: len(c.Source)}
	}
	return c.tokens[c.significant[idx]]
}

// Current returns the token at the cursor.
func (c *Context) Current() lexer.Token { return c.Peek(0) }

// CurrentIs reports whether the current token has kind k.
func (c *Context) CurrentIs(k lexer.Kind) bool { return c.Current().Kind == k }

// CurrentIsKeyword reports whether the current token is the keyword or
// contextual keyword text given.
func (c *Context) CurrentIsKeyword(text string) bool {
	t := c.Current()
	return (t.Kind == lexer.KindKeyword || t.Kind == lexer.KindContextualKeyword) && t.Text == text
}

// Advance consumes and returns the current token, moving the cursor
// forward by one significant token.
func (c *Context) Advance() lexer.Token {
	t := c.Current()
	if c.pos < len(c.significant) {
		c.pos++
	}
	return t
}

// Expect consumes the current token if it has kind k; otherwise it
// records an UnexpectedToken error and returns ok=false without
// advancing, leaving recovery to the caller (spec.md §4.5).
func (c *Context) Expect(k lexer.Kind) (lexer.Token, bool) {
	if c.CurrentIs(k) {
		return c.Advance(), true
	}
	t := c.Current()
	c.RecordError(errs.NewParseError(errs.KindUnexpectedToken, t.Start, 1, 1, t.Text,
		fmt.Sprintf("expected %s, found %s", k, t.Kind)))
	return t, false
}

// Position returns the current cursor index, for backtracking/sync
// point bookkeeping in recovery.
func (c *Context) Position() int { return c.pos }

// SeekTo restores the cursor to a previously observed Position.
func (c *Context) SeekTo(pos int) { c.pos = pos }

// AtEOF reports whether the cursor has consumed every significant token.
func (c *Context) AtEOF() bool { return c.Current().Kind == lexer.KindEOF }

// --- Phases -------------------------------------------------------------

// EnterPhase pushes a new parsing phase onto the stack.
func (c *Context) EnterPhase(p ParsingPhase) { c.phases.Push(p) }

// ExitPhase pops the current parsing phase. Must be paired with
// EnterPhase on every exit path (spec.md §3).
func (c *Context) ExitPhase() { c.phases.Pop() }

// CurrentPhase returns the innermost active phase.
func (c *Context) CurrentPhase() ParsingPhase { return c.phases.Current() }

// InPhase reports whether p is active anywhere on the phase stack.
func (c *Context) InPhase(p ParsingPhase) bool { return c.phases.InPhase(p) }

// --- Recursion guard ------------------------------------------------------

// EnterRecursion increments the recursion depth counter, failing with
// RecursionLimitExceeded if the configured bound (default 1000) would
// be breached (spec.md §3, §4.3).
func (c *Context) EnterRecursion() error {
	if c.recursion >= c.recursionMax {
		return errs.NewParseError(errs.KindRecursionLimit, c.Current().Start, 1, 1, "",
			fmt.Sprintf("recursion depth exceeded limit of %d", c.recursionMax))
	}
	c.recursion++
	return nil
}

// ExitRecursion decrements the recursion depth counter. Must be paired
// with EnterRecursion on every exit path, including failure, via a
// scoped-acquisition discipline (spec.md §4.4):
//
//	if err := ctx.EnterRecursion(); err != nil { return arena.Null, err }
//	defer ctx.ExitRecursion()
func (c *Context) ExitRecursion() {
	if c.recursion > 0 {
		c.recursion--
	}
}

// RecursionDepth returns the current recursion depth.
func (c *Context) RecursionDepth() int { return c.recursion }

// SetRecursionLimit overrides the default recursion bound; intended for
// tests exercising the exactly-at-limit boundary behavior (spec.md §8).
func (c *Context) SetRecursionLimit(n int) { c.recursionMax = n }
