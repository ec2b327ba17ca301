package strategy

import (
	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/lexer"
	"github.com/standardbeagle/javafmt/internal/parsectx"
)

// FlexibleConstructorBodyStrategy recognizes statements preceding an
// explicit super()/this() call as ordinary statements only when the
// parser has entered ConstructorBody (spec.md §4.4 scenario #3, JEP 513
// "flexible constructor bodies", version-gated at 25+). Outside a
// constructor, the identical "super(...)" token sequence is parsed as a
// plain statement by the default statement grammar, never as this
// strategy's ExplicitConstructorInvocation node.
type FlexibleConstructorBodyStrategy struct {
	MinVersion int
}

func NewFlexibleConstructorBodyStrategy() *FlexibleConstructorBodyStrategy {
	return &FlexibleConstructorBodyStrategy{MinVersion: 25}
}

func (s *FlexibleConstructorBodyStrategy) CanHandle(version int, phase parsectx.ParsingPhase, ctx *parsectx.Context) bool {
	if version < s.MinVersion || phase != parsectx.PhaseConstructorBody {
		return false
	}
	t := ctx.Current()
	isSuperOrThis := (t.Kind == lexer.KindKeyword && (t.Text == "super" || t.Text == "this"))
	return isSuperOrThis && ctx.Peek(1).Text == "("
}

func (s *FlexibleConstructorBodyStrategy) Parse(ctx *parsectx.Context, driver Driver) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	ctx.Advance() // 'super' or 'this'
	ctx.Expect(lexer.KindSeparator)
	depth := 1
	for !ctx.AtEOF() && depth > 0 {
		tok := ctx.Current()
		if tok.Kind == lexer.KindSeparator && tok.Text == "(" {
			depth++
		}
		if tok.Kind == lexer.KindSeparator && tok.Text == ")" {
			depth--
			ctx.Advance()
			continue
		}
		ctx.Advance()
	}
	semi, _ := ctx.Expect(lexer.KindSeparator)
	end := semi.End()
	if ctx.Arena == nil {
		return arena.Null, nil
	}
	return ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodeExplicitConstructorInvocation, arena.Null)
}

func (s *FlexibleConstructorBodyStrategy) Priority() int    { return PriorityPhaseAware }
func (s *FlexibleConstructorBodyStrategy) Description() string {
	return "statements may precede an explicit super()/this() call inside a constructor body"
}

// RecordDeclarationStrategy recognizes `record Name(...) {...}` type
// declarations, a construct purely triggered by the "record" contextual
// keyword regardless of the enclosing phase (spec.md §4.4).
type RecordDeclarationStrategy struct{}

func NewRecordDeclarationStrategy() *RecordDeclarationStrategy { return &RecordDeclarationStrategy{} }

func (s *RecordDeclarationStrategy) CanHandle(version int, phase parsectx.ParsingPhase, ctx *parsectx.Context) bool {
	t := ctx.Current()
	if t.Kind != lexer.KindContextualKeyword || t.Text != "record" {
		return false
	}
	next := ctx.Peek(1)
	return next.Kind == lexer.KindIdentifier
}

func (s *RecordDeclarationStrategy) Parse(ctx *parsectx.Context, driver Driver) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	ctx.Advance() // 'record'
	ctx.Advance() // name
	depth := 0
	if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "(" {
		for !ctx.AtEOF() {
			tok := ctx.Current()
			if tok.Kind == lexer.KindSeparator && tok.Text == "(" {
				depth++
			}
			if tok.Kind == lexer.KindSeparator && tok.Text == ")" {
				depth--
				ctx.Advance()
				if depth == 0 {
					break
				}
				continue
			}
			ctx.Advance()
		}
	}
	for ctx.CurrentIsKeyword("implements") {
		for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "{") {
			ctx.Advance()
		}
	}
	end := ctx.Current().Start
	var body arena.NodeIndex = arena.Null
	var err error
	if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "{" {
		body, err = driver.ParseBlock(ctx)
		if err != nil {
			return arena.Null, err
		}
		rec, rerr := ctx.Arena.Get(body)
		if rerr == nil {
			end = int(rec.EndOffset())
		}
	}
	if ctx.Arena == nil {
		return arena.Null, nil
	}
	return ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodeRecordDeclaration, arena.Null)
}

func (s *RecordDeclarationStrategy) Priority() int        { return PriorityKeywordTriggered }
func (s *RecordDeclarationStrategy) Description() string {
	return "record Name(components) declarations, keyword-triggered regardless of phase"
}

// SwitchExpressionStrategy recognizes every `switch` keyword the
// registry is consulted on. Selection is purely keyword-triggered
// (spec.md §4.4): expression and statement forms are not told apart, so
// a switch statement that reaches ParseStatement also becomes a
// SwitchExpression node.
type SwitchExpressionStrategy struct{}

func NewSwitchExpressionStrategy() *SwitchExpressionStrategy { return &SwitchExpressionStrategy{} }

func (s *SwitchExpressionStrategy) CanHandle(version int, phase parsectx.ParsingPhase, ctx *parsectx.Context) bool {
	t := ctx.Current()
	return t.Kind == lexer.KindKeyword && t.Text == "switch"
}

func (s *SwitchExpressionStrategy) Parse(ctx *parsectx.Context, driver Driver) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	ctx.Advance() // 'switch'
	ctx.Expect(lexer.KindSeparator)
	depth := 1
	for !ctx.AtEOF() && depth > 0 {
		tok := ctx.Current()
		if tok.Kind == lexer.KindSeparator && tok.Text == "(" {
			depth++
		}
		if tok.Kind == lexer.KindSeparator && tok.Text == ")" {
			depth--
			ctx.Advance()
			continue
		}
		ctx.Advance()
	}
	body, err := driver.ParseBlock(ctx)
	if err != nil {
		return arena.Null, err
	}
	end := ctx.Current().Start
	if rec, rerr := ctx.Arena.Get(body); rerr == nil {
		end = int(rec.EndOffset())
	}
	idx, err := ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodeSwitchExpression, arena.Null)
	return idx, err
}

func (s *SwitchExpressionStrategy) Priority() int     { return PriorityKeywordTriggered }
func (s *SwitchExpressionStrategy) Description() string {
	return "switch expressions, keyword-triggered and phase-independent"
}
