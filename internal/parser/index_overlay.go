// IndexOverlayParser is the recursive-descent driver over the
// index-overlay arena (spec.md §4, §4.4): it walks top-level
// declarations, class bodies, statements, and expressions, consulting a
// strategy.Registry at each extension point before falling back to the
// default grammar production.
//
// Grounded on the teacher's TreeSitterParser/CommunityParserRegistry
// split (the teacher's internal/parser/community_parser.go): parsing is
// driven by a small core loop that defers to pluggable, registered
// handlers rather than a monolithic type switch. The teacher's
// tree-sitter-backed TreeSitterParser (the teacher's
// internal/parser/parser.go) is adapted separately as the panic-mode
// recovery fallback in treesitter_fallback.go.
package parser

import (
	"fmt"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/errs"
	"github.com/standardbeagle/javafmt/internal/lexer"
	"github.com/standardbeagle/javafmt/internal/parsectx"
	"github.com/standardbeagle/javafmt/internal/strategy"
)

// DefaultLanguageVersion pins the Java feature-set the parser targets;
// the version gates which strategies CanHandle accepts (spec.md §4.4).
const DefaultLanguageVersion = 25

// ParsedFile is the successful-or-partial output of Parse: a root
// NodeIndex into Arena plus every accumulated parse error, recovered or
// not (spec.md §7: errors never abort the parse; malformed input always
// produces a best-effort tree). Callers own Arena and must Close it.
type ParsedFile struct {
	Root   arena.NodeIndex
	Arena  *arena.Arena
	Errors []error
	// Source is the exact text that was parsed; TransformationContext
	// builds its position mapper and trivia index from this plus Tokens
	// rather than re-lexing.
	Source string
	// Tokens is every token the lexer produced, trivia included, in
	// source order (parsectx.Context.AllTokens()).
	Tokens []lexer.Token
}

// IndexOverlayParser is a single-use, single-goroutine recursive-descent
// driver (spec.md §5: an arena and its parser belong to exactly one
// file's task). It implements strategy.Driver so registered strategies
// can recurse back into the shared block/statement/expression
// productions.
type IndexOverlayParser struct {
	registry *strategy.Registry
	version  int
	recovery *Recovery
	fallback *TreeSitterFallback
}

// NewIndexOverlayParser constructs a parser bound to registry at the
// given language version. A nil registry is treated as empty (no
// pluggable strategies, default grammar only).
func NewIndexOverlayParser(registry *strategy.Registry, version int) *IndexOverlayParser {
	if registry == nil {
		registry = strategy.NewRegistry()
	}
	return &IndexOverlayParser{
		registry: registry,
		version:  version,
		recovery: NewRecovery(),
		fallback: NewTreeSitterFallback(),
	}
}

// Parse tokenizes and parses source into an arena-backed tree, never
// returning a fatal error for malformed Java: structural problems are
// recorded in ParsedFile.Errors and recovered via Recovery so the
// overall tree remains usable (spec.md §4.5, §7). Parse only returns an
// error for conditions that make parsing impossible outright: input
// exceeding the configured size limits, or arena construction failure.
func (p *IndexOverlayParser) Parse(source string) (*ParsedFile, error) {
	if err := parsectx.CheckInputSize(source); err != nil {
		return nil, err
	}
	a, err := arena.CreateForSource(len(source), arena.DefaultMaxBytes)
	if err != nil {
		return nil, err
	}

	ctx := parsectx.New(source, lexer.New(source))
	ctx.AttachArena(a)

	root, err := p.parseCompilationUnit(ctx, source)
	if err != nil {
		a.Close()
		return nil, err
	}

	return &ParsedFile{Root: root, Arena: a, Errors: ctx.Errors(), Source: source, Tokens: ctx.AllTokens()}, nil
}

// parseCompilationUnit parses the top-level sequence of a .java file: an
// optional package declaration, imports, and one or more type
// declarations (spec.md §4.4). Each top-level declaration that fails to
// parse triggers panic-mode recovery to the next sync point rather than
// aborting the whole file.
func (p *IndexOverlayParser) parseCompilationUnit(ctx *parsectx.Context, source string) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	ctx.EnterPhase(parsectx.PhaseTopLevel)
	defer ctx.ExitPhase()

	root, err := ctx.Arena.AllocateNode(uint32(start), 0, arena.NodeCompilationUnit, arena.Null)
	if err != nil {
		return arena.Null, err
	}

	if ctx.CurrentIsKeyword("package") {
		p.parsePackageDeclaration(ctx, root)
	}
	for ctx.CurrentIsKeyword("import") {
		if _, err := p.parseImportDeclaration(ctx, root); err != nil {
			break
		}
	}
	for !ctx.AtEOF() {
		if _, err := p.ParseTypeDeclaration(ctx, root); err != nil {
			failedAt := ctx.Position()
			if p.recovery.PanicModeSync(ctx, SyncTypeLevel) {
				continue
			}
			ctx.SeekTo(failedAt)
			if !p.resyncViaTreeSitter(ctx, source) {
				break
			}
		}
	}

	return root, nil
}

// resyncViaTreeSitter is the last-resort tier of panic-mode recovery
// (spec.md §4.5): when the hand-rolled scan in recovery.go finds no
// in-band resync token before EOF, ask tree-sitter's error-tolerant
// parse for the next top-level declaration it recognized and seek the
// cursor there. Returns false if tree-sitter also finds nothing past
// the current position.
func (p *IndexOverlayParser) resyncViaTreeSitter(ctx *parsectx.Context, source string) bool {
	offsets := p.fallback.ResyncOffsets([]byte(source))
	target := NextResyncOffset(offsets, ctx.Current().Start)
	if target < 0 {
		return false
	}
	for !ctx.AtEOF() && ctx.Current().Start < target {
		ctx.Advance()
	}
	return !ctx.AtEOF()
}

func (p *IndexOverlayParser) parsePackageDeclaration(ctx *parsectx.Context, parent arena.NodeIndex) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	ctx.Advance() // 'package'
	for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == ";") {
		ctx.Advance()
	}
	semi, _ := ctx.Expect(lexer.KindSeparator)
	end := semi.End()
	return ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodePackageDeclaration, parent)
}

func (p *IndexOverlayParser) parseImportDeclaration(ctx *parsectx.Context, parent arena.NodeIndex) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	ctx.Advance() // 'import'
	for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == ";") {
		ctx.Advance()
	}
	semi, ok := ctx.Expect(lexer.KindSeparator)
	if !ok {
		return arena.Null, errs.NewParseError(errs.KindUnexpectedToken, semi.Start, 1, 1, semi.Text, "expected ';' after import")
	}
	end := semi.End()
	return ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodeImportDeclaration, parent)
}

// ParseTypeDeclaration parses one class/interface/enum/record/annotation
// declaration, including leading modifiers, parented under parent. It
// first consults the strategy registry (e.g. RecordDeclarationStrategy)
// so pluggable constructs take priority over the default grammar
// (spec.md §4.4).
func (p *IndexOverlayParser) ParseTypeDeclaration(ctx *parsectx.Context, parent arena.NodeIndex) (arena.NodeIndex, error) {
	if err := ctx.EnterRecursion(); err != nil {
		return arena.Null, err
	}
	defer ctx.ExitRecursion()

	start := ctx.Current().Start
	p.skipModifiersAndAnnotations(ctx)

	if s := p.registry.Resolve(p.version, ctx.CurrentPhase(), ctx); s != nil {
		idx, err := s.Parse(ctx, p)
		if err != nil {
			return arena.Null, err
		}
		if err := ctx.Arena.LinkChildAt(parent, idx); err != nil {
			return arena.Null, err
		}
		return idx, nil
	}

	switch {
	case ctx.CurrentIsKeyword("class"):
		return p.parseClassLikeDeclaration(ctx, start, parent, "class", arena.NodeClassDeclaration)
	case ctx.CurrentIsKeyword("interface"):
		return p.parseClassLikeDeclaration(ctx, start, parent, "interface", arena.NodeInterfaceDeclaration)
	case ctx.CurrentIsKeyword("enum"):
		return p.parseClassLikeDeclaration(ctx, start, parent, "enum", arena.NodeEnumDeclaration)
	case ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "@" && ctx.Peek(1).Text == "interface":
		return p.parseAnnotationTypeDeclaration(ctx, start, parent)
	default:
		t := ctx.Current()
		err := errs.NewParseError(errs.KindUnexpectedToken, t.Start, 1, 1, t.Text,
			fmt.Sprintf("expected a type declaration, found %s %q", t.Kind, t.Text))
		ctx.RecordError(err)
		return arena.Null, err
	}
}

// parseClassLikeDeclaration covers class/interface/enum, which share an
// identical shape down to the body: keyword, name, optional type
// parameters and extends/implements/permits clauses, then a brace body.
func (p *IndexOverlayParser) parseClassLikeDeclaration(ctx *parsectx.Context, start int, parent arena.NodeIndex, keyword string, nodeType arena.NodeType) (arena.NodeIndex, error) {
	ctx.Advance() // keyword
	ctx.Expect(lexer.KindIdentifier)
	p.skipTypeParamsAndExtendsImplements(ctx)

	ctx.EnterPhase(parsectx.PhaseClassBody)
	defer ctx.ExitPhase()

	decl, err := ctx.Arena.AllocateNode(uint32(start), 0, nodeType, parent)
	if err != nil {
		return arena.Null, err
	}
	closeEnd, err := p.parseClassBody(ctx, decl)
	if err != nil {
		return arena.Null, err
	}
	if err := p.finalizeSpan(ctx, decl, uint32(start), uint32(closeEnd-start)); err != nil {
		return arena.Null, err
	}
	return decl, nil
}

// parseClassBody consumes '{' members... '}', recursing into
// ParseTypeDeclaration for nested types, ParseMethodOrField otherwise.
// Returns the offset of the closing brace for span bookkeeping.
func (p *IndexOverlayParser) parseClassBody(ctx *parsectx.Context, parent arena.NodeIndex) (int, error) {
	if _, ok := ctx.Expect(lexer.KindSeparator); !ok { // '{'
		return ctx.Current().Start, nil
	}
	for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "}") {
		if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == ";" {
			ctx.Advance() // stray semicolon between members
			continue
		}
		if _, err := p.ParseMember(ctx, parent); err != nil {
			if !p.recovery.PanicModeSync(ctx, SyncMember) {
				break
			}
		}
	}
	closing, _ := ctx.Expect(lexer.KindSeparator) // '}'
	return closing.End(), nil
}

// ParseMember parses one class member: a nested type declaration, a
// constructor, a field, or a method, distinguished by lookahead (spec.md
// §4.4). The member is parented under parent.
func (p *IndexOverlayParser) ParseMember(ctx *parsectx.Context, parent arena.NodeIndex) (arena.NodeIndex, error) {
	if err := ctx.EnterRecursion(); err != nil {
		return arena.Null, err
	}
	defer ctx.ExitRecursion()

	start := ctx.Current().Start
	modStart := ctx.Position()
	p.skipModifiersAndAnnotations(ctx)

	switch {
	case ctx.CurrentIsKeyword("class"), ctx.CurrentIsKeyword("interface"), ctx.CurrentIsKeyword("enum"):
		ctx.SeekTo(modStart)
		return p.ParseTypeDeclaration(ctx, parent)
	case ctx.CurrentIs(lexer.KindContextualKeyword) && ctx.Current().Text == "record" && ctx.Peek(1).Kind == lexer.KindIdentifier:
		ctx.SeekTo(modStart)
		return p.ParseTypeDeclaration(ctx, parent)
	}

	if ctx.CurrentIs(lexer.KindIdentifier) && ctx.Peek(1).Text == "(" {
		return p.parseConstructorDeclaration(ctx, start, parent)
	}

	return p.parseFieldOrMethod(ctx, start, parent)
}

func (p *IndexOverlayParser) parseConstructorDeclaration(ctx *parsectx.Context, start int, parent arena.NodeIndex) (arena.NodeIndex, error) {
	ctx.Advance() // name
	p.skipParameterList(ctx)
	decl, err := ctx.Arena.AllocateNode(uint32(start), 0, arena.NodeConstructorDeclaration, parent)
	if err != nil {
		return arena.Null, err
	}
	ctx.EnterPhase(parsectx.PhaseConstructorBody)
	body, err := p.ParseBlock(ctx)
	ctx.ExitPhase()
	if err != nil {
		return arena.Null, err
	}
	if err := ctx.Arena.LinkChildAt(decl, body); err != nil {
		return arena.Null, err
	}
	if rec, rerr := ctx.Arena.Get(body); rerr == nil {
		if err := p.finalizeSpan(ctx, decl, uint32(start), rec.EndOffset()-uint32(start)); err != nil {
			return arena.Null, err
		}
	}
	return decl, nil
}

// parseFieldOrMethod disambiguates on whether a '(' follows the
// identifier: methods have a parameter list, fields do not (spec.md
// §4.4; both skip the type token(s) that precede the name).
func (p *IndexOverlayParser) parseFieldOrMethod(ctx *parsectx.Context, start int, parent arena.NodeIndex) (arena.NodeIndex, error) {
	for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && (ctx.Current().Text == ";" || ctx.Current().Text == "{" || ctx.Current().Text == "(")) {
		ctx.Advance()
	}
	if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "(" {
		p.skipParameterList(ctx)
		for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && (ctx.Current().Text == ";" || ctx.Current().Text == "{")) {
			ctx.Advance() // throws clause, if present
		}
		decl, err := ctx.Arena.AllocateNode(uint32(start), 0, arena.NodeMethodDeclaration, parent)
		if err != nil {
			return arena.Null, err
		}
		if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "{" {
			ctx.EnterPhase(parsectx.PhaseMethodBody)
			body, err := p.ParseBlock(ctx)
			ctx.ExitPhase()
			if err != nil {
				return arena.Null, err
			}
			if err := ctx.Arena.LinkChildAt(decl, body); err != nil {
				return arena.Null, err
			}
			if rec, rerr := ctx.Arena.Get(body); rerr == nil {
				if err := p.finalizeSpan(ctx, decl, uint32(start), rec.EndOffset()-uint32(start)); err != nil {
					return arena.Null, err
				}
			}
		} else {
			semi, _ := ctx.Expect(lexer.KindSeparator) // abstract/interface method: ';'
			if err := p.finalizeSpan(ctx, decl, uint32(start), uint32(semi.End()-start)); err != nil {
				return arena.Null, err
			}
		}
		return decl, nil
	}

	// Field declaration, possibly with an initializer.
	for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == ";") {
		ctx.Advance()
	}
	semi, _ := ctx.Expect(lexer.KindSeparator)
	return ctx.Arena.AllocateNode(uint32(start), uint32(semi.End()-start), arena.NodeFieldDeclaration, parent)
}

func (p *IndexOverlayParser) parseAnnotationTypeDeclaration(ctx *parsectx.Context, start int, parent arena.NodeIndex) (arena.NodeIndex, error) {
	ctx.Advance() // '@'
	ctx.Advance() // 'interface'
	ctx.Expect(lexer.KindIdentifier)
	decl, err := ctx.Arena.AllocateNode(uint32(start), 0, arena.NodeAnnotationTypeDeclaration, parent)
	if err != nil {
		return arena.Null, err
	}
	closeEnd, err := p.parseClassBody(ctx, decl)
	if err != nil {
		return arena.Null, err
	}
	if err := p.finalizeSpan(ctx, decl, uint32(start), uint32(closeEnd-start)); err != nil {
		return arena.Null, err
	}
	return decl, nil
}

// ParseBlock implements strategy.Driver: consumes a balanced '{ ... }'
// region, recursing into ParseStatement for each statement inside, and
// returns the Block node. Used both by the default grammar and by
// strategies that need to parse a body (record components' compact
// constructor, switch expression arms, etc.).
func (p *IndexOverlayParser) ParseBlock(ctx *parsectx.Context) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	if _, ok := ctx.Expect(lexer.KindSeparator); !ok { // '{'
		return ctx.Arena.AllocateNode(uint32(start), 0, arena.NodeBlock, arena.Null)
	}

	block, err := ctx.Arena.AllocateNode(uint32(start), 0, arena.NodeBlock, arena.Null)
	if err != nil {
		return arena.Null, err
	}
	for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "}") {
		idx, err := p.ParseStatement(ctx)
		if err != nil {
			if !p.recovery.PanicModeSync(ctx, SyncStatement) {
				break
			}
			continue
		}
		if !idx.IsNull() {
			if err := ctx.Arena.LinkChildAt(block, idx); err != nil {
				return arena.Null, err
			}
		}
	}
	closing, _ := ctx.Expect(lexer.KindSeparator) // '}'
	return block, p.finalizeSpan(ctx, block, uint32(start), uint32(closing.End()-start))
}

// finalizeSpan rewrites a node's span once its true end offset is known
// (allocated eagerly at open-brace time so children can be parented
// under it immediately, per the teacher's append-children-as-you-go
// discipline in arena.Arena.AllocateNode).
func (p *IndexOverlayParser) finalizeSpan(ctx *parsectx.Context, idx arena.NodeIndex, start, length uint32) error {
	return ctx.Arena.SetSpan(idx, start, length)
}

// ParseStatement implements strategy.Driver. It first consults the
// strategy registry (e.g. SwitchExpressionStrategy used as a statement),
// then falls back to the default statement grammar dispatched on the
// leading keyword or token shape (spec.md §4.4).
func (p *IndexOverlayParser) ParseStatement(ctx *parsectx.Context) (arena.NodeIndex, error) {
	if err := ctx.EnterRecursion(); err != nil {
		return arena.Null, err
	}
	defer ctx.ExitRecursion()

	if s := p.registry.Resolve(p.version, ctx.CurrentPhase(), ctx); s != nil {
		return s.Parse(ctx, p)
	}

	start := ctx.Current().Start
	t := ctx.Current()

	switch {
	case t.Kind == lexer.KindSeparator && t.Text == "{":
		return p.ParseBlock(ctx)
	case t.Kind == lexer.KindKeyword && (t.Text == "if" || t.Text == "for" || t.Text == "while" || t.Text == "do" ||
		t.Text == "try" || t.Text == "switch" || t.Text == "return" || t.Text == "throw" ||
		t.Text == "break" || t.Text == "continue" || t.Text == "synchronized" || t.Text == "assert"):
		return p.parseControlStatement(ctx, start, t.Text)
	default:
		return p.parseExpressionStatement(ctx, start)
	}
}

// parseControlStatement consumes a keyword-led statement by skipping
// its header (balanced parens, if present) and recursing into its
// substatement(s)/block. The formatter's rule engine only needs
// accurate node boundaries and trivia, not full control-flow structure
// (spec.md Non-goals), so branches are not individually modeled beyond
// what NodeType distinguishes.
func (p *IndexOverlayParser) parseControlStatement(ctx *parsectx.Context, start int, keyword string) (arena.NodeIndex, error) {
	ctx.Advance() // keyword
	nodeType := controlStatementNodeType(keyword)

	if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "(" {
		p.skipParenthesized(ctx)
	}

	stmt, err := ctx.Arena.AllocateNode(uint32(start), 0, nodeType, arena.Null)
	if err != nil {
		return arena.Null, err
	}

	switch keyword {
	case "return", "throw", "break", "continue", "assert":
		for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == ";") {
			ctx.Advance()
		}
		semi, _ := ctx.Expect(lexer.KindSeparator)
		return stmt, p.finalizeSpan(ctx, stmt, uint32(start), uint32(semi.End()-start))
	case "do":
		body, err := p.ParseStatement(ctx)
		if err != nil {
			return arena.Null, err
		}
		if err := ctx.Arena.LinkChildAt(stmt, body); err != nil {
			return arena.Null, err
		}
		if ctx.CurrentIsKeyword("while") {
			ctx.Advance()
			if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "(" {
				p.skipParenthesized(ctx)
			}
		}
		semi, _ := ctx.Expect(lexer.KindSeparator)
		return stmt, p.finalizeSpan(ctx, stmt, uint32(start), uint32(semi.End()-start))
	default:
		if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "{" {
			body, err := p.ParseBlock(ctx)
			if err != nil {
				return arena.Null, err
			}
			if err := ctx.Arena.LinkChildAt(stmt, body); err != nil {
				return arena.Null, err
			}
		} else if !ctx.AtEOF() {
			body, err := p.ParseStatement(ctx)
			if err != nil {
				return arena.Null, err
			}
			if err := ctx.Arena.LinkChildAt(stmt, body); err != nil {
				return arena.Null, err
			}
		}
		if keyword == "if" && ctx.CurrentIsKeyword("else") {
			ctx.Advance()
			elseBody, err := p.ParseStatement(ctx)
			if err != nil {
				return arena.Null, err
			}
			if err := ctx.Arena.LinkChildAt(stmt, elseBody); err != nil {
				return arena.Null, err
			}
		}
		if keyword == "try" {
			for ctx.CurrentIsKeyword("catch") {
				ctx.Advance()
				if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "(" {
					p.skipParenthesized(ctx)
				}
				body, err := p.ParseBlock(ctx)
				if err != nil {
					return arena.Null, err
				}
				if err := ctx.Arena.LinkChildAt(stmt, body); err != nil {
					return arena.Null, err
				}
			}
			if ctx.CurrentIsKeyword("finally") {
				ctx.Advance()
				body, err := p.ParseBlock(ctx)
				if err != nil {
					return arena.Null, err
				}
				if err := ctx.Arena.LinkChildAt(stmt, body); err != nil {
					return arena.Null, err
				}
			}
		}
		end := ctx.Current().Start
		return stmt, p.finalizeSpan(ctx, stmt, uint32(start), uint32(end-start))
	}
}

func controlStatementNodeType(keyword string) arena.NodeType {
	switch keyword {
	case "if":
		return arena.NodeIfStatement
	case "for":
		return arena.NodeForStatement
	case "while":
		return arena.NodeWhileStatement
	case "do":
		return arena.NodeDoStatement
	case "try":
		return arena.NodeTryStatement
	case "switch":
		return arena.NodeSwitchStatement
	case "return":
		return arena.NodeReturnStatement
	case "throw":
		return arena.NodeThrowStatement
	case "break":
		return arena.NodeBreakStatement
	case "continue":
		return arena.NodeContinueStatement
	case "synchronized":
		return arena.NodeSynchronizedStatement
	case "assert":
		return arena.NodeAssertStatement
	default:
		return arena.NodeErrorNode
	}
}

// parseExpressionStatement covers both bare expression statements and
// local variable declarations, which share the same leading-token
// ambiguity in Java's grammar; both end at the first top-level ';'.
func (p *IndexOverlayParser) parseExpressionStatement(ctx *parsectx.Context, start int) (arena.NodeIndex, error) {
	depth := 0
	for !ctx.AtEOF() {
		t := ctx.Current()
		if t.Kind == lexer.KindSeparator && (t.Text == "(" || t.Text == "{" || t.Text == "[") {
			depth++
		}
		if t.Kind == lexer.KindSeparator && (t.Text == ")" || t.Text == "}" || t.Text == "]") {
			depth--
		}
		if depth <= 0 && t.Kind == lexer.KindSeparator && t.Text == ";" {
			break
		}
		ctx.Advance()
	}
	semi, ok := ctx.Expect(lexer.KindSeparator)
	end := semi.End()
	if !ok {
		end = ctx.Current().Start
	}
	return ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodeExpressionStatement, arena.Null)
}

// ParseExpression implements strategy.Driver by consuming tokens up to
// the next statement-ending ';', ')', ',', or '}' at depth 0. A full
// precedence-climbing expression grammar is out of scope: the formatter
// only needs expression node boundaries for trivia attachment and line-
// length measurement (spec.md Non-goals: no expression evaluation or
// type checking).
func (p *IndexOverlayParser) ParseExpression(ctx *parsectx.Context) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	depth := 0
	for !ctx.AtEOF() {
		t := ctx.Current()
		if t.Kind == lexer.KindSeparator && (t.Text == "(" || t.Text == "[") {
			depth++
		}
		if t.Kind == lexer.KindSeparator && (t.Text == ")" || t.Text == "]") {
			if depth == 0 {
				break
			}
			depth--
		}
		if depth == 0 && t.Kind == lexer.KindSeparator && (t.Text == ";" || t.Text == "," || t.Text == "}") {
			break
		}
		ctx.Advance()
	}
	end := ctx.Current().Start
	return ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodeExpressionStatement, arena.Null)
}

func (p *IndexOverlayParser) skipParameterList(ctx *parsectx.Context) {
	if !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "(") {
		return
	}
	p.skipParenthesized(ctx)
}

func (p *IndexOverlayParser) skipParenthesized(ctx *parsectx.Context) {
	depth := 0
	for !ctx.AtEOF() {
		t := ctx.Current()
		if t.Kind == lexer.KindSeparator && t.Text == "(" {
			depth++
		}
		if t.Kind == lexer.KindSeparator && t.Text == ")" {
			depth--
			ctx.Advance()
			if depth == 0 {
				return
			}
			continue
		}
		ctx.Advance()
	}
}

// skipTypeParamsAndExtendsImplements consumes an optional <T, ...>
// parameter list and any extends/implements/permits clauses up to the
// opening '{' of the body, without building nodes for them: the
// formatter's rule engine operates on whitespace/brace placement, not
// the generic type graph (spec.md Non-goals: no type resolution).
func (p *IndexOverlayParser) skipTypeParamsAndExtendsImplements(ctx *parsectx.Context) {
	if ctx.CurrentIs(lexer.KindOperator) && ctx.Current().Text == "<" {
		depth := 0
		for !ctx.AtEOF() {
			t := ctx.Current()
			if t.Kind == lexer.KindOperator && t.Text == "<" {
				depth++
			}
			if t.Kind == lexer.KindOperator && t.Text == ">" {
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
	for !ctx.AtEOF() && !(ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "{") {
		ctx.Advance()
	}
}

// skipModifiersAndAnnotations consumes a leading run of modifier
// keywords and annotation uses (spec.md §4.4). It stops before an
// "@interface" sequence so callers can still dispatch that to
// parseAnnotationTypeDeclaration.
func (p *IndexOverlayParser) skipModifiersAndAnnotations(ctx *parsectx.Context) {
	for {
		t := ctx.Current()
		if t.Kind == lexer.KindSeparator && t.Text == "@" {
			if ctx.Peek(1).Text == "interface" {
				return
			}
			p.skipAnnotationUse(ctx)
			continue
		}
		if isNonSealed(ctx) {
			ctx.Advance() // "non"
			ctx.Advance() // "-"
			ctx.Advance() // "sealed"
			continue
		}
		if isModifierKeyword(t) {
			ctx.Advance()
			continue
		}
		return
	}
}

// isNonSealed reports whether ctx sits at the three-token "non" "-"
// "sealed" sequence the lexer produces for the non-sealed modifier
// (lexer/token.go's ContextualKeywords doc comment): an identifier
// "non", a "-" operator, and the "sealed" contextual keyword, with no
// whitespace asserted between them by the token stream itself but none
// permitted by the language grammar either.
func isNonSealed(ctx *parsectx.Context) bool {
	t := ctx.Current()
	if t.Kind != lexer.KindIdentifier || t.Text != "non" {
		return false
	}
	op := ctx.Peek(1)
	if op.Kind != lexer.KindOperator || op.Text != "-" {
		return false
	}
	sealed := ctx.Peek(2)
	return sealed.Kind == lexer.KindContextualKeyword && sealed.Text == "sealed"
}

// skipAnnotationUse consumes "@Name[.Qualified][(args)]" without
// building a node for it: the formatter's rule engine operates on
// whitespace/brace placement, not the annotation's own argument
// structure (spec.md Non-goals).
func (p *IndexOverlayParser) skipAnnotationUse(ctx *parsectx.Context) {
	ctx.Advance() // '@'
	if _, ok := ctx.Expect(lexer.KindIdentifier); ok {
		for ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "." && ctx.Peek(1).Kind == lexer.KindIdentifier {
			ctx.Advance() // '.'
			ctx.Advance() // qualified name part
		}
	}
	if ctx.CurrentIs(lexer.KindSeparator) && ctx.Current().Text == "(" {
		p.skipParenthesized(ctx)
	}
}

func isModifierKeyword(t lexer.Token) bool {
	if t.Kind != lexer.KindKeyword && t.Kind != lexer.KindContextualKeyword {
		return false
	}
	switch t.Text {
	case "public", "private", "protected", "static", "final", "abstract",
		"synchronized", "native", "strictfp", "transient", "volatile",
		"default", "sealed":
		return true
	}
	return false
}
