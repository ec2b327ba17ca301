package strategy

import (
	"testing"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/lexer"
	"github.com/standardbeagle/javafmt/internal/parsectx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct{}

func (stubDriver) ParseBlock(ctx *parsectx.Context) (arena.NodeIndex, error) {
	start := ctx.Current().Start
	depth := 0
	for !ctx.AtEOF() {
		tok := ctx.Current()
		if tok.Kind == lexer.KindSeparator && tok.Text == "{" {
			depth++
		}
		if tok.Kind == lexer.KindSeparator && tok.Text == "}" {
			depth--
			ctx.Advance()
			if depth == 0 {
				break
			}
			continue
		}
		ctx.Advance()
	}
	end := ctx.Current().Start
	if ctx.Arena == nil {
		return arena.Null, nil
	}
	return ctx.Arena.AllocateNode(uint32(start), uint32(end-start), arena.NodeBlock, arena.Null)
}

func (stubDriver) ParseStatement(ctx *parsectx.Context) (arena.NodeIndex, error) { return arena.Null, nil }
func (stubDriver) ParseExpression(ctx *parsectx.Context) (arena.NodeIndex, error) { return arena.Null, nil }

func newTestContext(t *testing.T, src string) *parsectx.Context {
	t.Helper()
	ctx := parsectx.New(src, lexer.New(src))
	a, err := arena.Create(32, 0, len(src))
	require.NoError(t, err)
	ctx.AttachArena(a)
	return ctx
}

func TestRegistryResolvesHighestPriorityMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(NewRecordDeclarationStrategy())
	r.Register(NewFlexibleConstructorBodyStrategy())

	ctx := newTestContext(t, "this(1); foo();")
	s := r.Resolve(25, parsectx.PhaseConstructorBody, ctx)
	require.NotNil(t, s)
	assert.Equal(t, PriorityPhaseAware, s.Priority())
}

func TestFlexibleConstructorBodyOnlyInConstructorPhase(t *testing.T) {
	s := NewFlexibleConstructorBodyStrategy()
	ctx := newTestContext(t, "super(1);")

	assert.False(t, s.CanHandle(25, parsectx.PhaseMethodBody, ctx), "outside a constructor, this strategy must not claim the token sequence")
	assert.True(t, s.CanHandle(25, parsectx.PhaseConstructorBody, ctx))
	assert.False(t, s.CanHandle(20, parsectx.PhaseConstructorBody, ctx), "version below MinVersion must not match")
}

func TestFlexibleConstructorBodyParsesExplicitConstructorInvocation(t *testing.T) {
	s := NewFlexibleConstructorBodyStrategy()
	ctx := newTestContext(t, "super(1, 2);")
	idx, err := s.Parse(ctx, stubDriver{})
	require.NoError(t, err)
	rec, err := ctx.Arena.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, arena.NodeExplicitConstructorInvocation, rec.NodeType)
	assert.True(t, ctx.AtEOF())
}

func TestRecordDeclarationStrategyMatchesKeywordRegardlessOfPhase(t *testing.T) {
	s := NewRecordDeclarationStrategy()
	ctx := newTestContext(t, "record Point(int x, int y) {}")
	assert.True(t, s.CanHandle(17, parsectx.PhaseTopLevel, ctx))
	assert.True(t, s.CanHandle(17, parsectx.PhaseClassBody, ctx))

	idx, err := s.Parse(ctx, stubDriver{})
	require.NoError(t, err)
	rec, err := ctx.Arena.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, arena.NodeRecordDeclaration, rec.NodeType)
}

func TestSwitchExpressionStrategyKeywordTriggered(t *testing.T) {
	s := NewSwitchExpressionStrategy()
	ctx := newTestContext(t, "switch (x) { default -> {} }")
	assert.True(t, s.CanHandle(17, parsectx.PhaseMethodBody, ctx))

	idx, err := s.Parse(ctx, stubDriver{})
	require.NoError(t, err)
	rec, err := ctx.Arena.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, arena.NodeSwitchExpression, rec.NodeType)
}

func TestRegistryTieBreakByRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(NewSwitchExpressionStrategy())
	r.Register(NewSwitchExpressionStrategy()) // same priority, registered second

	ctx := newTestContext(t, "switch (x) {}")
	first := r.All()[0]
	resolved := r.Resolve(17, parsectx.PhaseMethodBody, ctx)
	assert.Same(t, first, resolved)
}

func TestNewDefaultRegistryResolvesAllThreeBuiltins(t *testing.T) {
	r := NewDefaultRegistry()
	require.Len(t, r.All(), 3)

	recordCtx := newTestContext(t, "record Point(int x, int y) {}")
	s := r.Resolve(25, parsectx.PhaseClassBody, recordCtx)
	require.NotNil(t, s)
	assert.IsType(t, &RecordDeclarationStrategy{}, s)

	switchCtx := newTestContext(t, "switch (x) { default -> {} }")
	s = r.Resolve(25, parsectx.PhaseMethodBody, switchCtx)
	require.NotNil(t, s)
	assert.IsType(t, &SwitchExpressionStrategy{}, s)

	ctorCtx := newTestContext(t, "this(1); foo();")
	s = r.Resolve(25, parsectx.PhaseConstructorBody, ctorCtx)
	require.NotNil(t, s)
	assert.IsType(t, &FlexibleConstructorBodyStrategy{}, s)
}
