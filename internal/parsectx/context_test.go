package parsectx

import (
	"strings"
	"testing"

	"github.com/standardbeagle/javafmt/internal/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInputSizeWithinLimit(t *testing.T) {
	require.NoError(t, CheckInputSize("class T {}"))
}

func TestCheckInputSizeExceedsLimit(t *testing.T) {
	huge := strings.Repeat("a", MaxSourceBytes+1)
	err := CheckInputSize(huge)
	require.Error(t, err)
}

func TestContextCursorAndExpect(t *testing.T) {
	src := "class T {}"
	ctx := New(src, lexer.New(src))

	tok, ok := ctx.Expect(lexer.KindKeyword)
	require.True(t, ok)
	assert.Equal(t, "class", tok.Text)

	tok, ok = ctx.Expect(lexer.KindIdentifier)
	require.True(t, ok)
	assert.Equal(t, "T", tok.Text)

	_, ok = ctx.Expect(lexer.KindOperator)
	assert.False(t, ok, "current token is '{' (separator), not an operator")
	require.Len(t, ctx.Errors(), 1)

	tok, ok = ctx.Expect(lexer.KindSeparator)
	require.True(t, ok)
	assert.Equal(t, "{", tok.Text)
}

func TestPhaseStackPushPop(t *testing.T) {
	s := NewPhaseStack()
	assert.Equal(t, PhaseTopLevel, s.Current())
	s.Push(PhaseClassBody)
	s.Push(PhaseConstructorBody)
	assert.Equal(t, PhaseConstructorBody, s.Current())
	assert.True(t, s.InPhase(PhaseClassBody))
	s.Pop()
	assert.Equal(t, PhaseClassBody, s.Current())
	s.Pop()
	assert.Equal(t, PhaseTopLevel, s.Current())
}

func TestPhaseStackUnbalancedPopPanics(t *testing.T) {
	s := NewPhaseStack()
	assert.Panics(t, func() { s.Pop() })
}

func TestRecursionGuardExactlyAtLimitSucceedsOneDeeperFails(t *testing.T) {
	src := "class T {}"
	ctx := New(src, lexer.New(src))
	ctx.SetRecursionLimit(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, ctx.EnterRecursion())
	}
	err := ctx.EnterRecursion()
	require.Error(t, err)

	ctx.ExitRecursion()
	ctx.ExitRecursion()
	ctx.ExitRecursion()
	assert.Equal(t, 0, ctx.RecursionDepth())
}
