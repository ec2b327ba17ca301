package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/javafmt/internal/parser"
	"github.com/standardbeagle/javafmt/internal/strategy"
)

func parseForTest(t *testing.T, src string) *parser.ParsedFile {
	t.Helper()
	p := parser.NewIndexOverlayParser(strategy.NewRegistry(), parser.DefaultLanguageVersion)
	pf, err := p.Parse(src)
	require.NoError(t, err)
	return pf
}

func TestPositionAndOffsetRoundTrip(t *testing.T) {
	src := "class A {\n    int x;\n}\n"
	pf := parseForTest(t, src)
	defer pf.Arena.Close()

	ctx := New(pf.Arena, pf.Root, pf.Source, "A.java", pf.Tokens, DefaultSecurityConfig())
	pos := ctx.Position(14) // the 'i' of "int"
	assert.Equal(t, 14, ctx.Offset(pos))
}

func TestInStringLiteralSkipsBraceInsideString(t *testing.T) {
	src := `class A { String s = "{"; }`
	pf := parseForTest(t, src)
	defer pf.Arena.Close()

	ctx := New(pf.Arena, pf.Root, pf.Source, "A.java", pf.Tokens, DefaultSecurityConfig())

	braceIdx := -1
	for i, c := range src {
		if c == '{' && i > 0 {
			braceIdx = i
		}
	}
	require.NotEqual(t, -1, braceIdx)
	assert.True(t, ctx.InStringLiteral(braceIdx))
}

func TestInTriviaDetectsComment(t *testing.T) {
	src := "class A { // trailing note\n  int x;\n}"
	pf := parseForTest(t, src)
	defer pf.Arena.Close()

	ctx := New(pf.Arena, pf.Root, pf.Source, "A.java", pf.Tokens, DefaultSecurityConfig())

	commentIdx := indexOf(src, "// trailing note") + 2 // inside the comment body
	assert.True(t, ctx.InTrivia(commentIdx))
	assert.False(t, ctx.InTrivia(indexOf(src, "int")))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestCheckDeadlineFiresAfterTimeout(t *testing.T) {
	pf := parseForTest(t, "class A {}")
	defer pf.Arena.Close()

	ctx := New(pf.Arena, pf.Root, pf.Source, "A.java", pf.Tokens, SecurityConfig{Timeout: 1 * time.Millisecond})
	time.Sleep(5 * time.Millisecond)
	assert.Error(t, ctx.CheckDeadline())
}

func TestLeadingAndTrailingTrivia(t *testing.T) {
	src := "// leading comment\nclass A {}\n// trailing comment\n"
	pf := parseForTest(t, src)
	defer pf.Arena.Close()

	ctx := New(pf.Arena, pf.Root, pf.Source, "A.java", pf.Tokens, DefaultSecurityConfig())

	children, err := pf.Arena.Children(pf.Root)
	require.NoError(t, err)
	require.NotEmpty(t, children)

	classIdx := children[0]
	leading := ctx.LeadingTrivia(classIdx)
	assert.Contains(t, leading, "leading comment")
}
