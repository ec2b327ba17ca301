package parser

import (
	"testing"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser() *IndexOverlayParser {
	r := strategy.NewRegistry()
	r.Register(strategy.NewFlexibleConstructorBodyStrategy())
	r.Register(strategy.NewRecordDeclarationStrategy())
	r.Register(strategy.NewSwitchExpressionStrategy())
	return NewIndexOverlayParser(r, DefaultLanguageVersion)
}

func TestParseSimpleClass(t *testing.T) {
	p := newParser()
	src := `package com.example;

class Greeter {
    private final String name;

    Greeter(String name) {
        this.name = name;
    }

    String greet() {
        return "hello, " + name;
    }
}
`
	pf, err := p.Parse(src)
	require.NoError(t, err)
	defer pf.Arena.Close()

	root, err := pf.Arena.Get(pf.Root)
	require.NoError(t, err)
	assert.Equal(t, arena.NodeCompilationUnit, root.NodeType)

	children, err := pf.Arena.Children(pf.Root)
	require.NoError(t, err)
	require.NotEmpty(t, children)

	var sawPackage, sawClass bool
	for _, c := range children {
		rec, err := pf.Arena.Get(c)
		require.NoError(t, err)
		switch rec.NodeType {
		case arena.NodePackageDeclaration:
			sawPackage = true
		case arena.NodeClassDeclaration:
			sawClass = true
		}
	}
	assert.True(t, sawPackage)
	assert.True(t, sawClass)
}

func TestParseRecordDeclaration(t *testing.T) {
	p := newParser()
	src := `record Point(int x, int y) {}`

	pf, err := p.Parse(src)
	require.NoError(t, err)
	defer pf.Arena.Close()

	children, err := pf.Arena.Children(pf.Root)
	require.NoError(t, err)
	require.Len(t, children, 1)

	rec, err := pf.Arena.Get(children[0])
	require.NoError(t, err)
	assert.Equal(t, arena.NodeRecordDeclaration, rec.NodeType)
}

func TestParseNonSealedClassSkipsModifierSequence(t *testing.T) {
	p := newParser()
	src := `sealed class Shape permits Circle {}
non-sealed class Circle extends Shape {}`

	pf, err := p.Parse(src)
	require.NoError(t, err)
	defer pf.Arena.Close()
	assert.Empty(t, pf.Errors, "non-sealed's non/-/sealed token triple should be skipped as a modifier")

	children, err := pf.Arena.Children(pf.Root)
	require.NoError(t, err)
	require.Len(t, children, 2)

	rec, err := pf.Arena.Get(children[1])
	require.NoError(t, err)
	assert.Equal(t, arena.NodeClassDeclaration, rec.NodeType)
}

func TestParseConstructorWithExplicitInvocation(t *testing.T) {
	p := newParser()
	src := `class Base {
    Base() {}
}
class Derived extends Base {
    Derived() {
        super();
        int x = 1;
    }
}`
	pf, err := p.Parse(src)
	require.NoError(t, err)
	defer pf.Arena.Close()
	assert.Empty(t, pf.Errors, "well-formed input should accumulate no parse errors")
}

func TestParseMalformedTopLevelTokenRecoversAndContinuesAtNextType(t *testing.T) {
	p := newParser()
	src := "class Fine1 { int x; }\n@@@ broken garbage here\nclass Fine2 { int y; }"

	pf, err := p.Parse(src)
	require.NoError(t, err, "malformed input must never abort the parse outright")
	defer pf.Arena.Close()
	require.NotEmpty(t, pf.Errors, "the stray '@@@' sequence must be recorded as a parse error")

	children, err := pf.Arena.Children(pf.Root)
	require.NoError(t, err)

	var names []string
	for _, c := range children {
		rec, rerr := pf.Arena.Get(c)
		require.NoError(t, rerr)
		if rec.NodeType == arena.NodeClassDeclaration {
			names = append(names, src[rec.StartOffset:rec.EndOffset()])
		}
	}
	require.Len(t, names, 2, "recovery should let the parser reach both well-formed classes")
	assert.True(t, contains(names[0], "Fine1"))
	assert.True(t, contains(names[1], "Fine2"))
}

func TestParseRejectsOversizedInput(t *testing.T) {
	p := newParser()
	huge := make([]byte, 51*1024*1024)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := p.Parse(string(huge))
	require.Error(t, err)
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
