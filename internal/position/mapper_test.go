package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionRoundTripsLFContent(t *testing.T) {
	src := "line1\nline2\nline3\n"
	m := NewFromString(src)

	assert.Equal(t, Position{Line: 1, Column: 1}, m.Position(0))
	assert.Equal(t, Position{Line: 2, Column: 1}, m.Position(6))
	assert.Equal(t, Position{Line: 3, Column: 3}, m.Position(14))
}

func TestPositionClampsOutOfRangeOffsets(t *testing.T) {
	src := "abc\ndef"
	m := NewFromString(src)

	assert.Equal(t, m.Position(len(src)), m.Position(9999))
	assert.Equal(t, Position{Line: 1, Column: 1}, m.Position(-5))
}

func TestOffsetInvertsPosition(t *testing.T) {
	src := "line1\nline2\nline3\n"
	m := NewFromString(src)

	for offset := 0; offset < len(src); offset++ {
		pos := m.Position(offset)
		assert.Equal(t, offset, m.Offset(pos), "offset %d round-tripped through %+v", offset, pos)
	}
}

func TestLineCountHandlesMissingTrailingNewline(t *testing.T) {
	assert.Equal(t, 3, NewFromString("a\nb\nc").LineCount())
	assert.Equal(t, 3, NewFromString("a\nb\nc\n").LineCount())
	assert.Equal(t, 1, NewFromString("single line, no newline").LineCount())
}

func TestLineTextStripsTrailingCRLF(t *testing.T) {
	m := NewFromString("first\r\nsecond\r\nthird")
	assert.Equal(t, "first", m.LineText(1))
	assert.Equal(t, "second", m.LineText(2))
	assert.Equal(t, "third", m.LineText(3))
	assert.Equal(t, "", m.LineText(0))
	assert.Equal(t, "", m.LineText(4))
}

func TestContainsCRLFDetectsMixedEndings(t *testing.T) {
	assert.True(t, NewFromString("a\r\nb\nc").ContainsCRLF())
	assert.False(t, NewFromString("a\nb\nc").ContainsCRLF())
}

func TestPositionOnEmptySource(t *testing.T) {
	m := NewFromString("")
	assert.Equal(t, 1, m.LineCount())
	assert.Equal(t, Position{Line: 1, Column: 1}, m.Position(0))
}
