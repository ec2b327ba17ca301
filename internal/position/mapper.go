// Package position maps byte offsets into a source file to 1-based
// (line, column) pairs and back, via a precomputed line-start index
// (spec.md §1.6).
package position

import "bytes"

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

// Mapper is an immutable offset↔(line,column) index over one source
// file's bytes. Grounded on the teacher's LineScanner/GetLineOffsets/
// GetLineAtOffset (standardbeagle/lci internal/core/line_scanner.go):
// a single forward pass over the source builds a line-start array once,
// and every lookup thereafter is a binary search against it rather than
// a fresh scan.
type Mapper struct {
	source     []byte
	lineStarts []int // byte offset of the first byte of each line (0-based index into this slice, line N is lineStarts[N-1])
}

// New builds a Mapper over source. source is not retained beyond what's
// needed to report per-line text; callers must not mutate it afterward.
func New(source []byte) *Mapper {
	m := &Mapper{source: source}
	m.lineStarts = append(m.lineStarts, 0)
	for i, b := range source {
		if b == '\n' {
			m.lineStarts = append(m.lineStarts, i+1)
		}
	}
	return m
}

// NewFromString is a convenience wrapper for New([]byte(source)).
func NewFromString(source string) *Mapper {
	return New([]byte(source))
}

// LineCount returns the number of lines in the source. A trailing
// newline ends the last line rather than starting an empty one; a source
// with no trailing newline still counts its last partial line.
func (m *Mapper) LineCount() int {
	n := len(m.lineStarts)
	if n > 1 && m.lineStarts[n-1] == len(m.source) {
		n--
	}
	return n
}

// Position converts a 0-based byte offset into a 1-based (line, column)
// pair. Offsets past the end of the source clamp to the last valid
// position. column counts bytes, not runes or grapheme clusters, matching
// the offsets the lexer/arena already use throughout (spec.md §1.6 is
// explicit that column is a byte count, not a display-width calculation).
func (m *Mapper) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(m.source) {
		offset = len(m.source)
	}
	line := m.lineIndexForOffset(offset)
	column := offset - m.lineStarts[line] + 1
	return Position{Line: line + 1, Column: column}
}

// Offset converts a 1-based (line, column) pair back to a 0-based byte
// offset, clamping line/column to the valid range rather than erroring,
// since callers (diagnostics, rule violations) only ever report
// positions derived from real offsets in the first place.
func (m *Mapper) Offset(pos Position) int {
	line := pos.Line
	if line < 1 {
		line = 1
	}
	if line > len(m.lineStarts) {
		line = len(m.lineStarts)
	}
	lineStart := m.lineStarts[line-1]
	lineEnd := len(m.source)
	if line < len(m.lineStarts) {
		lineEnd = m.lineStarts[line]
	}
	column := pos.Column
	if column < 1 {
		column = 1
	}
	offset := lineStart + column - 1
	if offset > lineEnd {
		offset = lineEnd
	}
	return offset
}

// LineText returns the text of the given 1-based line, excluding its
// trailing line terminator.
func (m *Mapper) LineText(line int) string {
	if line < 1 || line > len(m.lineStarts) {
		return ""
	}
	start := m.lineStarts[line-1]
	end := len(m.source)
	if line < len(m.lineStarts) {
		end = m.lineStarts[line] - 1 // back off the '\n' itself
	}
	if end > start && m.source[end-1] == '\r' {
		end--
	}
	return string(m.source[start:end])
}

// lineIndexForOffset returns the 0-based index into lineStarts of the
// line containing offset, via binary search for the largest lineStarts[i]
// <= offset (O(log n), matching the teacher's GetLineAtOffset).
func (m *Mapper) lineIndexForOffset(offset int) int {
	lo, hi := 0, len(m.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// ContainsCRLF reports whether source uses CRLF line endings anywhere.
func (m *Mapper) ContainsCRLF() bool {
	return bytes.Contains(m.source, []byte("\r\n"))
}
