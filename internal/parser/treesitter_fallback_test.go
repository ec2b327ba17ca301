package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextResyncOffsetPicksSmallestOffsetAfter(t *testing.T) {
	offsets := []int{5, 40, 12, 100}
	assert.Equal(t, 12, NextResyncOffset(offsets, 10))
	assert.Equal(t, 40, NextResyncOffset(offsets, 12))
	assert.Equal(t, -1, NextResyncOffset(offsets, 100))
}

func TestResyncOffsetsFindsTopLevelDeclarations(t *testing.T) {
	f := NewTreeSitterFallback()
	src := []byte("class A {}\nrecord B(int x) {}\ninterface C {}\n")
	offsets := f.ResyncOffsets(src)
	assert.Len(t, offsets, 3)
}
