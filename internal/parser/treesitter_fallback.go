package parser

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// TreeSitterFallback finds a plausible resynchronization offset for
// panic-mode recovery by asking tree-sitter's error-tolerant GLR parser
// where it believes the next well-formed top-level construct starts,
// when type-level panic-mode recovery in the hand-rolled recursive
// descent finds no sync point before EOF (spec.md §4.5's fallback
// tier). It is never
// consulted for anything but recovery: the primary parse tree is always
// the index-overlay arena the recursive descent builds.
//
// Grounded on the teacher's TreeSitterParser Java setup
// (standardbeagle/lci internal/parser/parser_language_setup.go,
// setupJava).
type TreeSitterFallback struct {
	once   sync.Once
	parser *tree_sitter.Parser
	ready  bool
}

// NewTreeSitterFallback constructs a fallback helper. The underlying
// tree-sitter parser is initialized lazily on first use so callers that
// never hit panic mode never pay tree-sitter's setup cost.
func NewTreeSitterFallback() *TreeSitterFallback {
	return &TreeSitterFallback{}
}

func (f *TreeSitterFallback) ensure() {
	f.once.Do(func() {
		p := tree_sitter.NewParser()
		lang := tree_sitter.NewLanguage(tree_sitter_java.Language())
		if err := p.SetLanguage(lang); err != nil {
			return
		}
		f.parser = p
		f.ready = true
	})
}

// ResyncOffsets parses source with tree-sitter and returns the byte
// offsets of every top-level declaration it recognized, in order. The
// recursive-descent recovery path uses the first such offset greater
// than its current cursor position as a resynchronization point when
// its own panic-mode scan (recovery.go) can't find one before EOF.
func (f *TreeSitterFallback) ResyncOffsets(source []byte) []int {
	f.ensure()
	if !f.ready {
		return nil
	}
	tree := f.parser.Parse(source, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	var offsets []int
	count := int(root.ChildCount())
	for i := 0; i < count; i++ {
		child := root.Child(uint(i))
		if child == nil {
			continue
		}
		if isTopLevelDeclarationKind(child.Kind()) {
			offsets = append(offsets, int(child.StartByte()))
		}
	}
	return offsets
}

func isTopLevelDeclarationKind(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return true
	default:
		return false
	}
}

// NextResyncOffset returns the smallest offset in offsets strictly
// greater than after, or -1 if none exists.
func NextResyncOffset(offsets []int, after int) int {
	best := -1
	for _, o := range offsets {
		if o > after && (best == -1 || o < best) {
			best = o
		}
	}
	return best
}
