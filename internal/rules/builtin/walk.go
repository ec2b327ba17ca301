// Package builtin provides the concrete FormattingRule implementations
// shipped with javafmt: line length, identifier clarity, and brace
// style (spec.md §4.8's rule contract, generalized from the teacher's
// dispatch-table-over-node-type idiom rather than a visitor class
// hierarchy — spec.md §9).
package builtin

import (
	"github.com/standardbeagle/javafmt/internal/arena"
)

// walkPreOrder visits every node reachable from root, root included,
// calling visit(id) before descending into its children. visit may
// call ctx.CheckDeadline semantics upstream; walkPreOrder itself does
// not bound iteration count, so callers with input-dependent loops must
// check the deadline inside visit.
func walkPreOrder(a *arena.Arena, root arena.NodeIndex, visit func(arena.NodeIndex) error) error {
	if root.IsNull() {
		return nil
	}
	if err := visit(root); err != nil {
		return err
	}
	children, err := a.Children(root)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := walkPreOrder(a, c, visit); err != nil {
			return err
		}
	}
	return nil
}
