// Package strategy implements the pluggable, priority-ranked parse
// dispatch described in spec.md §4.4: at each decision point the parser
// asks the registry for the highest-priority Strategy whose can_handle
// predicate matches the current (version, phase, next-token) state.
//
// Grounded on the teacher's CommunityParserRegistry
// (standardbeagle/lci internal/parser/community_parser.go), which
// already resolves among pluggable per-language handlers through a
// registered-order lookup rather than a type switch.
package strategy

import (
	"sort"

	"github.com/standardbeagle/javafmt/internal/arena"
	"github.com/standardbeagle/javafmt/internal/parsectx"
)

// Priority tiers from spec.md §4.4.
const (
	PriorityPhaseAware      = 15
	PriorityKeywordTriggered = 10
)

// Driver is the minimal surface a Strategy needs from the parser to
// recurse back into shared grammar productions (e.g. parsing a block),
// implemented by parser.IndexOverlayParser. Kept as an interface here so
// strategy has no import-cycle dependency on the parser package.
type Driver interface {
	ParseBlock(ctx *parsectx.Context) (arena.NodeIndex, error)
	ParseStatement(ctx *parsectx.Context) (arena.NodeIndex, error)
	ParseExpression(ctx *parsectx.Context) (arena.NodeIndex, error)
}

// Strategy is a pluggable parsing unit selected by (version, phase,
// next-token) and priority (spec.md §4.4).
type Strategy interface {
	// CanHandle reports whether this strategy applies given the target
	// language version, the parser's current phase, and live context
	// (token lookahead via ctx.Peek).
	CanHandle(version int, phase parsectx.ParsingPhase, ctx *parsectx.Context) bool
	// Parse consumes tokens from ctx, allocates node(s) in the arena via
	// driver, and returns the root NodeIndex of what it parsed.
	Parse(ctx *parsectx.Context, driver Driver) (arena.NodeIndex, error)
	Priority() int
	Description() string
}

// entry pairs a Strategy with its registration order, used to break
// priority ties deterministically (spec.md §4.4).
type entry struct {
	strategy Strategy
	order    int
}

// Registry holds strategies and resolves the highest-priority match for
// a given dispatch point. A Registry is immutable after construction is
// complete and safe to share read-only across goroutines (spec.md §5) —
// callers must finish Register-ing before handing it to concurrent
// parses.
type Registry struct {
	entries []entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry pre-populated with the three
// built-in strategies (flexible constructor bodies, record declarations,
// switch expressions) production callers need — see builtin.go. Tests
// that want a bare registry to probe Resolve's tie-breaking in isolation
// should keep using NewRegistry and Register individual strategies
// themselves.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewFlexibleConstructorBodyStrategy())
	r.Register(NewRecordDeclarationStrategy())
	r.Register(NewSwitchExpressionStrategy())
	return r
}

// Register adds a strategy. Registration order is preserved for
// deterministic tie-breaking among equal-priority strategies.
func (r *Registry) Register(s Strategy) {
	r.entries = append(r.entries, entry{strategy: s, order: len(r.entries)})
}

// Resolve returns the highest-priority strategy whose CanHandle matches,
// breaking ties by registration order, or nil if none match.
func (r *Registry) Resolve(version int, phase parsectx.ParsingPhase, ctx *parsectx.Context) Strategy {
	var candidates []entry
	for _, e := range r.entries {
		if e.strategy.CanHandle(version, phase, ctx) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].strategy.Priority(), candidates[j].strategy.Priority()
		if pi != pj {
			return pi > pj
		}
		return candidates[i].order < candidates[j].order
	})
	return candidates[0].strategy
}

// All returns every registered strategy, in registration order, for
// diagnostics/introspection.
func (r *Registry) All() []Strategy {
	out := make([]Strategy, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.strategy
	}
	return out
}
