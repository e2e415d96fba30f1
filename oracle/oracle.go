// Package oracle implements the reverse factor oracle used as the fast
// filter in front of the Aho-Corasick verifier.
//
// A factor oracle recognizes at least every factor (contiguous substring)
// of the registered pattern set, possibly more. Two representations are
// provided as parallel implementations of the Graph interface:
//
//   - Dense: one node per state, a 256-wide pointer/index array per node,
//     an extended-transition bitset, and a supply link retained for the
//     lifetime of the graph.
//   - Compact: states are plain integer ids; every transition is an entry
//     in a hash table keyed by (from-state, byte); the supply function is
//     a construction-only array, freed at the end of Compile.
package oracle

// Graph is the query-time interface the mbom package drives. Both Dense
// and Compact implement it with identical semantics; only their memory
// layout differs.
type Graph interface {
	// Root returns the initial state id.
	Root() int32

	// Next follows the transition from state s on byte b. ok is false if
	// no such transition exists — a factor mismatch in the reverse filter
	// phase of a sliding-window search.
	Next(s int32, b byte) (next int32, ok bool)

	// NumStates returns the number of states built during Compile.
	NumStates() int

	// NumTransitions returns the number of transitions (internal +
	// extended) built during Compile.
	NumTransitions() int
}

// PatternSource is the minimal view Compile needs of a registered
// pattern: its canonical (case-folded) bytes. *acsm.Pattern satisfies it
// directly and mbom passes those through, so oracle stays independent of
// the acsm package.
type PatternSource interface {
	CanonicalBytes() []byte
}
