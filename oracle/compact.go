package oracle

import "fmt"

// Compact is the hash-keyed factor oracle: states are plain
// integer ids, and every transition — internal or extended alike — is an
// entry in a hash table keyed by (from-state, byte).
//
// A hash-table abstraction (create/insert/search/remove/destroy) is the
// natural way to express this without per-state fixed-width arrays. Go's
// built-in map already *is* that interface — insert is m[k]=v, search is
// m[k], remove is delete(m,k), destroy is letting the map be
// garbage-collected — so reaching for a third-party hash-table package
// here would reimplement what the language already gives for free. See
// DESIGN.md.
type Compact struct {
	trans     map[compactKey]int32
	numState  int32
	numTrans  int
	maxStates int
}

type compactKey struct {
	from int32
	b    byte
}

// compactRoot is state 1; 0 is reserved to mean "no supply/no transition".
const compactRoot int32 = 1

// MaxCompactStates is the id-width limit for the compact oracle: state
// ids are held in int32 but kept within the 16-bit range, so this is the
// largest id one can be given.
const MaxCompactStates = 1<<16 - 1

// CompactCapacityError reports that compilation would exceed
// MaxCompactStates.
type CompactCapacityError struct {
	States int
	Limit  int
}

func (e *CompactCapacityError) Error() string {
	return fmt.Sprintf("oracle: compact state count %d exceeds capacity %d", e.States, e.Limit)
}

// NewCompact creates an empty compact oracle, bounded by the package
// default MaxCompactStates.
func NewCompact() *Compact {
	return NewCompactWithLimit(MaxCompactStates)
}

// NewCompactWithLimit creates an empty compact oracle whose Compile fails
// once it would need more than maxStates states. maxStates <= 0 falls
// back to the package default MaxCompactStates; values above
// MaxCompactStates are clamped to it.
func NewCompactWithLimit(maxStates int) *Compact {
	if maxStates <= 0 || maxStates > MaxCompactStates {
		maxStates = MaxCompactStates
	}
	return &Compact{
		trans:     make(map[compactKey]int32, 64),
		numState:  compactRoot,
		maxStates: maxStates,
	}
}

// Root implements Graph.
func (c *Compact) Root() int32 { return compactRoot }

// NumStates implements Graph. Root counts as one state, matching Dense's
// convention of counting the root node.
func (c *Compact) NumStates() int { return int(c.numState) }

// NumTransitions implements Graph.
func (c *Compact) NumTransitions() int { return c.numTrans }

// Next implements Graph.
func (c *Compact) Next(s int32, b byte) (int32, bool) {
	next, ok := c.trans[compactKey{from: s, b: b}]
	return next, ok
}

// Compile builds the factor oracle exactly as Dense.Compile does, but
// over the hash-keyed representation: the reverse trie is built with
// map lookups instead of array indexing, and the supply function used
// only during construction is a plain slice, discarded at the end of
// this call.
func (c *Compact) Compile(patterns []PatternSource) error {
	// Phase 1: reverse trie.
	for _, p := range patterns {
		b := p.CanonicalBytes()
		cur := compactRoot
		j := len(b) - 1
		for j >= 0 {
			next, ok := c.trans[compactKey{from: cur, b: b[j]}]
			if !ok {
				break
			}
			cur = next
			j--
		}
		for j >= 0 {
			if int(c.numState) >= c.maxStates {
				return &CompactCapacityError{States: int(c.numState) + 1, Limit: c.maxStates}
			}
			c.numState++
			child := c.numState
			c.trans[compactKey{from: cur, b: b[j]}] = child
			c.numTrans++
			cur = child
			j--
		}
	}

	// supply is a construction-only array, indexed by state id; index 0
	// means "undefined" (mirrors the original's MBOM_ROOT=1 convention so
	// 0 is free to mean "no supply").
	supply := make([]int32, c.numState+1)

	type qitem struct {
		node, parent int32
		char         byte
	}
	queue := make([]qitem, 0, c.numState)
	for b := 0; b < 256; b++ {
		if child, ok := c.trans[compactKey{from: compactRoot, b: byte(b)}]; ok {
			queue = append(queue, qitem{node: child, parent: compactRoot, char: byte(b)})
		}
	}

	for head := 0; head < len(queue); head++ {
		it := queue[head]
		cur := it.node

		u := supply[it.parent]
		for u != 0 {
			if _, ok := c.trans[compactKey{from: u, b: it.char}]; ok {
				break
			}
			c.trans[compactKey{from: u, b: it.char}] = cur
			c.numTrans++
			u = supply[u]
		}

		if u != 0 {
			supply[cur] = c.trans[compactKey{from: u, b: it.char}]
		} else {
			supply[cur] = compactRoot
		}

		for b := 0; b < 256; b++ {
			if child, ok := c.trans[compactKey{from: cur, b: byte(b)}]; ok {
				queue = append(queue, qitem{node: child, parent: cur, char: byte(b)})
			}
		}
	}

	return nil
}
