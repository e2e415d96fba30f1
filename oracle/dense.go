package oracle

// Dense is the pointer-array factor oracle: one state per node, a
// 256-entry transition array, a bitset marking which transitions are
// "extended" (borrowed DAG edges, as opposed to internal/owned trie
// edges), and a supply link.
//
// States live in an arena (a slice) rather than behind individual heap
// pointers, so destroying a graph is just dropping the slice. The
// extended-bitset is kept anyway because the construction algorithm below
// is defined in terms of it.
type Dense struct {
	states   []denseNode
	minLen   int
	numTrans int
}

type denseNode struct {
	next     [256]int32 // -1 == no transition
	extended [256 / 8]uint8
	supply   int32 // -1 == undefined (only true for root)
}

// denseRoot is always state 0.
const denseRoot int32 = 0

// NewDense creates an empty dense oracle with only the root state.
func NewDense() *Dense {
	d := &Dense{}
	d.states = append(d.states, newDenseNode())
	d.states[denseRoot].supply = -1
	return d
}

func newDenseNode() denseNode {
	n := denseNode{}
	for i := range n.next {
		n.next[i] = -1
	}
	return n
}

func (d *Dense) setExtended(s int32, b byte) {
	d.states[s].extended[b/8] |= 1 << (b % 8)
}

func (d *Dense) isExtended(s int32, b byte) bool {
	return d.states[s].extended[b/8]&(1<<(b%8)) != 0
}

// Root implements Graph.
func (d *Dense) Root() int32 { return denseRoot }

// NumStates implements Graph.
func (d *Dense) NumStates() int { return len(d.states) }

// NumTransitions implements Graph.
func (d *Dense) NumTransitions() int { return d.numTrans }

// Next implements Graph.
func (d *Dense) Next(s int32, b byte) (int32, bool) {
	next := d.states[s].next[b]
	if next == -1 {
		return 0, false
	}
	return next, true
}

// Compile builds the factor oracle over the reverse of every pattern's
// canonical bytes: a reverse trie, then a breadth-first pass adding
// extended transitions from each state's ancestors' supply chain.
func (d *Dense) Compile(patterns []PatternSource) error {
	// Phase 1: reverse trie.
	for _, p := range patterns {
		b := p.CanonicalBytes()
		cur := denseRoot
		j := len(b) - 1
		for j >= 0 && d.states[cur].next[b[j]] != -1 {
			cur = d.states[cur].next[b[j]]
			j--
		}
		for j >= 0 {
			d.states = append(d.states, newDenseNode())
			child := int32(len(d.states) - 1)
			d.states[cur].next[b[j]] = child
			d.numTrans++
			cur = child
			j--
		}
	}

	// Phase 2: breadth-first conversion of the trie into an oracle by
	// adding extended transitions.
	type qitem struct {
		node, parent int32
		char         byte
	}
	queue := make([]qitem, 0, len(d.states))
	for b := 0; b < 256; b++ {
		if child := d.states[denseRoot].next[byte(b)]; child != -1 {
			queue = append(queue, qitem{node: child, parent: denseRoot, char: byte(b)})
		}
	}

	for head := 0; head < len(queue); head++ {
		it := queue[head]
		cur := it.node

		u := d.states[it.parent].supply
		for u != -1 && d.states[u].next[it.char] == -1 {
			d.states[u].next[it.char] = cur
			d.setExtended(u, it.char)
			d.numTrans++
			u = d.states[u].supply
		}

		if u == -1 {
			d.states[cur].supply = denseRoot
		} else {
			d.states[cur].supply = d.states[u].next[it.char]
		}

		for b := 0; b < 256; b++ {
			if child := d.states[cur].next[byte(b)]; child != -1 && !d.isExtended(cur, byte(b)) {
				queue = append(queue, qitem{node: child, parent: cur, char: byte(b)})
			}
		}
	}

	return nil
}
