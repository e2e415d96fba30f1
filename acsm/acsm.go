// Package acsm implements a forward Aho-Corasick state machine: the
// verifier half of the MBOM engine, and a standalone matcher
// in its own right when the shortest registered pattern is too short for
// the factor-oracle filter to pay for itself.
//
// Compile builds the trie, then computes failure links with a
// breadth-first traversal, then propagates match lists along failure
// links. Search drives the deterministic goto function one buffer byte
// at a time, reporting every pattern listed at a state whenever that
// state is reached.
//
// Multiple goto layouts (full / sparse / banded / sparse-banded) realize
// the same abstract transition function at different memory costs and are
// behaviourally indistinguishable from outside; this package implements
// one concrete layout (full, a 256-wide array per state) and is exposed
// under all four layout names by the mpse façade. See DESIGN.md.
package acsm

import (
	"errors"
	"fmt"

	"github.com/coregx/mbom/casefold"
)

// Common automaton errors.
var (
	// ErrInvalidPattern indicates a zero-length pattern was registered.
	ErrInvalidPattern = errors.New("acsm: invalid pattern")

	// ErrAlreadyCompiled indicates AddPattern was called after Compile;
	// registering patterns after compilation has no defined effect on an
	// already-built trie, so this package reports it rather than
	// silently ignoring it.
	ErrAlreadyCompiled = errors.New("acsm: AddPattern after Compile")

	// ErrNotCompiled indicates Search was called before Compile.
	ErrNotCompiled = errors.New("acsm: Search before Compile")
)

// MaxStates is the absolute ceiling on states a single automaton may
// contain (well inside the range of its int32 state ids): no
// caller-supplied limit via NewWithLimit can exceed it. New uses it as the
// default limit.
const MaxStates = 1 << 24

// CapacityError reports that compilation would exceed MaxStates.
type CapacityError struct {
	States int
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("acsm: %d states exceeds capacity %d", e.States, e.Limit)
}

// MatchFunc is the per-hit callback. Returning non-zero aborts the search;
// Search then returns the current hit count and a nil error.
type MatchFunc func(id any, index int, ctx any) int

// Pattern is an immutable registered pattern record.
type Pattern struct {
	Bytes     []byte // original bytes, as registered
	CasePatrn []byte // upper-cased form, used for matching the folded buffer
	N         int
	NoCase    bool
	Offset    int
	Depth     int
	ID        any
	IID       int
}

// CanonicalBytes implements oracle.PatternSource: the form the pattern is
// actually matched against: the upper-cased bytes, whatever NoCase says.
func (p *Pattern) CanonicalBytes() []byte {
	return p.CasePatrn
}

type state struct {
	depth     int
	fail      int32
	goTo      [256]int32 // -1 == no transition
	matchList []*Pattern // own terminal patterns + inherited via failure, built at compile time
	terminal  []*Pattern // patterns that terminate exactly at this state (pre-propagation)
}

// Automaton is a forward Aho-Corasick state machine.
type Automaton struct {
	states    []state
	patterns  []*Pattern
	minLen    int
	compiled  bool
	maxStates int
}

// New creates an empty automaton with only the root state (id 0), bounded
// by the package default MaxStates.
func New() *Automaton {
	return NewWithLimit(MaxStates)
}

// NewWithLimit creates an empty automaton whose Compile fails once the
// trie would need more than maxStates states. maxStates <= 0 falls back
// to the package default MaxStates; values above MaxStates are clamped
// to it.
func NewWithLimit(maxStates int) *Automaton {
	casefold.Init()
	if maxStates <= 0 || maxStates > MaxStates {
		maxStates = MaxStates
	}
	a := &Automaton{maxStates: maxStates}
	a.states = append(a.states, newState(0))
	return a
}

func newState(depth int) state {
	s := state{depth: depth}
	for i := range s.goTo {
		s.goTo[i] = -1
	}
	return s
}

// MinLen returns the length of the shortest registered pattern, or 0 if
// none have been registered.
func (a *Automaton) MinLen() int {
	return a.minLen
}

// NumStates returns the number of states, valid before or after Compile.
func (a *Automaton) NumStates() int {
	return len(a.states)
}

// Patterns returns the patterns registered so far, in registration order.
// Used by the mpse façade to migrate patterns into an MBOM engine during
// AUTO promotion.
func (a *Automaton) Patterns() []*Pattern {
	return a.patterns
}

// AddPattern registers a pattern. Every pattern is folded to upper-case
// for the trie, since the search buffer is folded too; the original bytes
// are retained so case-sensitive verification can compare against the raw
// buffer.
func (a *Automaton) AddPattern(pat []byte, nocase bool, offset, depth int, id any, iid int) (*Pattern, error) {
	if a.compiled {
		return nil, ErrAlreadyCompiled
	}
	if len(pat) == 0 {
		return nil, ErrInvalidPattern
	}

	p := &Pattern{
		Bytes:  append([]byte(nil), pat...),
		N:      len(pat),
		NoCase: nocase,
		Offset: offset,
		Depth:  depth,
		ID:     id,
		IID:    iid,
	}
	folded := make([]byte, len(pat))
	casefold.Fold(folded, pat)
	p.CasePatrn = folded

	a.patterns = append(a.patterns, p)
	if a.minLen == 0 || p.N < a.minLen {
		a.minLen = p.N
	}
	return p, nil
}

// Compile builds the trie, computes failure links via breadth-first
// traversal, and propagates match lists along failure links.
func (a *Automaton) Compile() error {
	if a.compiled {
		return nil
	}

	// Trie insertion: each pattern is inserted forward using its
	// case-folded/canonical bytes, so the automaton matches on the
	// upper-cased buffer uniformly.
	for _, p := range a.patterns {
		cur := int32(0)
		for i := 0; i < p.N; i++ {
			b := p.CasePatrn[i]
			next := a.states[cur].goTo[b]
			if next == -1 {
				if len(a.states) >= a.maxStates {
					return &CapacityError{States: len(a.states) + 1, Limit: a.maxStates}
				}
				a.states = append(a.states, newState(a.states[cur].depth+1))
				next = int32(len(a.states) - 1)
				a.states[cur].goTo[b] = next
			}
			cur = next
		}
		a.states[cur].terminal = append(a.states[cur].terminal, p)
	}

	// Failure-link computation: breadth-first over depth-1 states first
	// (their failure link is always root), then deeper states.
	queue := make([]int32, 0, len(a.states))
	for b := 0; b < 256; b++ {
		child := a.states[0].goTo[b]
		if child != -1 {
			a.states[child].fail = 0
			queue = append(queue, child)
		} else {
			a.states[0].goTo[b] = 0 // root self-loops on undefined transitions
		}
	}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		for b := 0; b < 256; b++ {
			child := a.states[cur].goTo[b]
			if child == -1 {
				// Inherit the goto of the failure state: this is what makes
				// goto total and Search's inner loop branch-free.
				a.states[cur].goTo[b] = a.states[a.states[cur].fail].goTo[b]
				continue
			}
			a.states[child].fail = a.states[a.states[cur].fail].goTo[b]
			queue = append(queue, child)
		}
	}

	// Match-list propagation along failure links, in BFS order so a
	// state's failure target has already been finalized.
	a.states[0].matchList = a.states[0].terminal
	for _, cur := range queue {
		s := &a.states[cur]
		s.matchList = s.terminal
		if failML := a.states[s.fail].matchList; len(failML) > 0 {
			s.matchList = append(append([]*Pattern(nil), s.terminal...), failML...)
		}
	}

	a.compiled = true
	return nil
}

// Depth returns the trie depth of a state, used by MBOM's shift step.
func (a *Automaton) Depth(stateID int32) int {
	return a.states[stateID].depth
}

// Next returns the deterministic next state from cur on byte b. Requires
// Compile to have completed (goto is total only after compile).
func (a *Automaton) Next(cur int32, b byte) int32 {
	return a.states[cur].goTo[b]
}

// Root is the initial state id (always 0).
const Root int32 = 0

// MatchesAt returns the match list of a state: its own terminal patterns
// unioned with its failure target's match list. Used by the
// mbom package's forward-verify phase, which drives this automaton one
// byte at a time interleaved with the oracle filter.
func (a *Automaton) MatchesAt(stateID int32) []*Pattern {
	return a.states[stateID].matchList
}

// Report invokes match for every pattern in list that terminates at
// buffer index i, honoring per-pattern case discipline. It returns the
// number of hits reported and whether the callback asked to stop.
// Exported so mbom can reuse the exact same reporting/verification logic
// AC's own Search uses.
func (a *Automaton) Report(list []*Pattern, i int, raw []byte, match MatchFunc, ctx any) (int, bool) {
	return a.report(list, i, raw, match, ctx)
}

// Search drives the automaton over buf from state 0, reporting every
// pattern whose terminal condition is met at each step, honoring case
// discipline. Hits are reported in order of the buffer index at which
// they end; hits ending at the same index follow the state's match list
// (its own patterns, then those inherited via failure). They are not
// sorted by starting index. The callback short-circuits the search.
func (a *Automaton) Search(buf []byte, match MatchFunc, ctx any) (int, error) {
	if !a.compiled {
		return 0, ErrNotCompiled
	}
	if a.minLen == 0 {
		return 0, nil
	}

	folded := make([]byte, len(buf))
	casefold.Fold(folded, buf)

	hits := 0
	state := Root
	for i, b := range folded {
		state = a.states[state].goTo[b]
		if len(a.states[state].matchList) == 0 {
			continue
		}
		n, stop := a.report(a.states[state].matchList, i, buf, match, ctx)
		hits += n
		if stop {
			return hits, nil
		}
	}
	return hits, nil
}

// report invokes match for every listed pattern terminating at the
// current index, honoring per-pattern case discipline. It
// returns the number of hits reported and whether the callback asked to
// stop.
func (a *Automaton) report(list []*Pattern, i int, raw []byte, match MatchFunc, ctx any) (int, bool) {
	hits := 0
	for _, p := range list {
		start := i - p.N + 1
		if !p.NoCase {
			if start < 0 || !bytesEqual(p.Bytes, raw[start:i+1]) {
				continue
			}
		}
		hits++
		if match(p.ID, start, ctx) != 0 {
			return hits, true
		}
	}
	return hits, false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
