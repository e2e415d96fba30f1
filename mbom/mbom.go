// Package mbom implements Multi Backward Oracle Matching: a sliding
// window over the search buffer, filtered in reverse by a factor oracle
// and verified forward by an Aho-Corasick automaton.
//
// The algorithm is only beneficial when the shortest registered pattern
// is at least 3 bytes; shorter minimums should use the acsm
// package directly, a decision the mpse façade makes during AUTO
// selection.
package mbom

import (
	"errors"
	"sync/atomic"

	"github.com/coregx/mbom/acsm"
	"github.com/coregx/mbom/casefold"
	"github.com/coregx/mbom/oracle"
)

// Errors surfaced by this package.
var (
	// ErrNotCompiled indicates Search was called before Compile.
	ErrNotCompiled = errors.New("mbom: Search before Compile")

	// ErrBufferTooLarge indicates the search buffer exceeds the
	// configured fold-buffer cap.
	ErrBufferTooLarge = errors.New("mbom: search buffer exceeds configured cap")

	// ErrAlreadyCompiled indicates SetFormat was called after Compile.
	ErrAlreadyCompiled = errors.New("mbom: SetFormat after Compile")

	// ErrUnsupportedFormat indicates SetFormat was asked to select a
	// format this package does not implement.
	ErrUnsupportedFormat = errors.New("mbom: format not implemented")
)

// OracleKind selects which factor-oracle representation Compile builds.
type OracleKind int

const (
	// Dense selects the pointer-array oracle: faster, more memory.
	Dense OracleKind = iota

	// Compact selects the hash-keyed oracle: ~26:1 less memory, one hash
	// probe per transition.
	Compact
)

// Format selects the underlying graph representation an engine compiles
// to. Only Oracle is implemented; DAWG is reserved for a future direct
// acyclic word graph representation.
type Format int

const (
	FormatOracle Format = iota
	FormatDAWG
)

// Config controls resource limits for an Engine.
type Config struct {
	// MaxBufferLen bounds the length of any single search buffer. Zero
	// means unbounded.
	MaxBufferLen int

	// MaxStates bounds the number of states the AC verifier and, for the
	// Compact kind, the factor oracle may each build during Compile. The
	// Dense oracle has no state limit. Zero means use the engine's own
	// default limit (acsm.MaxStates or oracle.MaxCompactStates).
	MaxStates int
}

// DefaultConfig returns the default resource configuration: a 64KiB
// buffer cap, matching the case-fold scratch buffer size a single search
// typically needs.
func DefaultConfig() Config {
	return Config{MaxBufferLen: 64 * 1024}
}

// Engine is one MBOM matcher instance: an AC verifier and a factor-oracle
// filter built over the same pattern set.
type Engine struct {
	ac       *acsm.Automaton
	graph    oracle.Graph
	kind     OracleKind
	cfg      Config
	format   Format
	compiled bool
	matches  int64
}

// New creates an empty MBOM engine. kind selects the oracle
// representation Compile will build.
func New(kind OracleKind, cfg Config) *Engine {
	return &Engine{
		ac:     acsm.NewWithLimit(cfg.MaxStates),
		kind:   kind,
		cfg:    cfg,
		format: FormatOracle,
	}
}

// AddPattern registers a pattern with both the eventual AC verifier and
// factor oracle.
func (e *Engine) AddPattern(pat []byte, nocase bool, offset, depth int, id any, iid int) (*acsm.Pattern, error) {
	return e.ac.AddPattern(pat, nocase, offset, depth, id, iid)
}

// MinLen returns the shortest registered pattern's length — the sliding
// window's width W.
func (e *Engine) MinLen() int {
	return e.ac.MinLen()
}

// NumPatterns returns the number of patterns registered.
func (e *Engine) NumPatterns() int {
	return len(e.ac.Patterns())
}

// NumStates returns the factor oracle's state count (0 before Compile).
func (e *Engine) NumStates() int {
	if e.graph == nil {
		return 0
	}
	return e.graph.NumStates()
}

// NumTransitions returns the factor oracle's transition count (0 before
// Compile).
func (e *Engine) NumTransitions() int {
	if e.graph == nil {
		return 0
	}
	return e.graph.NumTransitions()
}

// Matches returns the running count of hits reported across every Search
// call on this instance. Safe to call while other goroutines are
// searching the same compiled Engine.
func (e *Engine) Matches() int {
	return int(atomic.LoadInt64(&e.matches))
}

// Format returns the graph representation this engine is compiled to.
func (e *Engine) Format() Format {
	return e.format
}

// SetFormat selects the graph representation Compile builds. Must be
// called before Compile. FormatOracle is the only implemented format;
// FormatDAWG is reserved for a future direct acyclic word graph
// representation and is rejected here rather than silently ignored.
func (e *Engine) SetFormat(f Format) error {
	if e.compiled {
		return ErrAlreadyCompiled
	}
	if f != FormatOracle {
		return ErrUnsupportedFormat
	}
	e.format = f
	return nil
}

// Compile builds the AC automaton and the chosen factor-oracle
// representation over the registered patterns.
func (e *Engine) Compile() error {
	if err := e.ac.Compile(); err != nil {
		return err
	}

	patterns := e.ac.Patterns()
	srcs := make([]oracle.PatternSource, len(patterns))
	for i, p := range patterns {
		srcs[i] = p
	}

	switch e.kind {
	case Compact:
		g := oracle.NewCompactWithLimit(e.cfg.MaxStates)
		if err := g.Compile(srcs); err != nil {
			return err
		}
		e.graph = g
	default:
		g := oracle.NewDense()
		if err := g.Compile(srcs); err != nil {
			return err
		}
		e.graph = g
	}

	e.compiled = true
	return nil
}

// Search executes the sliding-window MBOM algorithm:
//
//  1. Reverse filter phase: walk the oracle from its root, reading bytes
//     right-to-left from the window, until a transition is missing or
//     the walk reaches critpos.
//  2. On a factor mismatch, reset the AC state and advance critpos to
//     the first position the filter could not clear.
//  3. Forward verify phase: advance the AC verifier byte by byte while
//     still inside the window or while the AC's current depth proves the
//     path is still productive, reporting matches as they terminate.
//  4. Shift the window past whatever the AC has already ruled out.
//
// Total byte inspections across both phases are bounded by 2*len(buf).
func (e *Engine) Search(buf []byte, match acsm.MatchFunc, ctx any) (int, error) {
	if !e.compiled {
		return 0, ErrNotCompiled
	}
	if e.cfg.MaxBufferLen > 0 && len(buf) > e.cfg.MaxBufferLen {
		return 0, ErrBufferTooLarge
	}

	n := len(buf)
	minLen := e.ac.MinLen()
	if minLen == 0 || n < minLen {
		return 0, nil
	}

	folded := make([]byte, n)
	casefold.Fold(folded, buf)

	nfound := 0
	windowEnd := minLen - 1
	end := n - minLen + 1

	i := 0
	critpos := 0
	state := acsm.Root

	for i < end && critpos < n {
		// Reverse filter phase: the oracle has recognized everything the
		// AC has already consumed (T[0:critpos)); scan back from the
		// window's right edge looking for the first factor mismatch.
		j := i + windowEnd
		cur := e.graph.Root()
		mismatched := false
		for j >= critpos {
			next, ok := e.graph.Next(cur, folded[j])
			if !ok {
				mismatched = true
				break
			}
			cur = next
			j--
		}

		if mismatched {
			state = acsm.Root
			critpos = j + 1
		}

		// Forward verify phase: drive the AC verifier up through
		// whichever is further out, the window's right edge or a state
		// depth that proves the current path can still extend into a
		// match.
		for critpos < n && (critpos < i+minLen || e.ac.Depth(state) >= minLen) {
			state = e.ac.Next(state, folded[critpos])
			critpos++

			if list := e.ac.MatchesAt(state); len(list) > 0 {
				hits, stop := e.ac.Report(list, critpos-1, buf, match, ctx)
				nfound += hits
				atomic.AddInt64(&e.matches, int64(hits))
				if stop {
					return nfound, nil
				}
			}
		}

		// Shift the window past whatever the AC verifier has ruled out,
		// while preserving the longest AC-known prefix it is still
		// carrying.
		i = critpos - e.ac.Depth(state)
	}

	return nfound, nil
}
