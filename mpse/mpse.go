// Package mpse is the dispatch façade over every matcher engine: a single
// Handle type that recognizes all method tags but implements
// only the Aho-Corasick family and the two MBOM variants. MWM, KTBM, and
// LOWMEM are acknowledged tags that report ErrOutOfScope from AddPattern,
// Compile, SetRuleMask and Search, keeping the method enum complete
// without pretending those engines exist.
//
// AUTO selection happens at Compile, once every pattern's length is
// known: if the shortest registered pattern exceeds AUTOPromotionThreshold,
// the handle promotes to an MBOM engine (dense or compact, per
// Config.OracleKind); otherwise it falls back to AUTODefaultMethod.
package mpse

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/coregx/mbom/acsm"
	"github.com/coregx/mbom/mbom"
	"github.com/coregx/mbom/oracle"
)

// MatchFunc is the per-hit callback, identical in shape to acsm.MatchFunc
// and mbom's callback parameter, so callers need not import either
// package to use a Handle.
type MatchFunc func(id any, index int, ctx any) int

type patternReg struct {
	bytes  []byte
	nocase bool
	offset int
	depth  int
	id     any
	iid    int
}

// Handle is one matcher instance bound to a method tag. Patterns are buffered until Compile, which is when AUTO
// resolves to a concrete engine.
type Handle struct {
	method   Method
	cfg      Config
	pending  []patternReg
	ac       *acsm.Automaton
	mb       *mbom.Engine
	resolved Method
	format   Format
	compiled bool
	stats    Stats
}

// New creates a handle bound to method. Patterns are registered with
// AddPattern and the underlying engine is built by Compile.
func New(method Method, cfg Config) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Handle{method: method, cfg: cfg, resolved: method}, nil
}

// Method returns the tag the handle was created with (not the resolved
// tag after AUTO selection; see ResolvedMethod).
func (h *Handle) Method() Method {
	return h.method
}

// ResolvedMethod returns the concrete engine Compile selected. Before
// Compile, it equals Method() unchanged.
func (h *Handle) ResolvedMethod() Method {
	return h.resolved
}

// Stats returns a snapshot of this handle's counters. Safe to call while
// other goroutines are searching the same compiled Handle.
func (h *Handle) Stats() Stats {
	return Stats{
		Searches:      atomic.LoadUint64(&h.stats.Searches),
		BytesSearched: atomic.LoadUint64(&h.stats.BytesSearched),
		Matches:       atomic.LoadUint64(&h.stats.Matches),
	}
}

// AddPattern registers a pattern. Valid until Compile is called.
func (h *Handle) AddPattern(pat []byte, nocase bool, offset, depth int, id any, iid int) error {
	if h.compiled {
		return &Error{Kind: InvalidPattern, Message: "mpse: AddPattern after Compile"}
	}
	if h.method.isOutOfScope() {
		return ErrOutOfScope
	}
	if len(pat) == 0 {
		return &Error{Kind: InvalidPattern, Message: "mpse: empty pattern"}
	}
	h.pending = append(h.pending, patternReg{
		bytes: append([]byte(nil), pat...), nocase: nocase,
		offset: offset, depth: depth, id: id, iid: iid,
	})
	return nil
}

// SetRuleMask exists only to round out the original method surface; rule masking is MWM-specific and MWM is out of scope, so this
// always returns ErrOutOfScope.
func (h *Handle) SetRuleMask(mask int) error {
	return ErrOutOfScope
}

// SetFormat selects the graph representation an MBOM/MBOM2 handle
// compiles to. Must be called before Compile. FormatOracle is the only
// implemented format; requesting FormatDAWG returns a *Error with Kind
// UnsupportedFormat. Has no effect on AC-family handles beyond validation,
// since they have no oracle representation to select.
func (h *Handle) SetFormat(f Format) error {
	if h.compiled {
		return &Error{Kind: InvalidPattern, Message: "mpse: SetFormat after Compile"}
	}
	if f != FormatOracle {
		return &Error{Kind: UnsupportedFormat, Message: fmt.Sprintf("mpse: format %v not implemented", f)}
	}
	h.format = f
	return nil
}

func minPatternLen(pending []patternReg) int {
	min := 0
	for _, p := range pending {
		if min == 0 || len(p.bytes) < min {
			min = len(p.bytes)
		}
	}
	return min
}

// Compile resolves AUTO (if applicable) and builds the underlying
// engine from every pattern registered so far.
func (h *Handle) Compile() error {
	if h.compiled {
		return nil
	}
	if h.method.isOutOfScope() {
		return ErrOutOfScope
	}

	resolved := h.method
	if resolved == MethodAUTO {
		if minPatternLen(h.pending) > AUTOPromotionThreshold {
			if h.cfg.OracleKind == OracleCompact {
				resolved = MethodMBOM2
			} else {
				resolved = MethodMBOM
			}
		} else {
			resolved = AUTODefaultMethod
		}
	}
	h.resolved = resolved

	switch {
	case resolved.isACFamily():
		h.ac = acsm.NewWithLimit(h.cfg.MaxStates)
		for _, p := range h.pending {
			if _, err := h.ac.AddPattern(p.bytes, p.nocase, p.offset, p.depth, p.id, p.iid); err != nil {
				return wrapEngineErr(err)
			}
		}
		if err := h.ac.Compile(); err != nil {
			return wrapEngineErr(err)
		}

	case resolved == MethodMBOM || resolved == MethodMBOM2:
		kind := mbom.Dense
		if resolved == MethodMBOM2 {
			kind = mbom.Compact
		}
		mcfg := mbom.Config{MaxBufferLen: h.cfg.MaxBufferLen, MaxStates: h.cfg.MaxStates}
		h.mb = mbom.New(kind, mcfg)
		if err := h.mb.SetFormat(mbom.Format(h.format)); err != nil {
			return wrapEngineErr(err)
		}
		for _, p := range h.pending {
			if _, err := h.mb.AddPattern(p.bytes, p.nocase, p.offset, p.depth, p.id, p.iid); err != nil {
				return wrapEngineErr(err)
			}
		}
		if err := h.mb.Compile(); err != nil {
			return wrapEngineErr(err)
		}

	default:
		return ErrOutOfScope
	}

	h.compiled = true
	return nil
}

// Search runs the resolved engine over buf, invoking match for each hit.
// Bytes searched are added to the process-wide TotalBytesSearched counter
// regardless of which engine is in use.
func (h *Handle) Search(buf []byte, match MatchFunc, ctx any) (int, error) {
	if h.method.isOutOfScope() {
		return 0, ErrOutOfScope
	}
	if !h.compiled {
		return 0, ErrNotCompiled
	}

	atomic.AddUint64(&totalBytesSearched, uint64(len(buf)))
	atomic.AddUint64(&h.stats.Searches, 1)
	atomic.AddUint64(&h.stats.BytesSearched, uint64(len(buf)))

	if h.cfg.MaxBufferLen > 0 && len(buf) > h.cfg.MaxBufferLen {
		return 0, &Error{Kind: BufferTooLarge, Message: "mpse: search buffer too large"}
	}

	var hits int
	var err error
	switch {
	case h.resolved.isACFamily():
		hits, err = h.ac.Search(buf, acsm.MatchFunc(match), ctx)
	case h.resolved == MethodMBOM || h.resolved == MethodMBOM2:
		hits, err = h.mb.Search(buf, acsm.MatchFunc(match), ctx)
	default:
		return 0, ErrOutOfScope
	}
	if err != nil {
		return hits, wrapEngineErr(err)
	}

	atomic.AddUint64(&h.stats.Matches, uint64(hits))
	return hits, nil
}

// PrintDetail writes a per-state/per-pattern report to w.
func (h *Handle) PrintDetail(w io.Writer) error {
	if !h.compiled {
		return ErrNotCompiled
	}
	switch {
	case h.resolved.isACFamily():
		fmt.Fprintf(w, "mpse: method=%s patterns=%d states=%d\n",
			h.resolved, len(h.ac.Patterns()), h.ac.NumStates())
	case h.resolved == MethodMBOM || h.resolved == MethodMBOM2:
		fmt.Fprintf(w, "mpse: method=%s patterns=%d minLen=%d oracleStates=%d oracleTrans=%d\n",
			h.resolved, h.mb.NumPatterns(), h.mb.MinLen(), h.mb.NumStates(), h.mb.NumTransitions())
	default:
		return ErrOutOfScope
	}
	return nil
}

// PrintSummary writes a one-line summary to w.
func (h *Handle) PrintSummary(w io.Writer) error {
	if !h.compiled {
		return ErrNotCompiled
	}
	s := h.Stats()
	fmt.Fprintf(w, "mpse: method=%s searches=%d bytes=%d matches=%d\n",
		h.resolved, s.Searches, s.BytesSearched, s.Matches)
	return nil
}

// Destroy releases the handle's engines. Go's garbage collector reclaims
// the underlying memory once unreferenced; Destroy exists so callers
// have an explicit teardown point symmetrical with New, and so it is
// always reachable regardless of method — unlike the original
// implementation, whose mpseFree silently skipped freeing for
// MPSE_KTBM/MPSE_LOWMEM.
func (h *Handle) Destroy() {
	h.ac = nil
	h.mb = nil
	h.compiled = false
}

func wrapEngineErr(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *acsm.CapacityError, *oracle.CompactCapacityError:
		return &Error{Kind: CapacityExceeded, Message: "mpse: engine capacity exceeded", Cause: err}
	}
	switch err {
	case mbom.ErrBufferTooLarge:
		return &Error{Kind: BufferTooLarge, Message: "mpse: search buffer too large", Cause: err}
	case mbom.ErrNotCompiled, acsm.ErrNotCompiled:
		return ErrNotCompiled
	case acsm.ErrInvalidPattern:
		return &Error{Kind: InvalidPattern, Message: "mpse: invalid pattern", Cause: err}
	case mbom.ErrUnsupportedFormat:
		return &Error{Kind: UnsupportedFormat, Message: "mpse: format not implemented", Cause: err}
	}
	return &Error{Kind: InvalidPattern, Message: "mpse: engine error", Cause: err}
}
