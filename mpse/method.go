package mpse

import "fmt"

// Method selects the matcher engine a handle dispatches to.
// The full tag set is represented so callers can name any of them; only
// the AC and MBOM families are implemented (MWM, KTBM, and LOWMEM are
// out of scope and report ErrOutOfScope).
type Method int

const (
	// MethodMWM selects the Boyer-Moore-ish multi-pattern engine. Out of
	// scope.
	MethodMWM Method = iota

	// MethodACF selects the full (256-wide array) Aho-Corasick goto
	// layout.
	MethodACF

	// MethodACS selects the sparse goto layout. Implemented by the same
	// full layout as ACF.
	MethodACS

	// MethodACB selects the banded goto layout. See MethodACS.
	MethodACB

	// MethodACSB selects the sparse-banded goto layout. See MethodACS.
	MethodACSB

	// MethodKTBM selects the low-memory keyword-trie engine. Out of
	// scope.
	MethodKTBM

	// MethodLOWMEM is an alias for MethodKTBM in the original
	// implementation. Out of scope.
	MethodLOWMEM

	// MethodMBOM selects Multi Backward Oracle Matching over the dense
	// factor oracle.
	MethodMBOM

	// MethodMBOM2 selects Multi Backward Oracle Matching over the
	// compact (hash-keyed) factor oracle.
	MethodMBOM2

	// MethodAUTO selects AC at compile time, promoting to MBOM if every
	// registered pattern's minimum length exceeds a threshold.
	MethodAUTO
)

// String returns the method's original tag name.
func (m Method) String() string {
	switch m {
	case MethodMWM:
		return "MWM"
	case MethodACF:
		return "ACF"
	case MethodACS:
		return "ACS"
	case MethodACB:
		return "ACB"
	case MethodACSB:
		return "ACSB"
	case MethodKTBM:
		return "KTBM"
	case MethodLOWMEM:
		return "LOWMEM"
	case MethodMBOM:
		return "MBOM"
	case MethodMBOM2:
		return "MBOM2"
	case MethodAUTO:
		return "AUTO"
	default:
		return fmt.Sprintf("UnknownMethod(%d)", int(m))
	}
}

// isACFamily reports whether m is one of the four AC goto-layout tags.
func (m Method) isACFamily() bool {
	switch m {
	case MethodACF, MethodACS, MethodACB, MethodACSB:
		return true
	default:
		return false
	}
}

// isOutOfScope reports whether m names an engine this module does not
// implement.
func (m Method) isOutOfScope() bool {
	switch m {
	case MethodMWM, MethodKTBM, MethodLOWMEM:
		return true
	default:
		return false
	}
}
