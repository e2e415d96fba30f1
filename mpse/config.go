package mpse

import "fmt"

// AUTODefaultMethod is the engine AUTO falls back to when no promotion
// threshold is met.
const AUTODefaultMethod = MethodACF

// AUTOPromotionThreshold is the minimum pattern length above which AUTO
// promotes from AC to MBOM.
const AUTOPromotionThreshold = 2

// Config controls resource limits and oracle selection for a Handle.
type Config struct {
	// MaxStates bounds the number of states any single engine may build
	// during Compile. Zero means use the engine's own default limit
	// (acsm.MaxStates or oracle.MaxCompactStates).
	MaxStates int

	// MaxBufferLen bounds the length of any single Search buffer. Zero
	// means unbounded. Default: 64 * 1024.
	MaxBufferLen int

	// OracleKind selects which factor-oracle representation MBOM/MBOM2
	// and an AUTO-promoted handle build. Ignored by AC-family methods.
	OracleKind OracleKind
}

// OracleKind mirrors mbom.OracleKind without importing the mbom package
// from the config file, keeping Config importable by callers that only
// want the AC family.
type OracleKind int

const (
	OracleDense OracleKind = iota
	OracleCompact
)

// Format mirrors mbom.Format, for the same reason OracleKind mirrors
// mbom.OracleKind. Only FormatOracle is implemented; FormatDAWG is
// reserved for a future direct acyclic word graph representation.
type Format int

const (
	FormatOracle Format = iota
	FormatDAWG
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatOracle:
		return "Oracle"
	case FormatDAWG:
		return "DAWG"
	default:
		return fmt.Sprintf("UnknownFormat(%d)", int(f))
	}
}

// DefaultConfig returns a configuration with sensible defaults: no state
// cap beyond each engine's own ceiling, a 64KiB buffer cap, and the
// dense oracle representation.
func DefaultConfig() Config {
	return Config{
		MaxStates:    0,
		MaxBufferLen: 64 * 1024,
		OracleKind:   OracleDense,
	}
}

// Validate checks that the configuration's fields are in range,
// returning a *Error on failure.
func (c Config) Validate() error {
	if c.MaxStates < 0 {
		return &Error{Kind: CapacityExceeded, Message: fmt.Sprintf("mpse: MaxStates must be >= 0, got %d", c.MaxStates)}
	}
	if c.MaxBufferLen < 0 {
		return &Error{Kind: BufferTooLarge, Message: fmt.Sprintf("mpse: MaxBufferLen must be >= 0, got %d", c.MaxBufferLen)}
	}
	if c.OracleKind != OracleDense && c.OracleKind != OracleCompact {
		return &Error{Kind: InvalidPattern, Message: fmt.Sprintf("mpse: unknown OracleKind %d", c.OracleKind)}
	}
	return nil
}
