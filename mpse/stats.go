package mpse

import "sync/atomic"

// totalBytesSearched is a process-wide counter of bytes passed to Search
// across every Handle and method, additive and never reset implicitly.
var totalBytesSearched uint64

// TotalBytesSearched returns the process-wide count of bytes passed to
// Search across every Handle, since process start or the last call to
// ResetByteCount.
func TotalBytesSearched() uint64 {
	return atomic.LoadUint64(&totalBytesSearched)
}

// ResetByteCount zeroes the process-wide byte counter.
func ResetByteCount() {
	atomic.StoreUint64(&totalBytesSearched, 0)
}

// Stats holds per-Handle counters surfaced by PrintSummary.
type Stats struct {
	// Searches counts Search calls made on a compiled Handle, including
	// ones that then fail.
	Searches uint64

	// BytesSearched counts bytes passed to Search on this Handle.
	BytesSearched uint64

	// Matches counts hits reported by this Handle's engine.
	Matches uint64
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.Searches = 0
	s.BytesSearched = 0
	s.Matches = 0
}
