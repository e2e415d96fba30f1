// Package casefold provides the ASCII upper-case translation table shared
// by every matcher engine in this module.
//
// Case-insensitive patterns are stored upper-cased (see acsm.Pattern) and
// every search buffer is folded once, up front, through the same table.
// Case-sensitive verification always compares against the original,
// unfolded bytes.
package casefold

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Table is a 256-entry byte-to-byte ASCII upper-case mapping. Bytes >= 0x80
// map to themselves: folding is ASCII-only, never locale- or Unicode-aware.
var Table [256]byte

var once sync.Once

func initTable() {
	for i := 0; i < 256; i++ {
		b := byte(i)
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		Table[i] = b
	}
}

// Init initializes the global case-fold table. Safe to call from multiple
// goroutines and multiple times: Table's content is a pure function of its
// index, so racing initializers agree, but sync.Once keeps the work to a
// single pass.
func Init() {
	once.Do(initTable)
}

// unrollFold indicates whether the 8-wide unrolled loop in Fold is worth
// its setup cost. On platforms with wide SIMD registers the branch
// predictor and load/store pipelining make the unrolled form consistently
// faster than a plain byte loop for the buffer sizes this engine sees;
// on narrower platforms the difference is noise, so the plain loop is
// used instead of guessing wrong. Gating on golang.org/x/sys/cpu rather
// than build tags alone keeps the decision a runtime one.
var unrollFold = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD

// Fold writes the upper-cased form of src into dst, which must have
// length >= len(src). It is the per-search bulk pass: called once per
// Search, never per byte-inspection.
func Fold(dst, src []byte) {
	Init()
	n := len(src)
	i := 0
	if unrollFold {
		for ; i+8 <= n; i += 8 {
			dst[i] = Table[src[i]]
			dst[i+1] = Table[src[i+1]]
			dst[i+2] = Table[src[i+2]]
			dst[i+3] = Table[src[i+3]]
			dst[i+4] = Table[src[i+4]]
			dst[i+5] = Table[src[i+5]]
			dst[i+6] = Table[src[i+6]]
			dst[i+7] = Table[src[i+7]]
		}
	}
	for ; i < n; i++ {
		dst[i] = Table[src[i]]
	}
}
