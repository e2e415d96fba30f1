package mpse

import (
	"bytes"
	"reflect"
	"sort"
	"testing"
)

type hit struct {
	id    string
	index int
}

func collect(h *Handle, buf []byte) []hit {
	var hits []hit
	h.Search(buf, func(id any, index int, ctx any) int {
		hits = append(hits, hit{id: id.(string), index: index})
		return 0
	}, nil)
	return hits
}

func sortHits(hits []hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].index != hits[j].index {
			return hits[i].index < hits[j].index
		}
		return hits[i].id < hits[j].id
	})
}

func newHandle(t *testing.T, method Method, pats []string) *Handle {
	t.Helper()
	h, err := New(method, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range pats {
		if err := h.AddPattern([]byte(p), false, 0, 0, p, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.Compile(); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestACFamilyMatches(t *testing.T) {
	for _, m := range []Method{MethodACF, MethodACS, MethodACB, MethodACSB} {
		h := newHandle(t, m, []string{"he", "she", "his", "hers"})
		got := collect(h, []byte("ushers"))
		want := []hit{{"she", 1}, {"he", 2}, {"hers", 2}}
		sortHits(got)
		sortHits(want)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("method=%v: got %v, want %v", m, got, want)
		}
		if h.ResolvedMethod() != m {
			t.Fatalf("method=%v: ResolvedMethod = %v, want unchanged", m, h.ResolvedMethod())
		}
	}
}

func TestMBOMVariantsMatch(t *testing.T) {
	for _, m := range []Method{MethodMBOM, MethodMBOM2} {
		h := newHandle(t, m, []string{"ABC", "BCD"})
		got := collect(h, []byte("AABCDABC"))
		want := []hit{{"ABC", 1}, {"BCD", 2}, {"ABC", 5}}
		sortHits(got)
		sortHits(want)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("method=%v: got %v, want %v", m, got, want)
		}
	}
}

func TestAutoPromotesToMBOM(t *testing.T) {
	h := newHandle(t, MethodAUTO, []string{"announce", "nouncer", "rence"})
	if h.ResolvedMethod() != MethodMBOM {
		t.Fatalf("ResolvedMethod() = %v, want MBOM (all patterns exceed threshold)", h.ResolvedMethod())
	}
	got := collect(h, []byte("announcer_rence"))
	want := []hit{{"announce", 0}, {"nouncer", 2}, {"rence", 10}}
	sortHits(got)
	sortHits(want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAutoFallsBackToDefaultAC(t *testing.T) {
	h := newHandle(t, MethodAUTO, []string{"he", "a"})
	if h.ResolvedMethod() != AUTODefaultMethod {
		t.Fatalf("ResolvedMethod() = %v, want %v (minLen below threshold)", h.ResolvedMethod(), AUTODefaultMethod)
	}
}

func TestAutoPromotesToMBOM2WithCompactConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OracleKind = OracleCompact
	h, err := New(MethodAUTO, cfg)
	if err != nil {
		t.Fatal(err)
	}
	h.AddPattern([]byte("announce"), false, 0, 0, "announce", 0)
	h.AddPattern([]byte("rence"), false, 0, 0, "rence", 0)
	if err := h.Compile(); err != nil {
		t.Fatal(err)
	}
	if h.ResolvedMethod() != MethodMBOM2 {
		t.Fatalf("ResolvedMethod() = %v, want MBOM2", h.ResolvedMethod())
	}
}

func TestOutOfScopeMethods(t *testing.T) {
	for _, m := range []Method{MethodMWM, MethodKTBM, MethodLOWMEM} {
		h, err := New(m, DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		if err := h.AddPattern([]byte("x"), false, 0, 0, "x", 0); err != ErrOutOfScope {
			t.Fatalf("method=%v: AddPattern = %v, want ErrOutOfScope", m, err)
		}
		if err := h.Compile(); err != ErrOutOfScope {
			t.Fatalf("method=%v: Compile = %v, want ErrOutOfScope", m, err)
		}
		if err := h.SetRuleMask(0); err != ErrOutOfScope {
			t.Fatalf("method=%v: SetRuleMask = %v, want ErrOutOfScope", m, err)
		}
	}
}

func TestSearchBeforeCompile(t *testing.T) {
	h, _ := New(MethodACF, DefaultConfig())
	h.AddPattern([]byte("x"), false, 0, 0, "x", 0)
	if _, err := h.Search([]byte("x"), func(any, int, any) int { return 0 }, nil); err != ErrNotCompiled {
		t.Fatalf("Search before Compile = %v, want ErrNotCompiled", err)
	}
}

func TestByteCounterAccumulatesAcrossHandles(t *testing.T) {
	ResetByteCount()

	h1 := newHandle(t, MethodACF, []string{"abc"})
	h2 := newHandle(t, MethodMBOM, []string{"abcdef"})

	h1.Search([]byte("xxabcxx"), func(any, int, any) int { return 0 }, nil)
	h2.Search([]byte("xxabcdefxx"), func(any, int, any) int { return 0 }, nil)

	want := uint64(len("xxabcxx") + len("xxabcdefxx"))
	if got := TotalBytesSearched(); got != want {
		t.Fatalf("TotalBytesSearched() = %d, want %d", got, want)
	}

	ResetByteCount()
	if got := TotalBytesSearched(); got != 0 {
		t.Fatalf("TotalBytesSearched() after reset = %d, want 0", got)
	}
}

func TestPrintSummaryAndDetail(t *testing.T) {
	h := newHandle(t, MethodACF, []string{"he", "she"})
	h.Search([]byte("ushers"), func(any, int, any) int { return 0 }, nil)

	var detail, summary bytes.Buffer
	if err := h.PrintDetail(&detail); err != nil {
		t.Fatal(err)
	}
	if err := h.PrintSummary(&summary); err != nil {
		t.Fatal(err)
	}
	if detail.Len() == 0 || summary.Len() == 0 {
		t.Fatal("expected non-empty detail and summary output")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBufferLen = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative MaxBufferLen")
	}
}

func TestMethodStringNonEmpty(t *testing.T) {
	for m := MethodMWM; m <= MethodAUTO; m++ {
		if m.String() == "" {
			t.Fatalf("method %d has empty String()", int(m))
		}
	}
}

func TestSetFormatRejectsDAWG(t *testing.T) {
	h, err := New(MethodMBOM, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.SetFormat(FormatDAWG); err == nil {
		t.Fatal("expected error selecting FormatDAWG")
	} else if mpseErr, ok := err.(*Error); !ok || mpseErr.Kind != UnsupportedFormat {
		t.Fatalf("SetFormat(FormatDAWG) = %v, want *Error{Kind: UnsupportedFormat}", err)
	}
}

func TestSetFormatOracleSucceedsThroughCompile(t *testing.T) {
	h, err := New(MethodMBOM, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.SetFormat(FormatOracle); err != nil {
		t.Fatalf("SetFormat(FormatOracle) = %v, want nil", err)
	}
	if err := h.AddPattern([]byte("abc"), false, 0, 0, "abc", 0); err != nil {
		t.Fatal(err)
	}
	if err := h.Compile(); err != nil {
		t.Fatalf("Compile after SetFormat(FormatOracle) = %v, want nil", err)
	}
}

func TestSetFormatAfterCompileRejected(t *testing.T) {
	h := newHandle(t, MethodMBOM, []string{"abc"})
	if err := h.SetFormat(FormatOracle); err == nil {
		t.Fatal("expected error calling SetFormat after Compile")
	}
}
