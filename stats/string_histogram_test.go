package stats

import (
	"testing"

	"github.com/heapdb/heapdb/db"
)

func TestStringHistogramEqMatchesExactFrequency(t *testing.T) {
	h := NewStringHistogram(10)
	for _, s := range []string{"apple", "apple", "banana", "cherry"} {
		h.AddValue(s)
	}

	got := h.EstimateSelectivity(db.OpEq, "apple")
	want := 2.0 / 4.0
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("expected EQ(apple) selectivity %v, got %v", want, got)
	}
}

func TestStringHistogramEqAndNeqComplement(t *testing.T) {
	h := NewStringHistogram(10)
	for _, s := range []string{"apple", "apple", "banana", "cherry"} {
		h.AddValue(s)
	}

	eq := h.EstimateSelectivity(db.OpEq, "apple")
	neq := h.EstimateSelectivity(db.OpNeq, "apple")
	if got, want := eq+neq, 1.0; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("expected EQ+NEQ == 1, got %v", got)
	}
}

func TestStringHistogramOrderedComparisonUsesCodeHistogram(t *testing.T) {
	h := NewStringHistogram(10)
	for _, s := range []string{"aaaa", "bbbb", "cccc", "dddd", "eeee"} {
		h.AddValue(s)
	}

	got := h.EstimateSelectivity(db.OpGt, "cccc")
	if got <= 0 || got >= 1 {
		t.Errorf("expected a middling GT selectivity for a midpoint string, got %v", got)
	}
}
