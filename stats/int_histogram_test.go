package stats

import (
	"testing"

	"github.com/heapdb/heapdb/db"
)

func TestIntHistogramSelectivitySanity(t *testing.T) {
	h := NewIntHistogram(10, 1, 100)
	for v := int64(1); v <= 100; v++ {
		h.AddValue(v)
	}

	got := h.EstimateSelectivity(db.OpGt, 50)
	if got < 0.45 || got > 0.55 {
		t.Errorf("expected GT(50) selectivity near 0.5 for a uniform [1,100] sample, got %v", got)
	}
}

func TestIntHistogramEqAndNeqComplement(t *testing.T) {
	h := NewIntHistogram(5, 0, 9)
	for _, v := range []int64{1, 1, 1, 5, 9} {
		h.AddValue(v)
	}

	eq := h.EstimateSelectivity(db.OpEq, 1)
	neq := h.EstimateSelectivity(db.OpNeq, 1)
	if got, want := eq+neq, 1.0; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("expected EQ+NEQ == 1, got %v", got)
	}
}

func TestIntHistogramOutOfRangeBounds(t *testing.T) {
	h := NewIntHistogram(4, 10, 20)
	for v := int64(10); v <= 20; v++ {
		h.AddValue(v)
	}

	if got := h.EstimateSelectivity(db.OpGt, 25); got != 0 {
		t.Errorf("expected GT above max to be 0, got %v", got)
	}
	if got := h.EstimateSelectivity(db.OpGt, 5); got != 1 {
		t.Errorf("expected GT below min to be 1, got %v", got)
	}
}

func TestIntHistogramGeLtLeConsistency(t *testing.T) {
	h := NewIntHistogram(10, 1, 100)
	for v := int64(1); v <= 100; v++ {
		h.AddValue(v)
	}

	for _, v := range []int64{1, 30, 50, 77, 100} {
		ge := h.EstimateSelectivity(db.OpGe, v)
		lt := h.EstimateSelectivity(db.OpLt, v)
		if got, want := ge+lt, 1.0; got < want-1e-9 || got > want+1e-9 {
			t.Errorf("v=%d: expected GE+LT == 1, got %v", v, got)
		}
		le := h.EstimateSelectivity(db.OpLe, v)
		gt := h.EstimateSelectivity(db.OpGt, v)
		if got, want := le+gt, 1.0; got < want-1e-9 || got > want+1e-9 {
			t.Errorf("v=%d: expected LE+GT == 1, got %v", v, got)
		}
	}
}
