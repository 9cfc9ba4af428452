// Package stats estimates query selectivity from per-column histograms,
// the component TableStats consults when costing a scan or filter.
package stats

import "github.com/heapdb/heapdb/db"

// IntHistogram is an equi-width histogram over an inclusive [min, max]
// range of int64 values, grounded on the course lab's
// NewIntHistogram/AddValue/EstimateSelectivity contract (left unimplemented
// in the retrieved teacher sources; built here to the formulas this
// this package implements).
type IntHistogram struct {
	buckets []int64
	min     int64
	max     int64
	width   int64
	n       int64
	sum     int64
}

// NewIntHistogram allocates nBuckets equi-width buckets spanning [vMin,
// vMax] inclusive. width is max(1, (vMax-vMin+1)/nBuckets), so narrow
// ranges still get one value per bucket rather than a zero-width bucket.
func NewIntHistogram(nBuckets int, vMin, vMax int64) *IntHistogram {
	width := (vMax - vMin + 1) / int64(nBuckets)
	if width < 1 {
		width = 1
	}
	return &IntHistogram{
		buckets: make([]int64, nBuckets),
		min:     vMin,
		max:     vMax,
		width:   width,
	}
}

func (h *IntHistogram) bucketIndex(v int64) int {
	i := int((v - h.min) / h.width)
	if i < 0 {
		i = 0
	}
	if i >= len(h.buckets) {
		i = len(h.buckets) - 1
	}
	return i
}

// AddValue increments the bucket covering v, if v falls within [min, max].
func (h *IntHistogram) AddValue(v int64) {
	if v < h.min || v > h.max {
		return
	}
	h.buckets[h.bucketIndex(v)]++
	h.n++
	h.sum += v
}

// AvgSelectivity estimates the typical selectivity of op against this
// column, independent of any specific constant, by evaluating op at the
// column's running mean value. Used where a planner needs a selectivity
// figure before a literal constant is known.
func (h *IntHistogram) AvgSelectivity(op db.BoolOp) float64 {
	if h.n == 0 {
		return 1
	}
	return h.EstimateSelectivity(op, h.sum/h.n)
}

// bucketRightEdge returns the first value past bucket i (its exclusive
// right edge). The last bucket also holds every value up to max, since
// bucketIndex folds overflow into it.
func (h *IntHistogram) bucketRightEdge(i int) int64 {
	edge := h.min + int64(i+1)*h.width
	if edge > h.max+1 || i == len(h.buckets)-1 {
		edge = h.max + 1
	}
	return edge
}

func (h *IntHistogram) eq(v int64) float64 {
	if v < h.min || v > h.max || h.n == 0 {
		return 0
	}
	i := h.bucketIndex(v)
	return float64(h.buckets[i]) / float64(h.width) / float64(h.n)
}

func (h *IntHistogram) gt(v int64) float64 {
	if v >= h.max {
		return 0
	}
	if v < h.min {
		return 1
	}
	if h.n == 0 {
		return 0
	}
	i := h.bucketIndex(v)
	var sum float64
	for j := i + 1; j < len(h.buckets); j++ {
		sum += float64(h.buckets[j])
	}
	rightEdge := h.bucketRightEdge(i)
	sum += float64(rightEdge-v-1) * (float64(h.buckets[i]) / float64(h.width))
	return sum / float64(h.n)
}

// EstimateSelectivity returns the estimated fraction of added values for
// which `value op v` holds, per this module's exact formulas for
// EQ/NEQ/GT/GE/LT/LE.
func (h *IntHistogram) EstimateSelectivity(op db.BoolOp, v int64) float64 {
	switch op {
	case db.OpEq, db.OpLike:
		return h.eq(v)
	case db.OpNeq:
		return 1 - h.eq(v)
	case db.OpGt:
		return h.gt(v)
	case db.OpGe:
		return h.eq(v) + h.gt(v)
	case db.OpLt:
		return 1 - (h.eq(v) + h.gt(v))
	case db.OpLe:
		return 1 - h.gt(v)
	}
	return 1
}
