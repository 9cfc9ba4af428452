package stats

import (
	"github.com/tylertreat/BoomFilters"

	"github.com/heapdb/heapdb/db"
)

// StringHistogram estimates string selectivity by mapping each string to
// an integer via a deterministic 4-character code and delegating
// range/inequality estimates to an IntHistogram over that code space. EQ
// and NEQ additionally consult a Count-Min Sketch of the exact strings
// seen, which gives an exact-count estimate finer than the lossy 4-char
// bucketing the ordered comparisons are stuck with.
type StringHistogram struct {
	codes *IntHistogram
	cms   *boom.CountMinSketch
	n     int64
}

// stringMaxCode is the maximum value stringCode can return: 4 bytes packed
// big-endian into an int64.
const stringMaxCode = (1 << 32) - 1

// NewStringHistogram allocates a StringHistogram with nBuckets buckets
// over the full 4-character code range.
func NewStringHistogram(nBuckets int) *StringHistogram {
	return &StringHistogram{
		codes: NewIntHistogram(nBuckets, 0, stringMaxCode),
		cms:   boom.NewCountMinSketch(0.001, 0.999),
	}
}

// stringCode packs the first 4 bytes of s (space-padded if shorter) into a
// big-endian uint32, giving an order-preserving-enough integer proxy for
// range estimation. Not a full encoding: strings differing only after the
// 4th byte collide.
func stringCode(s string) int64 {
	var b [4]byte
	for i := range b {
		if i < len(s) {
			b[i] = s[i]
		} else {
			b[i] = ' '
		}
	}
	return int64(b[0])<<24 | int64(b[1])<<16 | int64(b[2])<<8 | int64(b[3])
}

// AddValue records one occurrence of s.
func (h *StringHistogram) AddValue(s string) {
	h.codes.AddValue(stringCode(s))
	h.cms.Add([]byte(s))
	h.n++
}

// AvgSelectivity estimates the typical selectivity of op against this
// column, independent of any specific string constant, via the underlying
// code histogram's running mean (the exact-count CMS path needs a literal
// string, so EQ/NEQ fall back to the code histogram here too).
func (h *StringHistogram) AvgSelectivity(op db.BoolOp) float64 {
	return h.codes.AvgSelectivity(op)
}

// EstimateSelectivity estimates the fraction of added values for which
// `value op s` holds. EQ/NEQ use the exact Count-Min Sketch frequency;
// every ordered comparison falls back to the 4-character-code histogram.
func (h *StringHistogram) EstimateSelectivity(op db.BoolOp, s string) float64 {
	switch op {
	case db.OpEq:
		if h.n == 0 {
			return 0
		}
		return float64(h.cms.Count([]byte(s))) / float64(h.n)
	case db.OpNeq:
		if h.n == 0 {
			return 1
		}
		return 1 - float64(h.cms.Count([]byte(s)))/float64(h.n)
	case db.OpLike:
		// Prefix-code equality, not a substring estimate: a coarse stand-in
		// for the true substring match Field.Compare performs for LIKE.
		return h.codes.EstimateSelectivity(db.OpEq, stringCode(s))
	default:
		return h.codes.EstimateSelectivity(op, stringCode(s))
	}
}
