package stats

import (
	"github.com/heapdb/heapdb/db"
)

// NumHistBins is the bucket count every histogram TableStats builds uses.
const NumHistBins = 100

// columnHist is whichever histogram kind backs one column, selected by
// the column's DBType.
type columnHist interface {
	EstimateSelectivity(op db.BoolOp, field db.Field) (float64, error)
	AvgSelectivity(op db.BoolOp) float64
}

type intColumn struct{ h *IntHistogram }

func (c intColumn) EstimateSelectivity(op db.BoolOp, field db.Field) (float64, error) {
	v, ok := field.(db.IntField)
	if !ok {
		return 0, newTypeErr(field)
	}
	return c.h.EstimateSelectivity(op, v.Value), nil
}
func (c intColumn) AvgSelectivity(op db.BoolOp) float64 { return c.h.AvgSelectivity(op) }

type stringColumn struct{ h *StringHistogram }

func (c stringColumn) EstimateSelectivity(op db.BoolOp, field db.Field) (float64, error) {
	v, ok := field.(db.StringField)
	if !ok {
		return 0, newTypeErr(field)
	}
	return c.h.EstimateSelectivity(op, v.Value), nil
}
func (c stringColumn) AvgSelectivity(op db.BoolOp) float64 { return c.h.AvgSelectivity(op) }

func newTypeErr(field db.Field) error {
	return db.NewError(db.TypeMismatchError, "unexpected field type %T", field)
}

// TableStats holds per-column histograms for one table plus the page/tuple
// counts needed to cost a scan, built by scanning the table twice under an
// internal transaction: once to learn each INT column's [min, max] (and
// populate string histograms, which need no range), once more to fill the
// now-allocated int histograms.
type TableStats struct {
	numPages      int
	numTuples     int64
	ioCostPerPage float64
	columns       map[string]columnHist
}

// NewTableStats builds statistics for file by scanning it twice through bp
// under one internal transaction, which is committed before return.
func NewTableStats(bp *db.BufferPool, file *db.HeapFile, ioCostPerPage float64) (*TableStats, error) {
	desc := file.Descriptor()
	txn := db.NewTID()

	mins := make([]int64, len(desc.Fields))
	maxs := make([]int64, len(desc.Fields))
	for i := range mins {
		mins[i] = 1<<63 - 1
		maxs[i] = -(1 << 63)
	}
	strHists := make([]*StringHistogram, len(desc.Fields))
	for i, f := range desc.Fields {
		if f.Ftype == db.StringType {
			strHists[i] = NewStringHistogram(NumHistBins)
		}
	}

	scan1 := db.NewSeqScan(file, "")
	if err := scan1.Open(txn); err != nil {
		return nil, err
	}
	var numTuples int64
	for {
		has, err := scan1.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := scan1.Next()
		if err != nil {
			return nil, err
		}
		for i, f := range desc.Fields {
			val, err := t.Field(i)
			if err != nil {
				return nil, err
			}
			switch f.Ftype {
			case db.IntType:
				v := val.(db.IntField).Value
				if v < mins[i] {
					mins[i] = v
				}
				if v > maxs[i] {
					maxs[i] = v
				}
			case db.StringType:
				strHists[i].AddValue(val.(db.StringField).Value)
			}
		}
		numTuples++
	}
	if err := scan1.Close(); err != nil {
		return nil, err
	}

	intHists := make([]*IntHistogram, len(desc.Fields))
	for i, f := range desc.Fields {
		if f.Ftype == db.IntType {
			lo, hi := mins[i], maxs[i]
			if lo > hi {
				lo, hi = 0, 0
			}
			intHists[i] = NewIntHistogram(NumHistBins, lo, hi)
		}
	}

	scan2 := db.NewSeqScan(file, "")
	if err := scan2.Open(txn); err != nil {
		return nil, err
	}
	for {
		has, err := scan2.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := scan2.Next()
		if err != nil {
			return nil, err
		}
		for i, f := range desc.Fields {
			if f.Ftype != db.IntType {
				continue
			}
			val, err := t.Field(i)
			if err != nil {
				return nil, err
			}
			intHists[i].AddValue(val.(db.IntField).Value)
		}
	}
	if err := scan2.Close(); err != nil {
		return nil, err
	}

	if err := bp.TransactionComplete(txn, true); err != nil {
		return nil, err
	}

	columns := make(map[string]columnHist, len(desc.Fields))
	for i, f := range desc.Fields {
		switch f.Ftype {
		case db.IntType:
			columns[f.Name] = intColumn{h: intHists[i]}
		case db.StringType:
			columns[f.Name] = stringColumn{h: strHists[i]}
		}
	}

	return &TableStats{
		numPages:      file.NumPages(),
		numTuples:     numTuples,
		ioCostPerPage: ioCostPerPage,
		columns:       columns,
	}, nil
}

// EstimateScanCost estimates the I/O cost of a full sequential scan as
// numPages * ioCostPerPage * 2.
func (s *TableStats) EstimateScanCost() float64 {
	return float64(s.numPages) * s.ioCostPerPage * 2
}

// EstimateTableCardinality estimates the row count surviving a filter of
// the given selectivity.
func (s *TableStats) EstimateTableCardinality(selectivity float64) int {
	return int(float64(s.numTuples) * selectivity)
}

// AvgSelectivity estimates the typical selectivity of op against field,
// independent of any specific constant.
func (s *TableStats) AvgSelectivity(field string, op db.BoolOp) float64 {
	col, ok := s.columns[field]
	if !ok {
		return 1
	}
	return col.AvgSelectivity(op)
}

// EstimateSelectivity estimates the selectivity of `field op constant`
// using field's histogram.
func (s *TableStats) EstimateSelectivity(field string, op db.BoolOp, constant db.Field) (float64, error) {
	col, ok := s.columns[field]
	if !ok {
		return 1, nil
	}
	return col.EstimateSelectivity(op, constant)
}
