package db

import "sort"

// OrderBy materializes its child's entire output and re-emits it sorted by
// fieldIdx, ascending or descending. There is no cost-based optimizer here,
// just a sort operator.
type OrderBy struct {
	pulled
	child    Operator
	fieldIdx int
	desc     bool

	sorted []*Tuple
	pos    int
	ready  bool
}

// NewOrderBy sorts child's output by fieldIdx; descending if desc is true.
func NewOrderBy(child Operator, fieldIdx int, desc bool) *OrderBy {
	return &OrderBy{child: child, fieldIdx: fieldIdx, desc: desc}
}

func (o *OrderBy) Open(txn TransactionID) error {
	o.reset()
	o.ready = false
	o.pos = 0
	return o.child.Open(txn)
}

func (o *OrderBy) Close() error {
	return o.child.Close()
}

func (o *OrderBy) Rewind() error {
	o.reset()
	o.pos = 0
	// Already materialized: no need to re-drain the child.
	return nil
}

func (o *OrderBy) materialize() error {
	o.sorted = nil
	for {
		has, err := o.child.HasNext()
		if err != nil || !has {
			if err != nil {
				return err
			}
			break
		}
		t, err := o.child.Next()
		if err != nil {
			return err
		}
		o.sorted = append(o.sorted, t)
	}
	var sortErr error
	sort.SliceStable(o.sorted, func(i, j int) bool {
		fi, err := o.sorted[i].Field(o.fieldIdx)
		if err != nil {
			sortErr = err
			return false
		}
		fj, err := o.sorted[j].Field(o.fieldIdx)
		if err != nil {
			sortErr = err
			return false
		}
		op := OpLt
		if o.desc {
			op = OpGt
		}
		less, err := fi.Compare(op, fj)
		if err != nil {
			sortErr = err
			return false
		}
		return less
	})
	o.ready = true
	return sortErr
}

func (o *OrderBy) pull() (*Tuple, error) {
	if !o.ready {
		if err := o.materialize(); err != nil {
			return nil, err
		}
	}
	if o.pos >= len(o.sorted) {
		return nil, nil
	}
	t := o.sorted[o.pos]
	o.pos++
	return t, nil
}

func (o *OrderBy) HasNext() (bool, error) { return o.hasNext(o.pull) }
func (o *OrderBy) Next() (*Tuple, error)  { return o.next(o.pull) }

func (o *OrderBy) TupleDesc() *TupleDesc { return o.child.TupleDesc() }
func (o *OrderBy) Children() []Operator  { return []Operator{o.child} }
func (o *OrderBy) SetChildren(children []Operator) {
	o.child = children[0]
}
