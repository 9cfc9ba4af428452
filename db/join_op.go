package db

// Join is a nested-loop equi/theta join: for every outer tuple
// it rescans the inner child, emitting Merge(outer, inner) for every pair
// satisfying the predicate. The outer and inner field indices are each
// relative to their own child's schema, not to the merged output.
type Join struct {
	pulled
	outer, inner Operator
	outerField   int
	innerField   int
	op           BoolOp
	desc         *TupleDesc

	curOuter *Tuple
}

// NewJoin joins outer and inner on outerField (outer's own field index)
// compared via op against innerField (inner's own field index).
func NewJoin(outer Operator, outerField int, op BoolOp, inner Operator, innerField int) *Join {
	return &Join{
		outer:      outer,
		inner:      inner,
		outerField: outerField,
		innerField: innerField,
		op:         op,
		desc:       outer.TupleDesc().Merge(inner.TupleDesc()),
	}
}

func (j *Join) Open(txn TransactionID) error {
	j.reset()
	j.curOuter = nil
	if err := j.outer.Open(txn); err != nil {
		return err
	}
	return j.inner.Open(txn)
}

func (j *Join) Close() error {
	if err := j.outer.Close(); err != nil {
		return err
	}
	return j.inner.Close()
}

func (j *Join) Rewind() error {
	j.reset()
	j.curOuter = nil
	if err := j.outer.Rewind(); err != nil {
		return err
	}
	return j.inner.Rewind()
}

func (j *Join) pull() (*Tuple, error) {
	for {
		if j.curOuter == nil {
			has, err := j.outer.HasNext()
			if err != nil || !has {
				return nil, err
			}
			t, err := j.outer.Next()
			if err != nil {
				return nil, err
			}
			j.curOuter = t
			if err := j.inner.Rewind(); err != nil {
				return nil, err
			}
		}

		has, err := j.inner.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			j.curOuter = nil
			continue
		}
		innerTup, err := j.inner.Next()
		if err != nil {
			return nil, err
		}

		outerField, err := j.curOuter.Field(j.outerField)
		if err != nil {
			return nil, err
		}
		innerField, err := innerTup.Field(j.innerField)
		if err != nil {
			return nil, err
		}
		ok, err := outerField.Compare(j.op, innerField)
		if err != nil {
			return nil, err
		}
		if ok {
			return Merge(j.curOuter, innerTup), nil
		}
	}
}

func (j *Join) HasNext() (bool, error) { return j.hasNext(j.pull) }
func (j *Join) Next() (*Tuple, error)  { return j.next(j.pull) }

func (j *Join) TupleDesc() *TupleDesc { return j.desc }
func (j *Join) Children() []Operator  { return []Operator{j.outer, j.inner} }
func (j *Join) SetChildren(children []Operator) {
	j.outer, j.inner = children[0], children[1]
}
