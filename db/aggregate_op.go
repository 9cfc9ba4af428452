package db

// NoGrouping marks an Aggregate with no GROUP BY field: the whole input is
// one implicit group.
const NoGrouping = -1

// Aggregate computes one aggregate function over its child, optionally
// per-group. groupFieldIdx is NoGrouping or an index into the
// child's TupleDesc. Groups are emitted in first-seen order.
type Aggregate struct {
	pulled
	child         Operator
	aggFieldIdx   int
	groupFieldIdx int
	op            AggOp
	desc          *TupleDesc

	groupKeys   []Field
	states      map[Field]aggState
	emitIdx     int
	computed    bool
}

// NewAggregate aggregates child's aggFieldIdx column with op, grouped by
// groupFieldIdx (or NoGrouping).
func NewAggregate(child Operator, aggFieldIdx int, groupFieldIdx int, op AggOp) *Aggregate {
	childDesc := child.TupleDesc()
	var fields []FieldType
	if groupFieldIdx != NoGrouping {
		fields = append(fields, childDesc.Fields[groupFieldIdx])
	}
	resultName := op.String() + "(" + childDesc.Fields[aggFieldIdx].Name + ")"
	resultType := IntType
	if op == AggMin || op == AggMax {
		resultType = childDesc.Fields[aggFieldIdx].Ftype
	}
	fields = append(fields, FieldType{Name: resultName, Ftype: resultType})

	return &Aggregate{
		child:         child,
		aggFieldIdx:   aggFieldIdx,
		groupFieldIdx: groupFieldIdx,
		op:            op,
		desc:          &TupleDesc{Fields: fields},
	}
}

func (a *Aggregate) Open(txn TransactionID) error {
	a.reset()
	a.computed = false
	a.emitIdx = 0
	return a.child.Open(txn)
}

func (a *Aggregate) Close() error {
	return a.child.Close()
}

func (a *Aggregate) Rewind() error {
	a.reset()
	a.computed = false
	a.emitIdx = 0
	return a.child.Rewind()
}

// compute drains the child exactly once, accumulating one aggState per
// distinct group key.
func (a *Aggregate) compute() error {
	a.groupKeys = nil
	a.states = make(map[Field]aggState)
	var ftype DBType

	for {
		has, err := a.child.HasNext()
		if err != nil || !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		aggField, err := t.Field(a.aggFieldIdx)
		if err != nil {
			return err
		}
		ftype = aggField.Type()

		var key Field = IntField{Value: 0}
		if a.groupFieldIdx != NoGrouping {
			key, err = t.Field(a.groupFieldIdx)
			if err != nil {
				return err
			}
		}
		st, ok := a.states[key]
		if !ok {
			st, err = newAggState(a.op, ftype)
			if err != nil {
				return err
			}
			a.states[key] = st
			a.groupKeys = append(a.groupKeys, key)
		}
		if err := st.add(aggField); err != nil {
			return err
		}
	}
	a.computed = true
	return nil
}

func (a *Aggregate) pull() (*Tuple, error) {
	if !a.computed {
		if err := a.compute(); err != nil {
			return nil, err
		}
	}
	if a.emitIdx >= len(a.groupKeys) {
		return nil, nil
	}
	key := a.groupKeys[a.emitIdx]
	a.emitIdx++

	t := NewTuple(a.desc)
	if a.groupFieldIdx != NoGrouping {
		t.Fields[0] = key
		t.Fields[1] = a.states[key].result()
	} else {
		t.Fields[0] = a.states[key].result()
	}
	return t, nil
}

func (a *Aggregate) HasNext() (bool, error) { return a.hasNext(a.pull) }
func (a *Aggregate) Next() (*Tuple, error)  { return a.next(a.pull) }

func (a *Aggregate) TupleDesc() *TupleDesc { return a.desc }
func (a *Aggregate) Children() []Operator  { return []Operator{a.child} }
func (a *Aggregate) SetChildren(children []Operator) {
	a.child = children[0]
}
