package db

// Insert reads every tuple from its child and inserts it into tableID via
// bp, emitting a single tuple holding the count inserted. It
// is a sink operator: its own child drives the insertion as a side effect
// of being drained, exactly once.
type Insert struct {
	pulled
	child   Operator
	bp      *BufferPool
	tableID int
	desc    *TupleDesc

	txn  TransactionID
	done bool
}

// NewInsert inserts every tuple child produces into tableID through bp.
func NewInsert(child Operator, bp *BufferPool, tableID int) *Insert {
	return &Insert{
		child:   child,
		bp:      bp,
		tableID: tableID,
		desc:    &TupleDesc{Fields: []FieldType{{Name: "insertNums", Ftype: IntType}}},
	}
}

func (ins *Insert) Open(txn TransactionID) error {
	ins.reset()
	ins.txn = txn
	ins.done = false
	return ins.child.Open(txn)
}

func (ins *Insert) Close() error {
	return ins.child.Close()
}

func (ins *Insert) Rewind() error {
	ins.reset()
	ins.done = false
	return ins.child.Rewind()
}

func (ins *Insert) pull() (*Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true

	var count int64
	for {
		has, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.bp.InsertTuple(ins.txn, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}

	result := NewTuple(ins.desc)
	result.Fields[0] = IntField{Value: count}
	return result, nil
}

func (ins *Insert) HasNext() (bool, error) { return ins.hasNext(ins.pull) }
func (ins *Insert) Next() (*Tuple, error)  { return ins.next(ins.pull) }

func (ins *Insert) TupleDesc() *TupleDesc { return ins.desc }
func (ins *Insert) Children() []Operator  { return []Operator{ins.child} }
func (ins *Insert) SetChildren(children []Operator) {
	ins.child = children[0]
}
