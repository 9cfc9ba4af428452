package db

// Delete reads every tuple from its child and deletes it through bp,
// emitting a single tuple holding the count deleted. Like
// Insert, it is a sink: draining it exactly once performs the deletes.
type Delete struct {
	pulled
	child Operator
	bp    *BufferPool
	desc  *TupleDesc

	txn  TransactionID
	done bool
}

// NewDelete deletes every tuple child produces through bp. child's tuples
// must carry a RecordID (e.g. come from a SeqScan), since that identifies
// the page and slot to delete from.
func NewDelete(child Operator, bp *BufferPool) *Delete {
	return &Delete{
		child: child,
		bp:    bp,
		desc:  &TupleDesc{Fields: []FieldType{{Name: "deleteNums", Ftype: IntType}}},
	}
}

func (del *Delete) Open(txn TransactionID) error {
	del.reset()
	del.txn = txn
	del.done = false
	return del.child.Open(txn)
}

func (del *Delete) Close() error {
	return del.child.Close()
}

func (del *Delete) Rewind() error {
	del.reset()
	del.done = false
	return del.child.Rewind()
}

func (del *Delete) pull() (*Tuple, error) {
	if del.done {
		return nil, nil
	}
	del.done = true

	var count int64
	for {
		has, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}
		if err := del.bp.DeleteTuple(del.txn, t); err != nil {
			return nil, err
		}
		count++
	}

	result := NewTuple(del.desc)
	result.Fields[0] = IntField{Value: count}
	return result, nil
}

func (del *Delete) HasNext() (bool, error) { return del.hasNext(del.pull) }
func (del *Delete) Next() (*Tuple, error)  { return del.next(del.pull) }

func (del *Delete) TupleDesc() *TupleDesc { return del.desc }
func (del *Delete) Children() []Operator  { return []Operator{del.child} }
func (del *Delete) SetChildren(children []Operator) {
	del.child = children[0]
}
