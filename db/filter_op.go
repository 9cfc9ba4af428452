package db

// Filter passes through only child tuples for which pred evaluates true
// Its output schema is identical to its child's.
type Filter struct {
	pulled
	pred  Predicate
	child Operator
}

// NewFilter returns a Filter evaluating pred against child's output.
func NewFilter(pred Predicate, child Operator) *Filter {
	return &Filter{pred: pred, child: child}
}

func (f *Filter) Open(txn TransactionID) error {
	f.reset()
	return f.child.Open(txn)
}

func (f *Filter) Close() error {
	return f.child.Close()
}

func (f *Filter) Rewind() error {
	f.reset()
	return f.child.Rewind()
}

func (f *Filter) pull() (*Tuple, error) {
	for {
		has, err := f.child.HasNext()
		if err != nil || !has {
			return nil, err
		}
		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		ok, err := f.pred.Eval(t)
		if err != nil {
			return nil, err
		}
		if ok {
			return t, nil
		}
	}
}

func (f *Filter) HasNext() (bool, error) { return f.hasNext(f.pull) }
func (f *Filter) Next() (*Tuple, error)  { return f.next(f.pull) }

func (f *Filter) TupleDesc() *TupleDesc { return f.child.TupleDesc() }
func (f *Filter) Children() []Operator  { return []Operator{f.child} }
func (f *Filter) SetChildren(children []Operator) {
	f.child = children[0]
}
