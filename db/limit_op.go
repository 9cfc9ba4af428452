package db

// Limit passes through at most n tuples from its child, then reports
// exhausted.
type Limit struct {
	pulled
	child   Operator
	n       int
	emitted int
}

// NewLimit caps child's output at n tuples.
func NewLimit(child Operator, n int) *Limit {
	return &Limit{child: child, n: n}
}

func (l *Limit) Open(txn TransactionID) error {
	l.reset()
	l.emitted = 0
	return l.child.Open(txn)
}

func (l *Limit) Close() error {
	return l.child.Close()
}

func (l *Limit) Rewind() error {
	l.reset()
	l.emitted = 0
	return l.child.Rewind()
}

func (l *Limit) pull() (*Tuple, error) {
	if l.emitted >= l.n {
		return nil, nil
	}
	has, err := l.child.HasNext()
	if err != nil || !has {
		return nil, err
	}
	t, err := l.child.Next()
	if err != nil {
		return nil, err
	}
	l.emitted++
	return t, nil
}

func (l *Limit) HasNext() (bool, error) { return l.hasNext(l.pull) }
func (l *Limit) Next() (*Tuple, error)  { return l.next(l.pull) }

func (l *Limit) TupleDesc() *TupleDesc { return l.child.TupleDesc() }
func (l *Limit) Children() []Operator  { return []Operator{l.child} }
func (l *Limit) SetChildren(children []Operator) {
	l.child = children[0]
}
