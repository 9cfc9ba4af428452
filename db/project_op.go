package db

// Project narrows and/or reorders its child's output to a chosen subset of
// field indices.
type Project struct {
	pulled
	child   Operator
	indices []int
	desc    *TupleDesc
}

// NewProject selects indices (into child's TupleDesc) in the given order.
func NewProject(child Operator, indices []int) *Project {
	childDesc := child.TupleDesc()
	fields := make([]FieldType, len(indices))
	for i, idx := range indices {
		fields[i] = childDesc.Fields[idx]
	}
	return &Project{
		child:   child,
		indices: indices,
		desc:    &TupleDesc{Fields: fields},
	}
}

func (p *Project) Open(txn TransactionID) error {
	p.reset()
	return p.child.Open(txn)
}

func (p *Project) Close() error {
	return p.child.Close()
}

func (p *Project) Rewind() error {
	p.reset()
	return p.child.Rewind()
}

func (p *Project) pull() (*Tuple, error) {
	has, err := p.child.HasNext()
	if err != nil || !has {
		return nil, err
	}
	t, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	out := NewTuple(p.desc)
	for i, idx := range p.indices {
		f, err := t.Field(idx)
		if err != nil {
			return nil, err
		}
		out.Fields[i] = f
	}
	return out, nil
}

func (p *Project) HasNext() (bool, error) { return p.hasNext(p.pull) }
func (p *Project) Next() (*Tuple, error)  { return p.next(p.pull) }

func (p *Project) TupleDesc() *TupleDesc { return p.desc }
func (p *Project) Children() []Operator  { return []Operator{p.child} }
func (p *Project) SetChildren(children []Operator) {
	p.child = children[0]
}
