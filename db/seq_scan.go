package db

// SeqScan reads every tuple of one heap file in storage order, the leaf
// operator at the bottom of every plan that touches a table.
type SeqScan struct {
	pulled
	file  *HeapFile
	alias string
	desc  *TupleDesc

	txn    TransactionID
	cursor *heapFileCursor
}

// NewSeqScan returns a scan over file. alias, if non-empty, prefixes every
// output field name ("alias.field") so self-joins can disambiguate columns.
func NewSeqScan(file *HeapFile, alias string) *SeqScan {
	return &SeqScan{
		file:  file,
		alias: alias,
		desc:  file.Descriptor().WithAlias(alias),
	}
}

func (s *SeqScan) Open(txn TransactionID) error {
	s.txn = txn
	s.cursor = s.file.iterator(txn)
	s.reset()
	return s.cursor.open()
}

func (s *SeqScan) Close() error {
	if s.cursor == nil {
		return nil
	}
	return s.cursor.close()
}

func (s *SeqScan) Rewind() error {
	s.reset()
	return s.cursor.rewind()
}

func (s *SeqScan) pull() (*Tuple, error) {
	t, err := s.cursor.next()
	if err != nil || t == nil {
		return nil, err
	}
	return &Tuple{Desc: s.desc, Fields: t.Fields, Rid: t.Rid}, nil
}

func (s *SeqScan) HasNext() (bool, error) { return s.hasNext(s.pull) }
func (s *SeqScan) Next() (*Tuple, error)  { return s.next(s.pull) }

func (s *SeqScan) TupleDesc() *TupleDesc    { return s.desc }
func (s *SeqScan) Children() []Operator     { return nil }
func (s *SeqScan) SetChildren(_ []Operator) {}
