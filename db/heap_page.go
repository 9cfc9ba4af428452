package db

import "bytes"

// HeapPage is a decoded fixed-size page: a header bitmap followed by
// numSlots fixed-width tuple slots. It carries a before-image snapshot,
// captured when the page is read from disk and again after each commit,
// which the buffer pool logs as the before image of an update record.
type HeapPage struct {
	pid      PageID
	desc     *TupleDesc
	file     *HeapFile
	numSlots int
	header   []byte // headerSize bytes; bit i = byte i/8, position i%8 (LSB = slot 0)
	slots    []*Tuple

	dirty    bool
	dirtyTxn TransactionID

	beforeImage []byte
}

// heapPageLayout computes the slot count and header size for tuples of the
// given on-disk width within a PageSize-byte page: numSlots =
// floor((pageSize*8) / (tupleSize*8 + 1)); headerSize = ceil(numSlots/8).
func heapPageLayout(tupleSize int) (numSlots, headerSize int) {
	numSlots = (PageSize * 8) / (tupleSize*8 + 1)
	headerSize = (numSlots + 7) / 8
	return
}

// newHeapPage allocates a fresh, all-empty page.
func newHeapPage(pid PageID, desc *TupleDesc, file *HeapFile) *HeapPage {
	numSlots, headerSize := heapPageLayout(desc.Size())
	return &HeapPage{
		pid:      pid,
		desc:     desc,
		file:     file,
		numSlots: numSlots,
		header:   make([]byte, headerSize),
		slots:    make([]*Tuple, numSlots),
	}
}

// deserializeHeapPage decodes a page previously produced by (*HeapPage).serialize.
func deserializeHeapPage(pid PageID, desc *TupleDesc, file *HeapFile, data []byte) (*HeapPage, error) {
	p := newHeapPage(pid, desc, file)
	buf := bytes.NewBuffer(data)
	if _, err := buf.Read(p.header); err != nil {
		return nil, newErr(IOError, "reading page header: %v", err)
	}
	tupleSize := desc.Size()
	for i := 0; i < p.numSlots; i++ {
		raw := buf.Next(tupleSize)
		if !p.slotUsed(i) {
			continue
		}
		if len(raw) < tupleSize {
			return nil, newErr(IOError, "truncated slot %d", i)
		}
		t, err := readTupleFrom(bytes.NewBuffer(raw), desc)
		if err != nil {
			return nil, err
		}
		rid := RecordID{PID: pid, Slot: i}
		t.Rid = &rid
		p.slots[i] = t
	}
	return p, nil
}

// serialize encodes the page to exactly PageSize bytes: header bitmap
// followed by one fixed-width block per slot (empty slots contribute
// unspecified but size-correct bytes).
func (p *HeapPage) serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(PageSize)
	buf.Write(p.header)
	tupleSize := p.desc.Size()
	for i := 0; i < p.numSlots; i++ {
		if p.slots[i] == nil {
			buf.Write(make([]byte, tupleSize))
			continue
		}
		before := buf.Len()
		if err := p.slots[i].writeTo(&buf); err != nil {
			return nil, err
		}
		if buf.Len()-before != tupleSize {
			return nil, newErr(MalformedDataError, "slot %d serialized to %d bytes, expected %d", i, buf.Len()-before, tupleSize)
		}
	}
	out := buf.Bytes()
	if len(out) < PageSize {
		out = append(out, make([]byte, PageSize-len(out))...)
	}
	return out[:PageSize], nil
}

func (p *HeapPage) slotUsed(i int) bool {
	return p.header[i/8]&(1<<uint(i%8)) != 0
}

func (p *HeapPage) setSlotUsed(i int, used bool) {
	if used {
		p.header[i/8] |= 1 << uint(i%8)
	} else {
		p.header[i/8] &^= 1 << uint(i%8)
	}
}

// NumSlots returns the total slot count.
func (p *HeapPage) NumSlots() int {
	return p.numSlots
}

// NumEmptySlots returns the count of unset bitmap bits.
func (p *HeapPage) NumEmptySlots() int {
	n := 0
	for i := 0; i < p.numSlots; i++ {
		if !p.slotUsed(i) {
			n++
		}
	}
	return n
}

// ID returns this page's identity.
func (p *HeapPage) ID() PageID {
	return p.pid
}

// Iterator returns a pull function yielding tuples for set slots in
// ascending slot order, each with its RecordID assigned.
func (p *HeapPage) Iterator() func() (*Tuple, error) {
	i := 0
	return func() (*Tuple, error) {
		for i < p.numSlots {
			slot := i
			i++
			if p.slots[slot] != nil {
				return p.slots[slot], nil
			}
		}
		return nil, nil
	}
}

// InsertTuple places t into the lowest-numbered empty slot, assigning its
// RecordID. Fails with SchemaMismatchError if t's desc doesn't match the
// page's, or PageFullError if every slot is occupied.
func (p *HeapPage) InsertTuple(t *Tuple) error {
	if !t.Desc.Equals(p.desc) {
		return newErr(SchemaMismatchError, "tuple desc does not match page desc")
	}
	for i := 0; i < p.numSlots; i++ {
		if p.slotUsed(i) {
			continue
		}
		p.setSlotUsed(i, true)
		rid := RecordID{PID: p.pid, Slot: i}
		stored := &Tuple{Desc: t.Desc, Fields: append([]Field{}, t.Fields...), Rid: &rid}
		p.slots[i] = stored
		t.Rid = &rid
		return nil
	}
	return newErr(PageFullError, "page %v has no free slot", p.pid)
}

// DeleteTuple clears t's slot. Fails with TupleNotFoundError ("not on
// page") if t has no RecordID on this page, the slot is already empty, or
// the stored tuple differs from t.
func (p *HeapPage) DeleteTuple(t *Tuple) error {
	if t.Rid == nil || !t.Rid.PID.Equals(p.pid) {
		return newErr(TupleNotFoundError, "tuple is not on page %v", p.pid)
	}
	slot := t.Rid.Slot
	if slot < 0 || slot >= p.numSlots || !p.slotUsed(slot) {
		return newErr(TupleNotFoundError, "slot %d is not occupied on page %v", slot, p.pid)
	}
	if stored := p.slots[slot]; stored == nil || !stored.Equals(t) {
		return newErr(TupleNotFoundError, "stored tuple at slot %d differs from %v", slot, t)
	}
	p.setSlotUsed(slot, false)
	p.slots[slot] = nil
	return nil
}

// MarkDirty sets or clears the page's dirty bit, recording the dirtying
// transaction.
func (p *HeapPage) MarkDirty(dirty bool, txn TransactionID) {
	p.dirty = dirty
	if dirty {
		p.dirtyTxn = txn
	}
}

// IsDirty reports whether the page is dirty and, if so, which transaction
// dirtied it.
func (p *HeapPage) IsDirty() (TransactionID, bool) {
	return p.dirtyTxn, p.dirty
}

// SetBeforeImage captures the page's current serialized bytes as its
// before-image, to be returned by GetBeforeImage until the next call.
func (p *HeapPage) SetBeforeImage() error {
	data, err := p.serialize()
	if err != nil {
		return err
	}
	p.beforeImage = append([]byte{}, data...)
	return nil
}

// GetBeforeImage reconstructs a page instance from the stored before-image
// bytes. If none has been captured yet, the current page state is used.
func (p *HeapPage) GetBeforeImage() (*HeapPage, error) {
	if p.beforeImage == nil {
		return deserializeHeapPage(p.pid, p.desc, p.file, mustSerialize(p))
	}
	return deserializeHeapPage(p.pid, p.desc, p.file, p.beforeImage)
}

func mustSerialize(p *HeapPage) []byte {
	data, err := p.serialize()
	if err != nil {
		// serialize only fails on a schema/size invariant violation, which
		// would mean the page was built incorrectly, so it is treated as
		// fatal here.
		panic(err)
	}
	return data
}

// clone returns an independent copy of the page that shares no slots slice
// with p. The buffer pool does not use it: GetPage hands out the cached
// instance itself.
func (p *HeapPage) clone() *HeapPage {
	data, err := p.serialize()
	if err != nil {
		panic(err)
	}
	cp, err := deserializeHeapPage(p.pid, p.desc, p.file, data)
	if err != nil {
		panic(err)
	}
	cp.dirty = p.dirty
	cp.dirtyTxn = p.dirtyTxn
	cp.beforeImage = append([]byte{}, p.beforeImage...)
	return cp
}
