package db

import "testing"

func makeHeapPageTestDesc() *TupleDesc {
	td, err := NewTupleDesc(
		FieldType{Name: "name", Ftype: StringType},
		FieldType{Name: "age", Ftype: IntType},
	)
	if err != nil {
		panic(err)
	}
	return td
}

func TestHeapPageInsertFillsLowestFreeSlot(t *testing.T) {
	desc := makeHeapPageTestDesc()
	p := newHeapPage(PageID{TableID: 1, PageNumber: 0}, desc, nil)

	tup := NewTuple(desc)
	tup.Fields[0] = StringField{Value: "josie"}
	tup.Fields[1] = IntField{Value: 20}

	if err := p.InsertTuple(tup); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tup.Rid == nil || tup.Rid.Slot != 0 {
		t.Fatalf("expected slot 0, got %+v", tup.Rid)
	}
	if got := p.NumEmptySlots(); got != p.NumSlots()-1 {
		t.Errorf("expected %d empty slots, got %d", p.NumSlots()-1, got)
	}
}

func TestHeapPageFullReturnsPageFullError(t *testing.T) {
	desc := makeHeapPageTestDesc()
	p := newHeapPage(PageID{TableID: 1, PageNumber: 0}, desc, nil)

	for i := 0; i < p.NumSlots(); i++ {
		tup := NewTuple(desc)
		tup.Fields[0] = StringField{Value: "x"}
		tup.Fields[1] = IntField{Value: int64(i)}
		if err := p.InsertTuple(tup); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	overflow := NewTuple(desc)
	overflow.Fields[0] = StringField{Value: "y"}
	overflow.Fields[1] = IntField{Value: 999}
	err := p.InsertTuple(overflow)
	if code, ok := ErrorCodeOf(err); !ok || code != PageFullError {
		t.Fatalf("expected PageFullError, got %v", err)
	}
}

func TestHeapPageDeleteThenReinsertReusesSlot(t *testing.T) {
	desc := makeHeapPageTestDesc()
	p := newHeapPage(PageID{TableID: 1, PageNumber: 0}, desc, nil)

	tup := NewTuple(desc)
	tup.Fields[0] = StringField{Value: "annie"}
	tup.Fields[1] = IntField{Value: 17}
	if err := p.InsertTuple(tup); err != nil {
		t.Fatalf("insert: %v", err)
	}
	slot := tup.Rid.Slot

	if err := p.DeleteTuple(tup); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := p.NumEmptySlots(); got != p.NumSlots() {
		t.Errorf("expected all slots empty after delete, got %d empty", got)
	}

	second := NewTuple(desc)
	second.Fields[0] = StringField{Value: "maya"}
	second.Fields[1] = IntField{Value: 30}
	if err := p.InsertTuple(second); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	if second.Rid.Slot != slot {
		t.Errorf("expected reinsert to reuse slot %d, got %d", slot, second.Rid.Slot)
	}
}

func TestHeapPageDeleteNotOnPage(t *testing.T) {
	desc := makeHeapPageTestDesc()
	p := newHeapPage(PageID{TableID: 1, PageNumber: 0}, desc, nil)

	stray := NewTuple(desc)
	stray.Rid = &RecordID{PID: PageID{TableID: 1, PageNumber: 0}, Slot: 0}
	err := p.DeleteTuple(stray)
	if code, ok := ErrorCodeOf(err); !ok || code != TupleNotFoundError {
		t.Fatalf("expected TupleNotFoundError, got %v", err)
	}
}

func TestHeapPageSerializeRoundTrip(t *testing.T) {
	desc := makeHeapPageTestDesc()
	pid := PageID{TableID: 7, PageNumber: 3}
	p := newHeapPage(pid, desc, nil)

	for i := 0; i < 3; i++ {
		tup := NewTuple(desc)
		tup.Fields[0] = StringField{Value: "tuple"}
		tup.Fields[1] = IntField{Value: int64(i)}
		if err := p.InsertTuple(tup); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	data, err := p.serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if len(data) != PageSize {
		t.Fatalf("expected %d bytes, got %d", PageSize, len(data))
	}

	p2, err := deserializeHeapPage(pid, desc, nil, data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got := p2.NumEmptySlots(); got != p.NumEmptySlots() {
		t.Errorf("round trip changed empty slot count: %d vs %d", got, p.NumEmptySlots())
	}

	it := p2.Iterator()
	count := 0
	for {
		tup, err := it()
		if err != nil {
			t.Fatalf("iterate: %v", err)
		}
		if tup == nil {
			break
		}
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 tuples after round trip, got %d", count)
	}
}
