package db

import (
	"path/filepath"
	"testing"
)

func makeBufferPoolTestVars(t *testing.T, capacity int) (*HeapFile, *BufferPool, *TupleDesc) {
	t.Helper()
	desc, err := NewTupleDesc(FieldType{Name: "val", Ftype: IntType})
	if err != nil {
		t.Fatalf("tuple desc: %v", err)
	}
	catalog := NewCatalog()
	bp := NewBufferPool(capacity, catalog)
	path := filepath.Join(t.TempDir(), "nums.dat")
	hf, err := NewHeapFile(path, desc, bp)
	if err != nil {
		t.Fatalf("new heap file: %v", err)
	}
	if err := catalog.AddTable("nums", hf, ""); err != nil {
		t.Fatalf("add table: %v", err)
	}
	return hf, bp, desc
}

func TestBufferPoolGetPageReturnsCachedInstance(t *testing.T) {
	hf, bp, _ := makeBufferPoolTestVars(t, 4)
	txn := NewTID()

	if _, err := hf.appendEmptyPage(); err != nil {
		t.Fatalf("append page: %v", err)
	}
	pid := hf.pageID(0)

	first, err := bp.GetPage(txn, pid, ReadOnly)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	second, err := bp.GetPage(txn, pid, ReadOnly)
	if err != nil {
		t.Fatalf("get page again: %v", err)
	}
	if first != second {
		t.Errorf("expected the same cached *HeapPage instance on repeat GetPage")
	}
}

func TestBufferPoolFullOfDirtyPagesReturnsError(t *testing.T) {
	hf, bp, _ := makeBufferPoolTestVars(t, 2)
	txn := NewTID()

	// Three empty pages on disk; fetch and dirty the first two so the
	// 2-slot cache is entirely dirty, then force a third distinct fetch.
	for i := 0; i < 3; i++ {
		if _, err := hf.appendEmptyPage(); err != nil {
			t.Fatalf("append page %d: %v", i, err)
		}
	}
	for i := 0; i < 2; i++ {
		page, err := bp.GetPage(txn, hf.pageID(i), ReadWrite)
		if err != nil {
			t.Fatalf("get page %d: %v", i, err)
		}
		page.MarkDirty(true, txn)
	}

	_, err := bp.GetPage(txn, hf.pageID(2), ReadOnly)
	if code, ok := ErrorCodeOf(err); !ok || code != BufferPoolFullError {
		t.Fatalf("expected BufferPoolFullError, got %v", err)
	}
}

func TestBufferPoolAbortDiscardsDirtyWrites(t *testing.T) {
	hf, bp, desc := makeBufferPoolTestVars(t, 10)
	txn := NewTID()

	tup := NewTuple(desc)
	tup.Fields[0] = IntField{Value: 42}
	if err := bp.InsertTuple(txn, hf.TableID(), tup); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := bp.TransactionComplete(txn, false); err != nil {
		t.Fatalf("abort: %v", err)
	}

	readTxn := NewTID()
	cursor := hf.iterator(readTxn)
	if err := cursor.open(); err != nil {
		t.Fatalf("open cursor: %v", err)
	}
	defer cursor.close()
	count := 0
	for {
		got, err := cursor.next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got == nil {
			break
		}
		count++
	}
	if count != 0 {
		t.Errorf("expected abort to discard the insert, found %d tuples", count)
	}
}

func TestBufferPoolCommitPersistsWrites(t *testing.T) {
	hf, bp, desc := makeBufferPoolTestVars(t, 10)
	txn := NewTID()

	tup := NewTuple(desc)
	tup.Fields[0] = IntField{Value: 7}
	if err := bp.InsertTuple(txn, hf.TableID(), tup); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := bp.TransactionComplete(txn, true); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Force a clean re-read from disk to confirm the write actually landed.
	bp.RemovePage(hf.pageID(0))

	readTxn := NewTID()
	cursor := hf.iterator(readTxn)
	if err := cursor.open(); err != nil {
		t.Fatalf("open cursor: %v", err)
	}
	defer cursor.close()
	got, err := cursor.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got == nil || got.Fields[0].(IntField).Value != 7 {
		t.Errorf("expected committed tuple to survive eviction+reread, got %v", got)
	}
}
