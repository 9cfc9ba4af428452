package db

import (
	"bufio"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// HeapFile is an unordered sequence of fixed-size pages backing one table.
// Its table id is the stable FNV-1a hash of the backing file's absolute
// path, so the same on-disk file always resolves to the same
// table id across process restarts.
type HeapFile struct {
	path    string
	tableID int
	desc    *TupleDesc
	bp      *BufferPool
}

// NewHeapFile opens (creating if necessary) path as the backing store for a
// table with the given schema, using bp to route all page access through
// the buffer pool's locking and caching.
func NewHeapFile(path string, desc *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, newErr(IOError, "opening heap file %s: %v", path, err)
	}
	f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, newErr(IOError, "resolving absolute path for %s: %v", path, err)
	}
	h := fnv.New64a()
	h.Write([]byte(abs))

	return &HeapFile{
		path:    path,
		tableID: int(h.Sum64()),
		desc:    desc,
		bp:      bp,
	}, nil
}

// Descriptor returns the table's schema.
func (f *HeapFile) Descriptor() *TupleDesc {
	return f.desc
}

// TableID returns this file's stable table identifier.
func (f *HeapFile) TableID() int {
	return f.tableID
}

// NumPages returns floor(fileLength / PageSize).
func (f *HeapFile) NumPages() int {
	info, err := os.Stat(f.path)
	if err != nil {
		return 0
	}
	return int(info.Size() / PageSize)
}

func (f *HeapFile) pageID(pageNo int) PageID {
	return PageID{TableID: f.tableID, PageNumber: pageNo}
}

// readPage seeks to pid.PageNumber*PageSize and reads exactly PageSize
// bytes, failing with PageOutOfRangeError if that range exceeds the file.
func (f *HeapFile) readPage(pid PageID) (*HeapPage, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, newErr(IOError, "opening %s: %v", f.path, err)
	}
	defer file.Close()

	offset := int64(pid.PageNumber) * PageSize
	info, err := file.Stat()
	if err != nil {
		return nil, newErr(IOError, "statting %s: %v", f.path, err)
	}
	if offset+PageSize > info.Size() {
		return nil, newErr(PageOutOfRangeError, "page %d out of range for %s (len %d)", pid.PageNumber, f.path, info.Size())
	}

	data := make([]byte, PageSize)
	if _, err := file.ReadAt(data, offset); err != nil && err != io.EOF {
		return nil, newErr(IOError, "reading page %d of %s: %v", pid.PageNumber, f.path, err)
	}
	page, err := deserializeHeapPage(pid, f.desc, f, data)
	if err != nil {
		return nil, err
	}
	if err := page.SetBeforeImage(); err != nil {
		return nil, err
	}
	return page, nil
}

// writePage seeks and writes PageSize bytes, clearing the page's dirty bit
// on success.
func (f *HeapFile) writePage(p *HeapPage) error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return newErr(IOError, "opening %s: %v", f.path, err)
	}
	defer file.Close()

	data, err := p.serialize()
	if err != nil {
		return err
	}
	offset := int64(p.pid.PageNumber) * PageSize
	if _, err := file.WriteAt(data, offset); err != nil {
		return newErr(IOError, "writing page %d of %s: %v", p.pid.PageNumber, f.path, err)
	}
	p.MarkDirty(false, 0)
	return nil
}

// appendEmptyPage extends the file by exactly PageSize bytes, returning the
// page number of the newly-appended (empty) page.
func (f *HeapFile) appendEmptyPage() (int, error) {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return 0, newErr(IOError, "opening %s: %v", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, newErr(IOError, "statting %s: %v", f.path, err)
	}
	pageNo := int(info.Size() / PageSize)
	empty := make([]byte, PageSize)
	if _, err := file.WriteAt(empty, int64(pageNo)*PageSize); err != nil {
		return 0, newErr(IOError, "extending %s: %v", f.path, err)
	}
	return pageNo, nil
}

// insertTuple scans pages in order through the BufferPool under EXCLUSIVE
// permission, inserting t into the first page with a free slot. If none has
// space, it appends a fresh page and inserts there. Returns the dirtied
// pages for the caller (BufferPool) to mark and cache.
func (f *HeapFile) insertTuple(txn TransactionID, t *Tuple) ([]*HeapPage, error) {
	if !t.Desc.Equals(f.desc) {
		return nil, newErr(SchemaMismatchError, "tuple desc does not match table %d's schema", f.tableID)
	}

	numPages := f.NumPages()
	for pageNo := 0; pageNo < numPages; pageNo++ {
		page, err := f.bp.GetPage(txn, f.pageID(pageNo), ReadWrite)
		if err != nil {
			return nil, err
		}
		if page.NumEmptySlots() == 0 {
			continue
		}
		if err := page.InsertTuple(t); err != nil {
			return nil, err
		}
		return []*HeapPage{page}, nil
	}

	newPageNo, err := f.appendEmptyPage()
	if err != nil {
		return nil, err
	}
	page, err := f.bp.GetPage(txn, f.pageID(newPageNo), ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.InsertTuple(t); err != nil {
		return nil, err
	}
	return []*HeapPage{page}, nil
}

// deleteTuple fetches t.Rid's page under EXCLUSIVE permission and deletes
// t from it, returning the dirtied page.
func (f *HeapFile) deleteTuple(txn TransactionID, t *Tuple) (*HeapPage, error) {
	if t.Rid == nil {
		return nil, newErr(TupleNotFoundError, "tuple has no record id")
	}
	page, err := f.bp.GetPage(txn, t.Rid.PID, ReadWrite)
	if err != nil {
		return nil, err
	}
	if err := page.DeleteTuple(t); err != nil {
		return nil, err
	}
	return page, nil
}

// heapFileCursor is the cursor returned by HeapFile.iterator: it opens at
// page 0, reads through the BufferPool in ReadOnly mode, advances to the
// next page when the current page's slot iterator is exhausted, and
// terminates at NumPages().
type heapFileCursor struct {
	file      *HeapFile
	txn       TransactionID
	pageNo    int
	pageIter  func() (*Tuple, error)
	numPages  int
	opened    bool
}

// iterator returns a fresh, unopened cursor over f under txn.
func (f *HeapFile) iterator(txn TransactionID) *heapFileCursor {
	return &heapFileCursor{file: f, txn: txn}
}

func (c *heapFileCursor) open() error {
	c.pageNo = 0
	c.pageIter = nil
	c.numPages = c.file.NumPages()
	c.opened = true
	return nil
}

func (c *heapFileCursor) rewind() error {
	return c.open()
}

func (c *heapFileCursor) close() error {
	c.opened = false
	c.pageIter = nil
	return nil
}

func (c *heapFileCursor) next() (*Tuple, error) {
	if !c.opened {
		return nil, newErr(NoSuchElementError, "cursor used before open")
	}
	for {
		if c.pageIter == nil {
			if c.pageNo >= c.numPages {
				return nil, nil
			}
			page, err := c.file.bp.GetPage(c.txn, c.file.pageID(c.pageNo), ReadOnly)
			if err != nil {
				return nil, err
			}
			c.pageIter = page.Iterator()
		}
		t, err := c.pageIter()
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
		c.pageIter = nil
		c.pageNo++
	}
}

// LoadFromCSV bulk-loads sep-delimited rows from r into the heap file,
// one internal transaction per call. Present as a convenience for tests and
// the operator console, not a core relational operator.
func (f *HeapFile) LoadFromCSV(r io.Reader, hasHeader bool, sep string) error {
	scanner := bufio.NewScanner(r)
	txn := NewTID()
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		if lineNo == 1 && hasHeader {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, sep)
		if len(parts) != len(f.desc.Fields) {
			f.bp.TransactionComplete(txn, false)
			return newErr(MalformedDataError, "line %d: expected %d fields, got %d", lineNo, len(f.desc.Fields), len(parts))
		}
		t := NewTuple(f.desc)
		for i, raw := range parts {
			raw = strings.TrimSpace(raw)
			switch f.desc.Fields[i].Ftype {
			case IntType:
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					f.bp.TransactionComplete(txn, false)
					return newErr(MalformedDataError, "line %d field %d: %v", lineNo, i, err)
				}
				t.Fields[i] = IntField{Value: v}
			case StringType:
				t.Fields[i] = StringField{Value: raw}
			}
		}
		if err := f.bp.InsertTuple(txn, f.tableID, t); err != nil {
			f.bp.TransactionComplete(txn, false)
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		f.bp.TransactionComplete(txn, false)
		return err
	}
	return f.bp.TransactionComplete(txn, true)
}
