package db

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"os"
)

// LogFile is the external collaborator the buffer pool assumes: a service
// that accepts (txn, beforeImage, afterImage) records ahead of BufferPool's
// commit-time flush. Crash recovery beyond this logging hook is out of
// scope; this type exists so BufferPool has a concrete hook to call. Its
// wire format is a fixed record header (type + txn id), a body that varies
// by record type, and an 8-byte trailing offset enabling replay.
type LogFile struct {
	file    *os.File
	buf     bytes.Buffer
	offset  int64
	catalog *Catalog
}

// LogRecordType distinguishes the four record shapes a LogFile writes.
type LogRecordType int8

const (
	BeginRecord LogRecordType = iota
	CommitRecord
	AbortRecord
	UpdateRecord
)

func (t LogRecordType) String() string {
	switch t {
	case BeginRecord:
		return "begin"
	case CommitRecord:
		return "commit"
	case AbortRecord:
		return "abort"
	case UpdateRecord:
		return "update"
	}
	return "unknown"
}

// NewLogFile opens (creating if necessary) fileName as the backing log,
// associated with catalog for resolving table schemas when replaying
// update records.
func NewLogFile(fileName string, catalog *Catalog) (*LogFile, error) {
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, newErr(IOError, "opening log file %s: %v", fileName, err)
	}
	return &LogFile{file: f, catalog: catalog}, nil
}

func (w *LogFile) write(data any) {
	binary.Write(&w.buf, binary.BigEndian, data)
	w.offset += int64(binary.Size(data))
}

// Force flushes any buffered record bytes to disk and syncs the file.
func (w *LogFile) Force() error {
	if w.buf.Len() == 0 {
		return nil
	}
	if _, err := w.file.Write(w.buf.Bytes()); err != nil {
		return newErr(IOError, "writing log: %v", err)
	}
	w.buf.Reset()
	return w.file.Sync()
}

func (w *LogFile) writeHeader(typ LogRecordType, tid TransactionID) {
	w.write(int8(typ))
	w.write(int64(tid))
}

func (w *LogFile) writePageBody(p *HeapPage) error {
	data, err := p.serialize()
	if err != nil {
		return err
	}
	w.write(int64(p.pid.TableID))
	w.write(int64(p.pid.PageNumber))
	w.write(data)
	return nil
}

// LogBegin records that txn has started.
func (w *LogFile) LogBegin(tid TransactionID) {
	w.writeHeader(BeginRecord, tid)
	w.write(w.offset)
}

// LogCommit records that txn committed.
func (w *LogFile) LogCommit(tid TransactionID) {
	w.writeHeader(CommitRecord, tid)
	w.write(w.offset)
}

// LogAbort records that txn aborted.
func (w *LogFile) LogAbort(tid TransactionID) {
	w.writeHeader(AbortRecord, tid)
	w.write(w.offset)
}

// LogUpdate is the hook BufferPool.TransactionComplete calls, once per
// dirtied page, before flushing it to disk on commit. It records both the
// page's before-image and its current (after) contents. Does not force the
// log to disk; callers needing durability should call Force afterward.
func (w *LogFile) LogUpdate(tid TransactionID, before, after *HeapPage) error {
	if before == nil || after == nil {
		return newErr(MalformedDataError, "before and after images must be non-nil")
	}
	offset := w.offset
	w.writeHeader(UpdateRecord, tid)
	if err := w.writePageBody(before); err != nil {
		return err
	}
	if err := w.writePageBody(after); err != nil {
		return err
	}
	w.write(offset)
	return nil
}

// LogRecord is a decoded entry read back from the log.
type LogRecord struct {
	Offset int64
	Type   LogRecordType
	Tid    TransactionID
	Before *HeapPage
	After  *HeapPage
}

// ForwardIterator returns a pull function over the records written to the
// log so far, oldest first. It returns (nil, nil) at a clean end of file;
// a trailing partial record is reported as an error.
func (w *LogFile) ForwardIterator() (func() (*LogRecord, error), error) {
	if err := w.Force(); err != nil {
		return nil, err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, newErr(IOError, "seeking log file: %v", err)
	}

	readInt8 := func() (int8, error) {
		var v int8
		err := binary.Read(w.file, binary.BigEndian, &v)
		return v, err
	}
	readInt64 := func() (int64, error) {
		var v int64
		err := binary.Read(w.file, binary.BigEndian, &v)
		return v, err
	}
	readPage := func() (*HeapPage, error) {
		tableID, err := readInt64()
		if err != nil {
			return nil, err
		}
		pageNo, err := readInt64()
		if err != nil {
			return nil, err
		}
		data := make([]byte, PageSize)
		if _, err := io.ReadFull(w.file, data); err != nil {
			return nil, err
		}
		dbFile, err := w.catalog.File(int(tableID))
		if err != nil {
			return nil, err
		}
		heapFile, ok := dbFile.(*HeapFile)
		if !ok {
			return nil, newErr(MalformedDataError, "table %d is not heap-organized", tableID)
		}
		pid := PageID{TableID: int(tableID), PageNumber: int(pageNo)}
		return deserializeHeapPage(pid, heapFile.Descriptor(), heapFile, data)
	}

	return func() (*LogRecord, error) {
		typByte, err := readInt8()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, newErr(IOError, "partial record type: %v", err)
		}
		tidRaw, err := readInt64()
		if err != nil {
			return nil, newErr(IOError, "partial record txn id: %v", err)
		}
		rec := &LogRecord{Type: LogRecordType(typByte), Tid: TransactionID(tidRaw)}

		if rec.Type == UpdateRecord {
			before, err := readPage()
			if err != nil {
				return nil, newErr(IOError, "partial before-image: %v", err)
			}
			after, err := readPage()
			if err != nil {
				return nil, newErr(IOError, "partial after-image: %v", err)
			}
			rec.Before, rec.After = before, after
		}

		offset, err := readInt64()
		if err != nil {
			return nil, newErr(IOError, "partial record footer: %v", err)
		}
		rec.Offset = offset
		return rec, nil
	}, nil
}

// OutputPrettyLog writes a human-readable rendering of every record to the
// standard logger, for operator-console diagnostics.
func (w *LogFile) OutputPrettyLog() error {
	iter, err := w.ForwardIterator()
	if err != nil {
		return err
	}
	for {
		rec, err := iter()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if rec.Type == UpdateRecord {
			log.Printf("%s txn=%d page=%v", rec.Type, rec.Tid, rec.Before.pid)
		} else {
			log.Printf("%s txn=%d", rec.Type, rec.Tid)
		}
	}
}

// Close releases the underlying file handle.
func (w *LogFile) Close() error {
	if err := w.Force(); err != nil {
		return err
	}
	return w.file.Close()
}
