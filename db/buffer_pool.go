package db

import (
	"container/list"
	"sync"
	"time"
)

// BufferPool is the bounded LRU cache of pages that serves as the central
// chokepoint for every page access: it resolves tables through the
// Catalog, acquires locks through the LockManager, and enforces NO-STEAL —
// a dirty page is never chosen for eviction.
type BufferPool struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = MRU, back = LRU-candidate
	elems    map[PageID]*list.Element

	locks       *LockManager
	catalog     *Catalog
	log         *LogFile
	lockTimeout time.Duration
}

type cacheEntry struct {
	pid  PageID
	page *HeapPage
}

// NewBufferPool returns a BufferPool with room for capacity pages, backed
// by catalog for table resolution.
func NewBufferPool(capacity int, catalog *Catalog) *BufferPool {
	return &BufferPool{
		capacity:    capacity,
		order:       list.New(),
		elems:       make(map[PageID]*list.Element),
		locks:       NewLockManager(),
		catalog:     catalog,
		lockTimeout: DefaultLockTimeout,
	}
}

// SetLogFile wires a LogFile that TransactionComplete will write update
// records to before flushing on commit.
func (bp *BufferPool) SetLogFile(lf *LogFile) {
	bp.log = lf
}

// SetLockTimeout overrides the default ~500ms lock-wait deadline; mainly
// useful for tests that want to exercise the timeout path quickly.
func (bp *BufferPool) SetLockTimeout(d time.Duration) {
	bp.lockTimeout = d
}

// GetPage is the central chokepoint every page access runs through: it polls for
// the lock, returns the cached page promoted to MRU if present, or
// resolves the owning DBFile through the Catalog and reads the page from
// disk, evicting if the cache is full.
func (bp *BufferPool) GetPage(txn TransactionID, pid PageID, perm Permission) (*HeapPage, error) {
	if err := bp.locks.Acquire(txn, pid, perm, bp.lockTimeout); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if elem, ok := bp.elems[pid]; ok {
		bp.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).page, nil
	}

	file, err := bp.catalog.File(pid.TableID)
	if err != nil {
		return nil, err
	}
	page, err := file.readPage(pid)
	if err != nil {
		return nil, err
	}
	if err := bp.putLocked(pid, page); err != nil {
		return nil, err
	}
	return page, nil
}

// putLocked inserts page into the cache under pid, evicting the
// least-recently-used non-dirty entry if the pool is already at capacity.
// Caller must hold bp.mu.
func (bp *BufferPool) putLocked(pid PageID, page *HeapPage) error {
	if elem, ok := bp.elems[pid]; ok {
		elem.Value.(*cacheEntry).page = page
		bp.order.MoveToFront(elem)
		return nil
	}
	if len(bp.elems) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return err
		}
	}
	elem := bp.order.PushFront(&cacheEntry{pid: pid, page: page})
	bp.elems[pid] = elem
	return nil
}

// evictLocked removes the LRU non-dirty entry. If every cached entry is
// dirty, NO-STEAL forbids eviction and this returns BufferPoolFullError.
// Caller must hold bp.mu.
func (bp *BufferPool) evictLocked() error {
	for elem := bp.order.Back(); elem != nil; elem = elem.Prev() {
		entry := elem.Value.(*cacheEntry)
		if _, dirty := entry.page.IsDirty(); dirty {
			continue
		}
		bp.order.Remove(elem)
		delete(bp.elems, entry.pid)
		return nil
	}
	return newErr(BufferPoolFullError, "buffer pool full of dirty pages")
}

// InsertTuple resolves tableID's DBFile through the Catalog, delegates the
// insert to it, then marks every returned dirtied page with txn and caches
// it so subsequent readers see the mutation.
func (bp *BufferPool) InsertTuple(txn TransactionID, tableID int, t *Tuple) error {
	file, err := bp.catalog.File(tableID)
	if err != nil {
		return err
	}
	heapFile, ok := file.(*HeapFile)
	if !ok {
		return newErr(SchemaMismatchError, "table %d is not heap-organized", tableID)
	}
	dirtied, err := heapFile.insertTuple(txn, t)
	if err != nil {
		return err
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range dirtied {
		p.MarkDirty(true, txn)
		if err := bp.putLocked(p.pid, p); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTuple resolves t.Rid's table through the Catalog, delegates the
// delete to it, then marks and caches the dirtied page.
func (bp *BufferPool) DeleteTuple(txn TransactionID, t *Tuple) error {
	if t.Rid == nil {
		return newErr(TupleNotFoundError, "tuple has no record id")
	}
	file, err := bp.catalog.File(t.Rid.PID.TableID)
	if err != nil {
		return err
	}
	heapFile, ok := file.(*HeapFile)
	if !ok {
		return newErr(SchemaMismatchError, "table %d is not heap-organized", t.Rid.PID.TableID)
	}
	page, err := heapFile.deleteTuple(txn, t)
	if err != nil {
		return err
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	page.MarkDirty(true, txn)
	return bp.putLocked(page.pid, page)
}

// TransactionComplete implements commit/abort.
//
// On commit: every cached page dirtied by txn is logged (before/after
// image) via the wired LogFile, written to disk, its dirty bit cleared,
// and a fresh before-image captured.
//
// On abort: every cached page dirtied by txn is discarded and re-read from
// disk, so no trace of the aborted transaction's writes survives in cache.
//
// Either way, all of txn's locks are released.
func (bp *BufferPool) TransactionComplete(txn TransactionID, commit bool) error {
	bp.mu.Lock()
	type dirtyEntry struct {
		pid  PageID
		page *HeapPage
	}
	var dirty []dirtyEntry
	for elem := bp.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*cacheEntry)
		if owner, isDirty := entry.page.IsDirty(); isDirty && owner == txn {
			dirty = append(dirty, dirtyEntry{pid: entry.pid, page: entry.page})
		}
	}
	bp.mu.Unlock()

	var firstErr error
	for _, d := range dirty {
		if commit {
			if err := bp.commitPage(txn, d.pid, d.page); err != nil && firstErr == nil {
				firstErr = err
			}
		} else {
			if err := bp.abortPage(d.pid); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	bp.locks.ReleaseAll(txn)
	return firstErr
}

func (bp *BufferPool) commitPage(txn TransactionID, pid PageID, page *HeapPage) error {
	if bp.log != nil {
		before, err := page.GetBeforeImage()
		if err != nil {
			return err
		}
		if err := bp.log.LogUpdate(txn, before, page); err != nil {
			return err
		}
	}
	file, err := bp.catalog.File(pid.TableID)
	if err != nil {
		return err
	}
	if err := file.writePage(page); err != nil {
		return err
	}
	return page.SetBeforeImage()
}

func (bp *BufferPool) abortPage(pid PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	file, err := bp.catalog.File(pid.TableID)
	if err != nil {
		return err
	}
	fresh, err := file.readPage(pid)
	if err != nil {
		return err
	}
	return bp.putLocked(pid, fresh)
}

// FlushAllPages writes every dirty cached page to disk, clearing its dirty
// bit. Testing-oriented; does not acquire locks or involve the LogFile.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for elem := bp.order.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*cacheEntry)
		if _, dirty := entry.page.IsDirty(); !dirty {
			continue
		}
		file, err := bp.catalog.File(entry.pid.TableID)
		if err != nil {
			return err
		}
		if err := file.writePage(entry.page); err != nil {
			return err
		}
	}
	return nil
}

// RemovePage evicts pid from the cache unconditionally, without writing it
// back. Used by tests that need to force a clean re-read from disk.
func (bp *BufferPool) RemovePage(pid PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if elem, ok := bp.elems[pid]; ok {
		bp.order.Remove(elem)
		delete(bp.elems, pid)
	}
}

// HoldsLock reports whether txn currently holds a lock on pid.
func (bp *BufferPool) HoldsLock(txn TransactionID, pid PageID) bool {
	_, ok := bp.locks.Holds(txn, pid)
	return ok
}
