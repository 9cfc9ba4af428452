package db

import (
	"sync"
	"time"
)

// DefaultLockTimeout is how long GetPage polls for a lock before aborting
// the waiting transaction.
const DefaultLockTimeout = 500 * time.Millisecond

const lockPollInterval = 5 * time.Millisecond

// LockManager implements strict two-phase locking at page granularity.
// Deadlock is handled purely by timeout (no wait-for
// graph is maintained), so every field is protected by a single coarse
// mutex and acquire() is non-blocking — callers poll it in a retry loop.
type LockManager struct {
	mu      sync.Mutex
	holders map[PageID]map[TransactionID]Permission
}

// NewLockManager returns an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{holders: make(map[PageID]map[TransactionID]Permission)}
}

// acquire attempts to grant txn perm on pid without blocking, returning
// whether the lock was granted. Shared locks coexist; an exclusive request
// needs no other holder; an upgrade needs txn to be the sole holder; a
// downgrade is always granted.
func (lm *LockManager) acquire(txn TransactionID, pid PageID, perm Permission) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	holders := lm.holders[pid]
	if holders == nil {
		lm.holders[pid] = map[TransactionID]Permission{txn: perm}
		return true
	}

	if have, ok := holders[txn]; ok {
		if have == perm {
			return true
		}
		if have == ReadOnly && perm == ReadWrite {
			// Upgrade: grant iff txn is the sole holder.
			if len(holders) == 1 {
				holders[txn] = ReadWrite
				return true
			}
			return false
		}
		// Downgrade EXCLUSIVE -> SHARED always allowed.
		holders[txn] = ReadOnly
		return true
	}

	if perm == ReadOnly {
		for other, p := range holders {
			if other != txn && p == ReadWrite {
				return false
			}
		}
		holders[txn] = ReadOnly
		return true
	}

	// New EXCLUSIVE request: blocked by any other holder at all.
	if len(holders) > 0 {
		return false
	}
	holders[txn] = ReadWrite
	return true
}

// Acquire polls acquire in a retry loop bounded by timeout, returning
// TransactionAbortedError if the deadline elapses before the lock grants.
func (lm *LockManager) Acquire(txn TransactionID, pid PageID, perm Permission, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if lm.acquire(txn, pid, perm) {
			return nil
		}
		if time.Now().After(deadline) {
			return newErr(TransactionAbortedError, "timed out waiting for %v lock on %v", perm, pid)
		}
		time.Sleep(lockPollInterval)
	}
}

// Release drops txn's lock on pid, if any.
func (lm *LockManager) Release(txn TransactionID, pid PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	holders := lm.holders[pid]
	if holders == nil {
		return
	}
	delete(holders, txn)
	if len(holders) == 0 {
		delete(lm.holders, pid)
	}
}

// ReleaseAll drops every lock held by txn, across all pages.
func (lm *LockManager) ReleaseAll(txn TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid, holders := range lm.holders {
		if _, ok := holders[txn]; ok {
			delete(holders, txn)
			if len(holders) == 0 {
				delete(lm.holders, pid)
			}
		}
	}
}

// Holds reports whether txn currently holds any lock on pid, and if so which.
func (lm *LockManager) Holds(txn TransactionID, pid PageID) (Permission, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	holders := lm.holders[pid]
	if holders == nil {
		return 0, false
	}
	perm, ok := holders[txn]
	return perm, ok
}
