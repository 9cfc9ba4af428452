package db

import (
	"testing"
	"time"
)

func TestLockManagerSharedLocksCoexist(t *testing.T) {
	lm := NewLockManager()
	pid := PageID{TableID: 1, PageNumber: 0}
	t1, t2 := NewTID(), NewTID()

	if err := lm.Acquire(t1, pid, ReadOnly, 50*time.Millisecond); err != nil {
		t.Fatalf("t1 shared: %v", err)
	}
	if err := lm.Acquire(t2, pid, ReadOnly, 50*time.Millisecond); err != nil {
		t.Fatalf("t2 shared: %v", err)
	}
}

func TestLockManagerExclusiveExcludesOthers(t *testing.T) {
	lm := NewLockManager()
	pid := PageID{TableID: 1, PageNumber: 0}
	t1, t2 := NewTID(), NewTID()

	if err := lm.Acquire(t1, pid, ReadWrite, 50*time.Millisecond); err != nil {
		t.Fatalf("t1 exclusive: %v", err)
	}
	err := lm.Acquire(t2, pid, ReadOnly, 30*time.Millisecond)
	if code, ok := ErrorCodeOf(err); !ok || code != TransactionAbortedError {
		t.Fatalf("expected t2 to time out behind t1's exclusive lock, got %v", err)
	}
}

func TestLockManagerUpgradeRequiresSoleHolder(t *testing.T) {
	lm := NewLockManager()
	pid := PageID{TableID: 1, PageNumber: 0}
	t1, t2 := NewTID(), NewTID()

	if err := lm.Acquire(t1, pid, ReadOnly, 50*time.Millisecond); err != nil {
		t.Fatalf("t1 shared: %v", err)
	}
	if err := lm.Acquire(t2, pid, ReadOnly, 50*time.Millisecond); err != nil {
		t.Fatalf("t2 shared: %v", err)
	}
	// t1 cannot upgrade while t2 also holds a shared lock.
	err := lm.Acquire(t1, pid, ReadWrite, 30*time.Millisecond)
	if code, ok := ErrorCodeOf(err); !ok || code != TransactionAbortedError {
		t.Fatalf("expected upgrade to time out with a co-holder present, got %v", err)
	}

	lm.Release(t2, pid)
	if err := lm.Acquire(t1, pid, ReadWrite, 50*time.Millisecond); err != nil {
		t.Fatalf("expected t1 to upgrade once sole holder: %v", err)
	}
}

func TestLockManagerReleaseAllDropsEveryLock(t *testing.T) {
	lm := NewLockManager()
	p1 := PageID{TableID: 1, PageNumber: 0}
	p2 := PageID{TableID: 1, PageNumber: 1}
	txn := NewTID()

	if err := lm.Acquire(txn, p1, ReadWrite, 50*time.Millisecond); err != nil {
		t.Fatalf("acquire p1: %v", err)
	}
	if err := lm.Acquire(txn, p2, ReadOnly, 50*time.Millisecond); err != nil {
		t.Fatalf("acquire p2: %v", err)
	}

	lm.ReleaseAll(txn)

	if _, held := lm.Holds(txn, p1); held {
		t.Errorf("expected p1 lock released")
	}
	if _, held := lm.Holds(txn, p2); held {
		t.Errorf("expected p2 lock released")
	}

	other := NewTID()
	if err := lm.Acquire(other, p1, ReadWrite, 50*time.Millisecond); err != nil {
		t.Errorf("expected p1 free for another transaction: %v", err)
	}
}
