package db

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a GoDBError so callers can branch on failure kind
// without string matching.
type ErrorCode int

const (
	// TypeMismatchError means two fields being compared do not share a type.
	TypeMismatchError ErrorCode = iota
	// IncompatibleTypesError means a Field can't be applied to a tuple desc.
	IncompatibleTypesError
	// MalformedDataError means on-disk or CSV data didn't match its schema.
	MalformedDataError
	// BufferPoolFullError means every cached page is dirty; NO-STEAL forbids eviction.
	BufferPoolFullError
	// TupleNotFoundError means a delete or lookup named a tuple not present where expected.
	TupleNotFoundError
	// PageFullError means a HeapPage has no free slot.
	PageFullError
	// PageOutOfRangeError means a page offset fell outside the backing file.
	PageOutOfRangeError
	// SchemaMismatchError means a tuple's TupleDesc didn't match its target page/table.
	SchemaMismatchError
	// NoSuchElementError means a schema lookup or next() found nothing.
	NoSuchElementError
	// TransactionAbortedError means a lock wait exceeded its deadline, or an abort was forced.
	TransactionAbortedError
	// IOError wraps an underlying disk read/write failure.
	IOError
	// InvalidAggregatorError means an aggregate op was requested on a type that doesn't support it.
	InvalidAggregatorError
	// AmbiguousNameError means a field name matched more than one candidate.
	AmbiguousNameError
)

func (c ErrorCode) String() string {
	switch c {
	case TypeMismatchError:
		return "type mismatch"
	case IncompatibleTypesError:
		return "incompatible types"
	case MalformedDataError:
		return "malformed data"
	case BufferPoolFullError:
		return "buffer pool full"
	case TupleNotFoundError:
		return "tuple not found"
	case PageFullError:
		return "page full"
	case PageOutOfRangeError:
		return "page out of range"
	case SchemaMismatchError:
		return "schema mismatch"
	case NoSuchElementError:
		return "no such element"
	case TransactionAbortedError:
		return "transaction aborted"
	case IOError:
		return "io error"
	case InvalidAggregatorError:
		return "invalid aggregator"
	case AmbiguousNameError:
		return "ambiguous name"
	}
	return "unknown error"
}

// GoDBError is the error type this module uses for classified failures;
// some I/O paths (e.g. a CSV scanner or log sync error) are returned
// unwrapped. Callers that need to branch on failure kind type-assert to
// GoDBError and inspect Code.
type GoDBError struct {
	code ErrorCode
	msg  string
}

func (e GoDBError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

// Code reports the error's classification.
func (e GoDBError) Code() ErrorCode {
	return e.code
}

func newErr(code ErrorCode, format string, args ...any) GoDBError {
	return GoDBError{code: code, msg: fmt.Sprintf(format, args...)}
}

// NewError lets collaborating packages (stats, cmd/dbshell) construct a
// GoDBError of a given kind without reaching into this package's internals.
func NewError(code ErrorCode, format string, args ...any) error {
	return newErr(code, format, args...)
}

// ErrorCodeOf extracts the ErrorCode from err if it (or something it wraps)
// is a GoDBError, returning ok=false otherwise.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}
	var ge GoDBError
	if errors.As(err, &ge) {
		return ge.code, true
	}
	return 0, false
}
