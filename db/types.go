package db

import (
	"strconv"
	"strings"
)

// PageSize is the fixed on-disk and in-buffer size of one page, in bytes.
const PageSize = 4096

// DBType is the closed set of field types GoDB supports.
type DBType int

const (
	IntType DBType = iota
	StringType
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// StringLength is the fixed maximum length, in bytes, of a STRING field.
// Strings longer than this are truncated on write; this module does not
// support arbitrary-length variable records.
const StringLength = 128

// IntFieldLength is the on-disk width, in bytes, of an INT field.
const IntFieldLength = 4

// BoolOp is a relational comparison operator usable in a Predicate or Join.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
)

func (op BoolOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLike:
		return "LIKE"
	}
	return "?"
}

// Field is a typed value held in a tuple slot. The only implementations in
// this module are IntField and StringField; per-type comparison is
// dispatched through this interface rather than a type switch at every
// call site.
type Field interface {
	Type() DBType
	Compare(op BoolOp, other Field) (bool, error)
	String() string
}

// IntField is a 4-byte signed integer field value.
type IntField struct {
	Value int64
}

func (f IntField) Type() DBType { return IntType }

func (f IntField) String() string {
	return strconv.FormatInt(f.Value, 10)
}

// Compare evaluates op against other, which must also be an IntField.
// LIKE on ints is equality.
func (f IntField) Compare(op BoolOp, other Field) (bool, error) {
	o, ok := other.(IntField)
	if !ok {
		return false, newErr(TypeMismatchError, "cannot compare int field to %T", other)
	}
	switch op {
	case OpEq, OpLike:
		return f.Value == o.Value, nil
	case OpNeq:
		return f.Value != o.Value, nil
	case OpLt:
		return f.Value < o.Value, nil
	case OpLe:
		return f.Value <= o.Value, nil
	case OpGt:
		return f.Value > o.Value, nil
	case OpGe:
		return f.Value >= o.Value, nil
	}
	return false, newErr(TypeMismatchError, "unsupported operator %v on int field", op)
}

// StringField is a bounded-length string field value.
type StringField struct {
	Value string
}

func (f StringField) Type() DBType { return StringType }

func (f StringField) String() string {
	return f.Value
}

// Compare evaluates op against other, which must also be a StringField.
// LIKE on strings is substring match.
func (f StringField) Compare(op BoolOp, other Field) (bool, error) {
	o, ok := other.(StringField)
	if !ok {
		return false, newErr(TypeMismatchError, "cannot compare string field to %T", other)
	}
	switch op {
	case OpEq:
		return f.Value == o.Value, nil
	case OpNeq:
		return f.Value != o.Value, nil
	case OpLt:
		return f.Value < o.Value, nil
	case OpLe:
		return f.Value <= o.Value, nil
	case OpGt:
		return f.Value > o.Value, nil
	case OpGe:
		return f.Value >= o.Value, nil
	case OpLike:
		return strings.Contains(f.Value, o.Value), nil
	}
	return false, newErr(TypeMismatchError, "unsupported operator %v on string field", op)
}
