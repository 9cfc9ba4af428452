package db

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// FieldType names one column of a TupleDesc: its type and an optional name.
// Names are ignored when comparing TupleDescs for equality.
type FieldType struct {
	Name  string
	Ftype DBType
}

// byteSize returns this field's fixed on-disk width.
func (f FieldType) byteSize() int {
	switch f.Ftype {
	case IntType:
		return IntFieldLength
	case StringType:
		return 4 + StringLength
	}
	return 0
}

// TupleDesc is the ordered schema of a Tuple: a non-empty sequence of
// (Type, optional name) items.
type TupleDesc struct {
	Fields []FieldType
}

// NewTupleDesc builds a TupleDesc, requiring at least one field.
func NewTupleDesc(fields ...FieldType) (*TupleDesc, error) {
	if len(fields) == 0 {
		return nil, newErr(MalformedDataError, "a TupleDesc needs at least one field")
	}
	cp := make([]FieldType, len(fields))
	copy(cp, fields)
	return &TupleDesc{Fields: cp}, nil
}

// NumFields returns the TupleDesc's arity.
func (td *TupleDesc) NumFields() int {
	return len(td.Fields)
}

// Size returns the sum, in bytes, of every field's on-disk width.
func (td *TupleDesc) Size() int {
	n := 0
	for _, f := range td.Fields {
		n += f.byteSize()
	}
	return n
}

// Equals compares arity and per-position types; field names are ignored.
func (td *TupleDesc) Equals(other *TupleDesc) bool {
	if other == nil || len(td.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range td.Fields {
		if f.Ftype != other.Fields[i].Ftype {
			return false
		}
	}
	return true
}

// FieldIndex returns the position of the named field, or NoSuchElementError.
func (td *TupleDesc) FieldIndex(name string) (int, error) {
	for i, f := range td.Fields {
		if f.Name == name {
			return i, nil
		}
	}
	return -1, newErr(NoSuchElementError, "no field named %q", name)
}

// Merge concatenates two TupleDescs, preserving field order: left fields
// then right fields.
func (td *TupleDesc) Merge(other *TupleDesc) *TupleDesc {
	fields := make([]FieldType, 0, len(td.Fields)+len(other.Fields))
	fields = append(fields, td.Fields...)
	fields = append(fields, other.Fields...)
	return &TupleDesc{Fields: fields}
}

// WithAlias returns a copy of td whose field names are prefixed "alias.".
func (td *TupleDesc) WithAlias(alias string) *TupleDesc {
	if alias == "" {
		return td
	}
	fields := make([]FieldType, len(td.Fields))
	for i, f := range td.Fields {
		fields[i] = FieldType{Name: alias + "." + f.Name, Ftype: f.Ftype}
	}
	return &TupleDesc{Fields: fields}
}

func (td *TupleDesc) String() string {
	names := make([]string, len(td.Fields))
	for i, f := range td.Fields {
		names[i] = fmt.Sprintf("%s(%s)", f.Name, f.Ftype)
	}
	return strings.Join(names, ", ")
}

// RecordID identifies a tuple's on-disk slot: the page it lives on and its
// slot index within that page's header bitmap.
type RecordID struct {
	PID  PageID
	Slot int
}

// Equals reports structural equality.
func (r RecordID) Equals(other RecordID) bool {
	return r.PID.Equals(other.PID) && r.Slot == other.Slot
}

// Tuple is a row bound to a TupleDesc, with one Field per schema position.
// Rid is set once the tuple has been read from, or inserted into, a page.
type Tuple struct {
	Desc   *TupleDesc
	Fields []Field
	Rid    *RecordID
}

// NewTuple allocates a Tuple with desc's arity, all fields zero-valued.
func NewTuple(desc *TupleDesc) *Tuple {
	fields := make([]Field, len(desc.Fields))
	for i, f := range desc.Fields {
		switch f.Ftype {
		case IntType:
			fields[i] = IntField{}
		case StringType:
			fields[i] = StringField{}
		}
	}
	return &Tuple{Desc: desc, Fields: fields}
}

// NumFields returns the number of field slots in the tuple.
func (t *Tuple) NumFields() int {
	return len(t.Fields)
}

// Field returns the field at idx, or NoSuchElementError if out of range.
func (t *Tuple) Field(idx int) (Field, error) {
	if idx < 0 || idx >= len(t.Fields) {
		return nil, newErr(NoSuchElementError, "field index %d out of range", idx)
	}
	return t.Fields[idx], nil
}

// SetField assigns the field at idx.
func (t *Tuple) SetField(idx int, f Field) error {
	if idx < 0 || idx >= len(t.Fields) {
		return newErr(NoSuchElementError, "field index %d out of range", idx)
	}
	t.Fields[idx] = f
	return nil
}

// Equals compares schema and every field value.
func (t *Tuple) Equals(other *Tuple) bool {
	if t == nil || other == nil {
		return t == other
	}
	if !t.Desc.Equals(other.Desc) || len(t.Fields) != len(other.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// Merge concatenates two tuples' fields and TupleDescs, left then right.
func Merge(left, right *Tuple) *Tuple {
	return &Tuple{
		Desc:   left.Desc.Merge(right.Desc),
		Fields: append(append([]Field{}, left.Fields...), right.Fields...),
	}
}

// writeTo serializes the tuple's fields, in schema order, into buf using the
// wire format: INT as 4-byte big-endian signed integer, STRING
// as a 4-byte length prefix followed by StringLength zero-padded bytes.
func (t *Tuple) writeTo(buf *bytes.Buffer) error {
	for i, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			if err := binary.Write(buf, binary.BigEndian, int32(v.Value)); err != nil {
				return newErr(IOError, "writing int field %d: %v", i, err)
			}
		case StringField:
			if err := writeStringField(buf, v); err != nil {
				return err
			}
		default:
			return newErr(TypeMismatchError, "unsupported field type %T at index %d", f, i)
		}
	}
	return nil
}

func writeStringField(buf *bytes.Buffer, f StringField) error {
	s := f.Value
	if len(s) > StringLength {
		s = s[:StringLength]
	}
	if err := binary.Write(buf, binary.BigEndian, int32(len(s))); err != nil {
		return newErr(IOError, "writing string length: %v", err)
	}
	padded := make([]byte, StringLength)
	copy(padded, s)
	if _, err := buf.Write(padded); err != nil {
		return newErr(IOError, "writing string bytes: %v", err)
	}
	return nil
}

// readTupleFrom deserializes a tuple with the given TupleDesc from buf,
// inverting writeTo.
func readTupleFrom(buf *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	t := NewTuple(desc)
	for i, ft := range desc.Fields {
		switch ft.Ftype {
		case IntType:
			var v int32
			if err := binary.Read(buf, binary.BigEndian, &v); err != nil {
				return nil, newErr(IOError, "reading int field %d: %v", i, err)
			}
			t.Fields[i] = IntField{Value: int64(v)}
		case StringType:
			sf, err := readStringField(buf)
			if err != nil {
				return nil, err
			}
			t.Fields[i] = sf
		}
	}
	return t, nil
}

func readStringField(buf *bytes.Buffer) (StringField, error) {
	var n int32
	if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
		return StringField{}, newErr(IOError, "reading string length: %v", err)
	}
	raw := make([]byte, StringLength)
	if _, err := buf.Read(raw); err != nil {
		return StringField{}, newErr(IOError, "reading string bytes: %v", err)
	}
	if int(n) < 0 || int(n) > StringLength {
		return StringField{}, newErr(MalformedDataError, "string length %d out of range", n)
	}
	return StringField{Value: string(raw[:n])}, nil
}
