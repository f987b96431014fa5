package record

import (
	"fmt"
	"hash/fnv"
	"iter"
	"strings"
)

// TupleDesc describes the shape of a tuple: an ordered, non-empty list of
// typed and optionally named fields. A TupleDesc is never modified after
// construction and may be shared between goroutines.
type TupleDesc struct {
	fields []FieldDesc
}

// NewTupleDesc builds a descriptor from parallel type and name lists.
// Both lists must have the same, non-zero length.
func NewTupleDesc(types []FieldType, names []FieldName) (*TupleDesc, error) {
	if len(types) != len(names) {
		return nil, fmt.Errorf("%w: %d types, %d names", ErrInvalidArity, len(types), len(names))
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: descriptor needs at least one field", ErrInvalidArity)
	}
	for i, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: field %d has type %d", ErrUnknownType, i, uint8(t))
		}
	}

	fields := make([]FieldDesc, len(types))
	for i := range types {
		fields[i] = FieldDesc{Type: types[i], Name: names[i]}
	}
	return &TupleDesc{fields: fields}, nil
}

// NewAnonymousTupleDesc builds a descriptor whose fields have no names.
func NewAnonymousTupleDesc(types []FieldType) (*TupleDesc, error) {
	return NewTupleDesc(types, make([]FieldName, len(types)))
}

// NewTupleDescFromFields builds a descriptor from ready-made fields.
func NewTupleDescFromFields(fields []FieldDesc) (*TupleDesc, error) {
	types := make([]FieldType, len(fields))
	names := make([]FieldName, len(fields))
	for i, f := range fields {
		types[i], names[i] = f.Type, f.Name
	}
	return NewTupleDesc(types, names)
}

// MustTupleDesc is NewTupleDesc for static schemas; it panics on error.
func MustTupleDesc(types []FieldType, names []FieldName) *TupleDesc {
	td, err := NewTupleDesc(types, names)
	if err != nil {
		panic(err)
	}
	return td
}

func (td *TupleDesc) NumFields() int { return len(td.fields) }

func (td *TupleDesc) checkIndex(i int) error {
	if i < 0 || i >= len(td.fields) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(td.fields))
	}
	return nil
}

func (td *TupleDesc) Field(i int) (FieldDesc, error) {
	if err := td.checkIndex(i); err != nil {
		return FieldDesc{}, err
	}
	return td.fields[i], nil
}

func (td *TupleDesc) FieldName(i int) (FieldName, error) {
	if err := td.checkIndex(i); err != nil {
		return NoName, err
	}
	return td.fields[i].Name, nil
}

func (td *TupleDesc) FieldType(i int) (FieldType, error) {
	if err := td.checkIndex(i); err != nil {
		return 0, err
	}
	return td.fields[i].Type, nil
}

// IndexOf returns the first field whose name is present and equal to name.
// Anonymous fields never match.
func (td *TupleDesc) IndexOf(name string) (int, error) {
	for i, f := range td.fields {
		if f.Name.Matches(name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrFieldNotFound, name)
}

// Size is the byte width of a tuple with this shape: the plain sum of the
// field widths, without padding.
func (td *TupleDesc) Size() int {
	size := 0
	for _, f := range td.fields {
		size += f.Type.Len()
	}
	return size
}

// Offset returns the byte offset of field i inside a fixed-width record.
func (td *TupleDesc) Offset(i int) (int, error) {
	if err := td.checkIndex(i); err != nil {
		return 0, err
	}
	off := 0
	for _, f := range td.fields[:i] {
		off += f.Type.Len()
	}
	return off, nil
}

// Merge returns a new descriptor holding a's fields followed by b's.
// Names are kept as they are, duplicates included.
func Merge(a, b *TupleDesc) *TupleDesc {
	fields := make([]FieldDesc, 0, len(a.fields)+len(b.fields))
	fields = append(fields, a.fields...)
	fields = append(fields, b.fields...)
	return &TupleDesc{fields: fields}
}

// Project returns a new descriptor made of the fields at indices, in that order.
func (td *TupleDesc) Project(indices ...int) (*TupleDesc, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty projection", ErrInvalidArity)
	}
	fields := make([]FieldDesc, len(indices))
	for j, i := range indices {
		if err := td.checkIndex(i); err != nil {
			return nil, err
		}
		fields[j] = td.fields[i]
	}
	return &TupleDesc{fields: fields}, nil
}

// Equal reports whether other is a descriptor with the same field count
// and the same type at every position. Field names are ignored, so two
// projections that differ only by alias compare equal.
func (td *TupleDesc) Equal(other any) bool {
	var o *TupleDesc
	switch v := other.(type) {
	case *TupleDesc:
		o = v
	case TupleDesc:
		o = &v
	default:
		return false
	}
	if td == nil || o == nil {
		return false
	}
	if len(td.fields) != len(o.fields) {
		return false
	}
	for i := range td.fields {
		if td.fields[i].Type != o.fields[i].Type {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal: it covers the ordered field types only.
// A nil descriptor hashes like an empty type sequence.
func (td *TupleDesc) Hash() uint64 {
	h := fnv.New64a()
	if td == nil {
		return h.Sum64()
	}
	buf := make([]byte, len(td.fields))
	for i, f := range td.fields {
		buf[i] = byte(f.Type)
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}

// All yields every field in order. Each call starts a fresh traversal.
func (td *TupleDesc) All() iter.Seq2[int, FieldDesc] {
	return func(yield func(int, FieldDesc) bool) {
		for i, f := range td.fields {
			if !yield(i, f) {
				return
			}
		}
	}
}

// Fields returns a copy of the field list.
func (td *TupleDesc) Fields() []FieldDesc {
	out := make([]FieldDesc, len(td.fields))
	copy(out, td.fields)
	return out
}

// ColumnNames returns one label per field; anonymous fields get "?column?".
func (td *TupleDesc) ColumnNames() []string {
	out := make([]string, len(td.fields))
	for i, f := range td.fields {
		out[i] = f.Name.Or("?column?")
	}
	return out
}

// String renders "type0(name0),type1(name1),...".
func (td *TupleDesc) String() string {
	var sb strings.Builder
	for i, f := range td.fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Type.String())
		sb.WriteByte('(')
		sb.WriteString(f.Name.String())
		sb.WriteByte(')')
	}
	return sb.String()
}
