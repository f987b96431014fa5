package record

import (
	"fmt"
	"strings"
)

// Tuple is one row conforming to a TupleDesc. Values are stored in their
// canonical Go form (see Coerce).
type Tuple struct {
	desc   *TupleDesc
	values []any
}

// NewTuple checks values against desc and returns the tuple.
func NewTuple(desc *TupleDesc, values []any) (*Tuple, error) {
	if len(values) != desc.NumFields() {
		return nil, fmt.Errorf("%w: %d values for %d fields", ErrInvalidArity, len(values), desc.NumFields())
	}
	vals := make([]any, len(values))
	for i, v := range values {
		c, err := Coerce(desc.fields[i].Type, v)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = c
	}
	return &Tuple{desc: desc, values: vals}, nil
}

func (t *Tuple) TupleDesc() *TupleDesc { return t.desc }

func (t *Tuple) Value(i int) (any, error) {
	if err := t.desc.checkIndex(i); err != nil {
		return nil, err
	}
	return t.values[i], nil
}

// Values returns a copy of the tuple's values.
func (t *Tuple) Values() []any {
	out := make([]any, len(t.values))
	copy(out, t.values)
	return out
}

// ConcatWith joins two tuples under desc, which must be Merge of their
// descriptors. Joins compute it once and reuse it for every output row.
func ConcatWith(desc *TupleDesc, a, b *Tuple) *Tuple {
	vals := make([]any, 0, len(a.values)+len(b.values))
	vals = append(vals, a.values...)
	vals = append(vals, b.values...)
	return &Tuple{desc: desc, values: vals}
}

// Project keeps the values at indices under the given output descriptor.
func (t *Tuple) Project(desc *TupleDesc, indices []int) *Tuple {
	vals := make([]any, len(indices))
	for j, i := range indices {
		vals[j] = t.values[i]
	}
	return &Tuple{desc: desc, values: vals}
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.values))
	for i, v := range t.values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\t")
}
