package storage

import (
	"fmt"
	"math"

	"github.com/tuannm99/novatuple/internal/alias/bx"
	"github.com/tuannm99/novatuple/internal/record"
)

// Layout is the fixed-width byte layout of a tuple shape. It only depends on
// the field types, so descriptors that differ only in names share a layout.
type Layout struct {
	Types   []record.FieldType
	Offsets []int
	Size    int
}

func NewLayout(desc *record.TupleDesc) *Layout {
	n := desc.NumFields()
	l := &Layout{
		Types:   make([]record.FieldType, n),
		Offsets: make([]int, n),
		Size:    desc.Size(),
	}
	off := 0
	for i, f := range desc.All() {
		l.Types[i] = f.Type
		l.Offsets[i] = off
		off += f.Type.Len()
	}
	return l
}

func (l *Layout) NumFields() int { return len(l.Types) }

// ---- Encode(values) -> []byte ----
// Format: every field at its fixed offset, little-endian.
//
//	INT    4 bytes
//	BIGINT 8 bytes
//	BOOL   1 byte (0/1)
//	FLOAT  8 bytes IEEE-754 bits
//	TEXT   u32 length + payload, zero padded to record.TextLen
func (l *Layout) Encode(values []any) ([]byte, error) {
	out := make([]byte, l.Size)
	if err := l.EncodeInto(out, values); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeInto writes values into dst, which must be exactly Size bytes.
func (l *Layout) EncodeInto(dst []byte, values []any) error {
	if len(values) != len(l.Types) {
		return fmt.Errorf("%w: %d values for %d fields", ErrSchemaMismatch, len(values), len(l.Types))
	}
	if len(dst) != l.Size {
		return fmt.Errorf("%w: got %d, want %d", ErrBadBuffer, len(dst), l.Size)
	}

	for i, t := range l.Types {
		v, err := record.Coerce(t, values[i])
		if err != nil {
			if s, ok := values[i].(string); ok && t == record.TypeText && len(s) > record.MaxTextBytes {
				return fmt.Errorf("field %d: %w", i, ErrTextTooLong)
			}
			return fmt.Errorf("field %d: %w: %w", i, ErrSchemaMismatch, err)
		}

		off := l.Offsets[i]
		switch t {
		case record.TypeInt:
			bx.PutU32At(dst, off, uint32(v.(int32)))
		case record.TypeBigInt:
			bx.PutU64At(dst, off, uint64(v.(int64)))
		case record.TypeBool:
			dst[off] = 0
			if v.(bool) {
				dst[off] = 1
			}
		case record.TypeFloat:
			bx.PutU64At(dst, off, math.Float64bits(v.(float64)))
		case record.TypeText:
			if err := bx.PutFixedText(dst, off, record.TextLen, v.(string)); err != nil {
				return fmt.Errorf("field %d: %w", i, ErrTextTooLong)
			}
		}
	}
	return nil
}

// ---- Decode(buf) -> []any ----
func (l *Layout) Decode(buf []byte) ([]any, error) {
	if len(buf) != l.Size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBadBuffer, len(buf), l.Size)
	}

	out := make([]any, len(l.Types))
	for i, t := range l.Types {
		off := l.Offsets[i]
		switch t {
		case record.TypeInt:
			out[i] = bx.I32(buf[off:])
		case record.TypeBigInt:
			out[i] = bx.I64(buf[off:])
		case record.TypeBool:
			out[i] = buf[off] != 0
		case record.TypeFloat:
			out[i] = math.Float64frombits(bx.U64At(buf, off))
		case record.TypeText:
			s, err := bx.FixedText(buf, off, record.TextLen)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, ErrBadBuffer)
			}
			out[i] = s
		}
	}
	return out, nil
}
