package record

import (
	"fmt"
	"strings"
)

// FieldType is the closed set of scalar column types. Every variant has a
// fixed on-disk width, see Len.
type FieldType uint8

const (
	TypeInt FieldType = iota + 1
	TypeBigInt
	TypeBool
	TypeFloat
	TypeText
)

const (
	// TextLen is the fixed width of a TEXT field: a u32 length prefix plus payload.
	TextLen = 128
	// MaxTextBytes is the largest TEXT payload that fits in TextLen.
	MaxTextBytes = TextLen - 4
)

// Len returns the fixed byte width of t. It panics on a value outside the
// enumeration; such a value can only come from an unchecked conversion.
func (t FieldType) Len() int {
	switch t {
	case TypeInt:
		return 4
	case TypeBigInt:
		return 8
	case TypeBool:
		return 1
	case TypeFloat:
		return 8
	case TypeText:
		return TextLen
	default:
		panic(fmt.Sprintf("record: invalid field type %d", uint8(t)))
	}
}

func (t FieldType) Valid() bool {
	return t >= TypeInt && t <= TypeText
}

func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeBigInt:
		return "BIGINT"
	case TypeBool:
		return "BOOL"
	case TypeFloat:
		return "FLOAT"
	case TypeText:
		return "TEXT"
	default:
		return fmt.Sprintf("FieldType(%d)", uint8(t))
	}
}

// ParseFieldType maps a SQL type name (case-insensitive) onto a FieldType.
// A length suffix such as VARCHAR(64) is accepted and ignored.
func ParseFieldType(s string) (FieldType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}

	switch name {
	case "INT", "INTEGER", "INT32", "INT4", "SMALLINT", "MEDIUMINT", "TINYINT":
		return TypeInt, nil
	case "BIGINT", "INT64", "INT8":
		return TypeBigInt, nil
	case "BOOL", "BOOLEAN":
		return TypeBool, nil
	case "FLOAT", "DOUBLE", "REAL", "FLOAT64", "FLOAT8", "DOUBLE PRECISION", "NUMERIC", "DECIMAL":
		return TypeFloat, nil
	case "TEXT", "STRING", "VARCHAR", "CHAR", "CHARACTER VARYING", "CHARACTER":
		return TypeText, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}
