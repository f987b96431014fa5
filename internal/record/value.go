package record

import (
	"fmt"
	"math"
)

// Coerce converts v into the canonical Go representation of t:
// int32, int64, bool, float64 or string. Integer kinds are accepted for
// INT/BIGINT when they fit, and for FLOAT. Nothing else is converted.
func Coerce(t FieldType, v any) (any, error) {
	switch t {
	case TypeInt:
		if x, ok := asInt64(v); ok && x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x), nil
		}
	case TypeBigInt:
		if x, ok := asInt64(v); ok {
			return x, nil
		}
	case TypeBool:
		if x, ok := v.(bool); ok {
			return x, nil
		}
	case TypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		}
		if x, ok := asInt64(v); ok {
			return float64(x), nil
		}
	case TypeText:
		if x, ok := v.(string); ok {
			if len(x) > MaxTextBytes {
				return nil, fmt.Errorf("%w: text of %d bytes exceeds %d", ErrTypeMismatch, len(x), MaxTextBytes)
			}
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, v, t)
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}
