package record

import "errors"

var (
	ErrInvalidArity    = errors.New("record: invalid arity")
	ErrIndexOutOfRange = errors.New("record: field index out of range")
	ErrFieldNotFound   = errors.New("record: field not found")
	ErrUnknownType     = errors.New("record: unknown field type")
	ErrTypeMismatch    = errors.New("record: value does not match field type")
)
