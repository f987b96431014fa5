package storage

import (
	"errors"
)

const (
	OneKB = 1 << 10 // 1,024
	OneMB = 1 << 20 // 1,048,576

	SegmentSize     = 1 << 30 // 1 GiB per segment file
	DefaultPageSize = 4 * OneKB
	MinPageSize     = 512
	MaxPageSize     = 64 * OneKB
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	ErrSchemaMismatch = errors.New("storage: schema/values mismatch")
	ErrBadBuffer      = errors.New("storage: buffer size does not match tuple layout")
	ErrTextTooLong    = errors.New("storage: text value exceeds fixed width")
	ErrBadPageSize    = errors.New("storage: invalid page size")
	ErrWrongSize      = errors.New("storage: buffer size != page size")
)
