// stand for bytes helper
package bx

import (
	"encoding/binary"
	"errors"
)

var LE = binary.LittleEndian

var ErrShortBuffer = errors.New("bx: buffer too short")

// --- LE: read ---
func U32(b []byte) uint32 { return LE.Uint32(b) }
func U64(b []byte) uint64 { return LE.Uint64(b) }
func I32(b []byte) int32  { return int32(U32(b)) }
func I64(b []byte) int64  { return int64(U64(b)) }

// --- LE: write ---
func PutU32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { LE.PutUint64(b, v) }

// --- LE: At (offset) ---
func U32At(b []byte, off int) uint32       { return U32(b[off:]) }
func U64At(b []byte, off int) uint64       { return U64(b[off:]) }
func PutU32At(b []byte, off int, v uint32) { PutU32(b[off:], v) }
func PutU64At(b []byte, off int, v uint64) { PutU64(b[off:], v) }

// --- fixed-width text: u32 length + payload, zero padded to width ---

// PutFixedText writes s into b[off:off+width]. The payload must fit in
// width-4 bytes.
func PutFixedText(b []byte, off, width int, s string) error {
	if width < 4 || len(s) > width-4 || off+width > len(b) {
		return ErrShortBuffer
	}
	PutU32At(b, off, uint32(len(s)))
	n := copy(b[off+4:off+width], s)
	clear(b[off+4+n : off+width])
	return nil
}

// FixedText reads a value written by PutFixedText.
func FixedText(b []byte, off, width int) (string, error) {
	if width < 4 || off+width > len(b) {
		return "", ErrShortBuffer
	}
	l := int(U32At(b, off))
	if l > width-4 {
		return "", ErrShortBuffer
	}
	return string(b[off+4 : off+4+l]), nil
}

// --- bitmap helpers (bit i of the map lives in byte i/8, LSB first) ---

func Bit(b []byte, i int) bool { return b[i/8]>>(uint(i)&7)&1 == 1 }

func SetBit(b []byte, i int, on bool) {
	if on {
		b[i/8] |= 1 << (uint(i) & 7)
	} else {
		b[i/8] &^= 1 << (uint(i) & 7)
	}
}
