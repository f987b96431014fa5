package heap

import (
	"errors"
	"fmt"

	"github.com/tuannm99/novatuple/internal/alias/bx"
	"github.com/tuannm99/novatuple/internal/storage"
)

var (
	ErrPageFull       = errors.New("heap: page has no empty slot")
	ErrSlotEmpty      = errors.New("heap: slot is empty")
	ErrSlotOutOfRange = errors.New("heap: slot out of range")
	ErrTupleTooLarge  = errors.New("heap: tuple does not fit in a page")
)

// NumSlots is how many tuples of tupleSize bytes fit in a page, each slot
// costing tupleSize bytes plus one header bit.
func NumSlots(pageSize, tupleSize int) int {
	return (pageSize * 8) / (tupleSize*8 + 1)
}

// +-----------------------+ 0
// | used-slot bitmap      | ceil(slots/8) bytes, bit=1 => slot in use
// +-----------------------+
// | slot 0 | slot 1 | ... | layout.Size bytes each
// +-----------------------+
// | unused tail           |
// +-----------------------+ pageSize
type HeapPage struct {
	Page   *storage.Page
	Layout *storage.Layout

	numSlots   int
	headerSize int
}

func NewHeapPage(p *storage.Page, layout *storage.Layout) (*HeapPage, error) {
	n := NumSlots(len(p.Buf), layout.Size)
	if n == 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTupleTooLarge, layout.Size)
	}
	return &HeapPage{
		Page:       p,
		Layout:     layout,
		numSlots:   n,
		headerSize: (n + 7) / 8,
	}, nil
}

func (hp *HeapPage) NumSlots() int { return hp.numSlots }

func (hp *HeapPage) IsUsed(slot int) bool {
	return slot >= 0 && slot < hp.numSlots && bx.Bit(hp.Page.Buf, slot)
}

func (hp *HeapPage) NumEmptySlots() int {
	n := 0
	for i := 0; i < hp.numSlots; i++ {
		if !bx.Bit(hp.Page.Buf, i) {
			n++
		}
	}
	return n
}

func (hp *HeapPage) slotBytes(slot int) []byte {
	off := hp.headerSize + slot*hp.Layout.Size
	return hp.Page.Buf[off : off+hp.Layout.Size]
}

// InsertTuple stores values in the first empty slot and returns its index.
func (hp *HeapPage) InsertTuple(values []any) (int, error) {
	for slot := 0; slot < hp.numSlots; slot++ {
		if bx.Bit(hp.Page.Buf, slot) {
			continue
		}
		if err := hp.Layout.EncodeInto(hp.slotBytes(slot), values); err != nil {
			return -1, err
		}
		bx.SetBit(hp.Page.Buf, slot, true)
		return slot, nil
	}
	return -1, ErrPageFull
}

func (hp *HeapPage) ReadTuple(slot int) ([]any, error) {
	if slot < 0 || slot >= hp.numSlots {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if !bx.Bit(hp.Page.Buf, slot) {
		return nil, fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	return hp.Layout.Decode(hp.slotBytes(slot))
}

func (hp *HeapPage) DeleteTuple(slot int) error {
	if slot < 0 || slot >= hp.numSlots {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	if !bx.Bit(hp.Page.Buf, slot) {
		return fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	bx.SetBit(hp.Page.Buf, slot, false)
	clear(hp.slotBytes(slot))
	return nil
}

// Scan calls fn for every used slot in order.
func (hp *HeapPage) Scan(fn func(slot int, row []any) error) error {
	for slot := 0; slot < hp.numSlots; slot++ {
		if !bx.Bit(hp.Page.Buf, slot) {
			continue
		}
		row, err := hp.Layout.Decode(hp.slotBytes(slot))
		if err != nil {
			return err
		}
		if err := fn(slot, row); err != nil {
			return err
		}
	}
	return nil
}
