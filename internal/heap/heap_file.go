package heap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tuannm99/novatuple/internal/bufferpool"
	"github.com/tuannm99/novatuple/internal/gologger"
	"github.com/tuannm99/novatuple/internal/record"
	"github.com/tuannm99/novatuple/internal/storage"
)

var logger = gologger.NewLogger()

// HeapFile is a table stored as an unordered sequence of HeapPages. Every
// tuple has the fixed width of the table's TupleDesc.
type HeapFile struct {
	Name string
	Desc *record.TupleDesc

	layout *storage.Layout
	bp     bufferpool.Manager

	mu        sync.Mutex
	pageCount uint32
}

// OpenHeapFile binds desc to the pages of fs. Existing pages are counted so
// a reopened file keeps its rows.
func OpenHeapFile(
	name string,
	desc *record.TupleDesc,
	sm *storage.StorageManager,
	fs storage.LocalFileSet,
	layouts *storage.LayoutCache,
	poolCapacity int,
) (*HeapFile, error) {
	layout := layouts.Get(desc)
	if NumSlots(sm.PageSize(), layout.Size) == 0 {
		return nil, fmt.Errorf("%w: %s needs %d bytes, page is %d", ErrTupleTooLarge, name, layout.Size, sm.PageSize())
	}

	pageCount, err := sm.CountPages(fs)
	if err != nil {
		return nil, fmt.Errorf("heap: count pages of %s: %w", name, err)
	}

	logger.Debug().
		Str("table", name).
		Str("schema", desc.String()).
		Uint32("pages", pageCount).
		Msg("heap file opened")

	return &HeapFile{
		Name:      name,
		Desc:      desc,
		layout:    layout,
		bp:        bufferpool.NewPool(sm, fs, poolCapacity),
		pageCount: pageCount,
	}, nil
}

func (f *HeapFile) NumPages() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageCount
}

func (f *HeapFile) page(pageID uint32) (*storage.Page, *HeapPage, error) {
	p, err := f.bp.GetPage(pageID)
	if err != nil {
		return nil, nil, err
	}
	hp, err := NewHeapPage(p, f.layout)
	if err != nil {
		_ = f.bp.Unpin(p, false)
		return nil, nil, err
	}
	return p, hp, nil
}

// Insert V1 naive -> always prefer last page, if page is full create new one
func (f *HeapFile) Insert(values []any) (TID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pageID uint32
	if f.pageCount == 0 {
		f.pageCount = 1
	} else {
		pageID = f.pageCount - 1
	}

	for {
		p, hp, err := f.page(pageID)
		if err != nil {
			return TID{}, err
		}

		slot, err := hp.InsertTuple(values)
		if errors.Is(err, ErrPageFull) {
			_ = f.bp.Unpin(p, false)
			pageID = f.pageCount
			f.pageCount++
			logger.Debug().Str("table", f.Name).Uint32("page_id", pageID).Msg("page allocated")
			continue
		}
		if err != nil {
			_ = f.bp.Unpin(p, false)
			return TID{}, err
		}

		if err := f.bp.Unpin(p, true); err != nil {
			return TID{}, err
		}
		return TID{PageID: pageID, Slot: uint16(slot)}, nil
	}
}

// Get reads a single row by TID.
func (f *HeapFile) Get(id TID) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id.PageID >= f.pageCount {
		return nil, fmt.Errorf("%w: page %d", ErrSlotOutOfRange, id.PageID)
	}
	p, hp, err := f.page(id.PageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.bp.Unpin(p, false) }()
	return hp.ReadTuple(int(id.Slot))
}

// Delete frees the slot identified by TID.
func (f *HeapFile) Delete(id TID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id.PageID >= f.pageCount {
		return fmt.Errorf("%w: page %d", ErrSlotOutOfRange, id.PageID)
	}
	p, hp, err := f.page(id.PageID)
	if err != nil {
		return err
	}
	err = hp.DeleteTuple(int(id.Slot))
	_ = f.bp.Unpin(p, err == nil)
	return err
}

// Scan iterates through all rows in page order.
func (f *HeapFile) Scan(fn func(id TID, row []any) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for pageID := uint32(0); pageID < f.pageCount; pageID++ {
		p, hp, err := f.page(pageID)
		if err != nil {
			return err
		}
		err = hp.Scan(func(slot int, row []any) error {
			return fn(TID{PageID: pageID, Slot: uint16(slot)}, row)
		})
		_ = f.bp.Unpin(p, false)
		if err != nil {
			return err
		}
	}
	return nil
}

// PageRows returns the rows stored in one page. Operators use it to scan
// page at a time without holding the file lock between pages.
func (f *HeapFile) PageRows(pageID uint32) ([]TID, [][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if pageID >= f.pageCount {
		return nil, nil, fmt.Errorf("%w: page %d", ErrSlotOutOfRange, pageID)
	}
	p, hp, err := f.page(pageID)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.bp.Unpin(p, false) }()

	var (
		ids  []TID
		rows [][]any
	)
	err = hp.Scan(func(slot int, row []any) error {
		ids = append(ids, TID{PageID: pageID, Slot: uint16(slot)})
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ids, rows, nil
}

// Flush writes dirty pages back to disk.
func (f *HeapFile) Flush() error {
	return f.bp.FlushAll()
}
