package bufferpool

import (
	"errors"
	"sync"

	"github.com/tuannm99/novatuple/internal/storage"
)

var (
	DefaultCapacity = 128

	ErrNoFreeFrame = errors.New("bufferpool: no free frame available (all pinned)")
)

// Manager is the page cache seen by a heap file.
type Manager interface {
	GetPage(pageID uint32) (*storage.Page, error)
	Unpin(page *storage.Page, dirty bool) error
	FlushAll() error
}

type frame struct {
	page  *storage.Page
	dirty bool
	pin   int32
}

var _ Manager = (*Pool)(nil)

// Pool caches pages of one FileSet. Pinned pages are never evicted; dirty
// pages are written back on eviction and on FlushAll.
type Pool struct {
	sm *storage.StorageManager
	fs storage.FileSet

	mu        sync.Mutex
	frames    []*frame       // nil == free
	pageTable map[uint32]int // PageID -> frame index
	replacer  *clock
}

func NewPool(sm *storage.StorageManager, fs storage.FileSet, capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		sm:        sm,
		fs:        fs,
		frames:    make([]*frame, capacity),
		pageTable: make(map[uint32]int),
		replacer:  newClock(capacity),
	}
}

func (p *Pool) GetPage(pageID uint32) (*storage.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.pageTable[pageID]; ok {
		f := p.frames[idx]
		f.pin++
		p.replacer.RecordAccess(idx)
		p.replacer.SetEvictable(idx, false)
		return f.page, nil
	}

	idx, err := p.freeFrameLocked()
	if err != nil {
		return nil, err
	}

	page, err := p.sm.LoadPage(p.fs, pageID)
	if err != nil {
		return nil, err
	}
	p.frames[idx] = &frame{page: page, pin: 1}
	p.pageTable[pageID] = idx
	p.replacer.RecordAccess(idx)
	p.replacer.SetEvictable(idx, false)
	return page, nil
}

// freeFrameLocked returns an empty frame index, evicting a victim if needed.
func (p *Pool) freeFrameLocked() (int, error) {
	for i, f := range p.frames {
		if f == nil {
			return i, nil
		}
	}

	idx, ok := p.replacer.Evict()
	if !ok {
		return -1, ErrNoFreeFrame
	}
	victim := p.frames[idx]
	if victim.dirty {
		if err := p.sm.SavePage(p.fs, victim.page); err != nil {
			p.replacer.SetEvictable(idx, true)
			return -1, err
		}
	}
	delete(p.pageTable, victim.page.ID)
	p.frames[idx] = nil
	return idx, nil
}

func (p *Pool) Unpin(page *storage.Page, dirty bool) error {
	if page == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.pageTable[page.ID]
	if !ok {
		return nil
	}
	f := p.frames[idx]
	if dirty {
		f.dirty = true
	}
	if f.pin > 0 {
		f.pin--
		if f.pin == 0 {
			p.replacer.SetEvictable(idx, true)
		}
	}
	return nil
}

func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, f := range p.frames {
		if f == nil || !f.dirty {
			continue
		}
		if err := p.sm.SavePage(p.fs, f.page); err != nil {
			return err
		}
		f.dirty = false
	}
	return nil
}
