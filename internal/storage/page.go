package storage

// Page is one page image tagged with its logical ID inside a FileSet.
// Its layout is owned by the caller (see heap.HeapPage).
type Page struct {
	ID  uint32
	Buf []byte
}

// LoadPage reads pageID into a freshly allocated Page.
func (sm *StorageManager) LoadPage(fs FileSet, pageID uint32) (*Page, error) {
	buf := make([]byte, sm.pageSize)
	if err := sm.ReadPage(fs, pageID, buf); err != nil {
		return nil, err
	}
	return &Page{ID: pageID, Buf: buf}, nil
}

// SavePage writes p back at its own page ID.
func (sm *StorageManager) SavePage(fs FileSet, p *Page) error {
	return sm.WritePage(fs, p.ID, p.Buf)
}
