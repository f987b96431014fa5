package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/tuannm99/novatuple/internal/gologger"
)

var logger = gologger.NewLogger()

type FileSet interface {
	OpenSegment(segNo int32) (*os.File, error)
}

var _ FileSet = (*LocalFileSet)(nil)

// LocalFileSet represents a local directory + base file name.
// Segments are stored as: Base, Base.1, Base.2, ...
type LocalFileSet struct {
	Dir  string
	Base string
}

func (lfs LocalFileSet) OpenSegment(segNo int32) (*os.File, error) {
	path := lfs.SegmentPath(segNo)
	if err := os.MkdirAll(lfs.Dir, FileMode0755); err != nil {
		return nil, err
	}
	// RDWR | CREATE (no truncate)
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
}

// StorageManager maps a logical pageID -> (segment, offset) for a fixed
// page size.
type StorageManager struct {
	pageSize int
}

func NewStorageManager(pageSize int) (*StorageManager, error) {
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: %d", ErrBadPageSize, pageSize)
	}
	return &StorageManager{pageSize: pageSize}, nil
}

func (sm *StorageManager) PageSize() int { return sm.pageSize }

func (sm *StorageManager) pagesPerSegment() int {
	return SegmentSize / sm.pageSize
}

func (sm *StorageManager) locate(pageID uint32) (segNo int32, offset int64) {
	pps := uint32(sm.pagesPerSegment())
	segNo = int32(pageID / pps)
	offset = int64(pageID%pps) * int64(sm.pageSize)
	return segNo, offset
}

func closeFile(f *os.File) {
	if err := f.Close(); err != nil {
		logger.Warn().Err(err).Str("file", f.Name()).Msg("close segment")
	}
}

// ReadPage reads exactly one page into dst. Bytes beyond the end of the
// segment file read as zero, so pages can be allocated lazily.
func (sm *StorageManager) ReadPage(fs FileSet, pageID uint32, dst []byte) error {
	if len(dst) != sm.pageSize {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongSize, len(dst), sm.pageSize)
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer closeFile(f)

	n, err := f.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return err
	}
	clear(dst[n:])
	return nil
}

// WritePage writes exactly one page from src at the location of pageID.
func (sm *StorageManager) WritePage(fs FileSet, pageID uint32, src []byte) error {
	if len(src) != sm.pageSize {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongSize, len(src), sm.pageSize)
	}
	segNo, off := sm.locate(pageID)
	f, err := fs.OpenSegment(segNo)
	if err != nil {
		return err
	}
	defer closeFile(f)

	n, err := f.WriteAt(src, off)
	if err != nil {
		return err
	}
	if n != sm.pageSize {
		return io.ErrShortWrite
	}
	logger.Debug().Uint32("page_id", pageID).Int32("segment", segNo).Msg("page written")
	return nil
}

// CountPages computes total pages for a LocalFileSet by scanning its segments.
func (sm *StorageManager) CountPages(lfs LocalFileSet) (uint32, error) {
	segs, err := lfs.segments()
	if err != nil {
		return 0, err
	}

	var total uint32
	for _, s := range segs {
		total += uint32(s.size / int64(sm.pageSize))
	}
	return total, nil
}
