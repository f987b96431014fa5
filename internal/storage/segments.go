package storage

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// SegmentPath is Dir/Base for segment 0 and Dir/Base.N after that.
func (lfs LocalFileSet) SegmentPath(segNo int32) string {
	name := lfs.Base
	if segNo > 0 {
		name = fmt.Sprintf("%s.%d", lfs.Base, segNo)
	}
	return filepath.Join(lfs.Dir, name)
}

type segment struct {
	no   int32
	size int64
}

// segments lists the files of lfs ordered by segment number. A missing
// directory means no segments.
func (lfs LocalFileSet) segments() ([]segment, error) {
	ents, err := os.ReadDir(lfs.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []segment
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		no, ok := lfs.segmentNo(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, segment{no: no, size: info.Size()})
	}
	slices.SortFunc(out, func(a, b segment) int { return cmp.Compare(a.no, b.no) })
	return out, nil
}

func (lfs LocalFileSet) segmentNo(name string) (int32, bool) {
	if name == lfs.Base {
		return 0, true
	}
	suf, ok := strings.CutPrefix(name, lfs.Base+".")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(suf, 10, 32)
	if err != nil || n <= 0 {
		return 0, false
	}
	return int32(n), true
}

// RemoveAllSegments deletes every segment file of lfs.
func RemoveAllSegments(lfs LocalFileSet) error {
	segs, err := lfs.segments()
	if err != nil {
		return err
	}
	for _, s := range segs {
		if err := os.Remove(lfs.SegmentPath(s.no)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	logger.Debug().Str("base", lfs.Base).Int("segments", len(segs)).Msg("segments removed")
	return nil
}
