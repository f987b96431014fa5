package executor

import (
	"errors"
	"fmt"
	"io"

	"github.com/tuannm99/novatuple/internal/heap"
	"github.com/tuannm99/novatuple/internal/record"
)

var ErrNotOpen = errors.New("executor: operator is not open")

// Operator is a pull-based iterator over tuples. Next returns io.EOF once
// the input is exhausted; Rewind restarts it from the first tuple.
type Operator interface {
	Open() error
	Next() (*record.Tuple, error)
	Rewind() error
	Close() error
	TupleDesc() *record.TupleDesc
}

// ----- SeqScan -----

// SeqScan reads a heap file page by page. The file lock is only held while
// a page is copied out, so a scan never blocks writers between pages.
type SeqScan struct {
	file *heap.HeapFile
	desc *record.TupleDesc

	open   bool
	pageID uint32
	rows   [][]any
	pos    int
}

// NewSeqScan scans file, exposing its rows under desc. desc must be
// equal to the file's descriptor; it usually carries qualified names.
func NewSeqScan(file *heap.HeapFile, desc *record.TupleDesc) (*SeqScan, error) {
	if !desc.Equal(file.Desc) {
		return nil, fmt.Errorf("executor: scan of %s: %s does not match %s", file.Name, desc, file.Desc)
	}
	return &SeqScan{file: file, desc: desc}, nil
}

func (s *SeqScan) TupleDesc() *record.TupleDesc { return s.desc }

func (s *SeqScan) Open() error {
	s.open = true
	return s.Rewind()
}

func (s *SeqScan) Rewind() error {
	s.pageID, s.rows, s.pos = 0, nil, 0
	return nil
}

func (s *SeqScan) Next() (*record.Tuple, error) {
	if !s.open {
		return nil, ErrNotOpen
	}
	for s.pos >= len(s.rows) {
		if s.pageID >= s.file.NumPages() {
			return nil, io.EOF
		}
		_, rows, err := s.file.PageRows(s.pageID)
		if err != nil {
			return nil, err
		}
		s.pageID++
		s.rows, s.pos = rows, 0
	}
	row := s.rows[s.pos]
	s.pos++
	return record.NewTuple(s.desc, row)
}

func (s *SeqScan) Close() error {
	s.open = false
	s.rows = nil
	return nil
}

// ----- Filter -----

// Filter passes through tuples whose field index equals value.
type Filter struct {
	child Operator
	index int
	value any
}

func NewFilter(child Operator, index int, value any) (*Filter, error) {
	ft, err := child.TupleDesc().FieldType(index)
	if err != nil {
		return nil, err
	}
	v, err := record.Coerce(ft, value)
	if err != nil {
		return nil, err
	}
	return &Filter{child: child, index: index, value: v}, nil
}

func (f *Filter) TupleDesc() *record.TupleDesc { return f.child.TupleDesc() }
func (f *Filter) Open() error                  { return f.child.Open() }
func (f *Filter) Rewind() error                { return f.child.Rewind() }
func (f *Filter) Close() error                 { return f.child.Close() }

func (f *Filter) Next() (*record.Tuple, error) {
	for {
		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		if v, _ := t.Value(f.index); v == f.value {
			return t, nil
		}
	}
}

// ----- Project -----

// Project keeps a subset of its child's fields.
type Project struct {
	child   Operator
	indices []int
	desc    *record.TupleDesc
}

func NewProject(child Operator, indices []int) (*Project, error) {
	desc, err := child.TupleDesc().Project(indices...)
	if err != nil {
		return nil, err
	}
	return &Project{child: child, indices: indices, desc: desc}, nil
}

func (p *Project) TupleDesc() *record.TupleDesc { return p.desc }
func (p *Project) Open() error                  { return p.child.Open() }
func (p *Project) Rewind() error                { return p.child.Rewind() }
func (p *Project) Close() error                 { return p.child.Close() }

func (p *Project) Next() (*record.Tuple, error) {
	t, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	return t.Project(p.desc, p.indices), nil
}

// ----- NestedLoopJoin -----

// NestedLoopJoin emits outer ++ inner for every pair where
// outer[left] == inner[right]. The inner side is rewound once per outer
// tuple.
type NestedLoopJoin struct {
	outer, inner Operator
	left, right  int
	desc         *record.TupleDesc

	cur *record.Tuple
}

func NewNestedLoopJoin(outer, inner Operator, left, right int) (*NestedLoopJoin, error) {
	lt, err := outer.TupleDesc().FieldType(left)
	if err != nil {
		return nil, err
	}
	rt, err := inner.TupleDesc().FieldType(right)
	if err != nil {
		return nil, err
	}
	if lt != rt {
		return nil, fmt.Errorf("%w: join %s with %s", record.ErrTypeMismatch, lt, rt)
	}
	return &NestedLoopJoin{
		outer: outer,
		inner: inner,
		left:  left,
		right: right,
		desc:  record.Merge(outer.TupleDesc(), inner.TupleDesc()),
	}, nil
}

func (j *NestedLoopJoin) TupleDesc() *record.TupleDesc { return j.desc }

func (j *NestedLoopJoin) Open() error {
	j.cur = nil
	if err := j.outer.Open(); err != nil {
		return err
	}
	return j.inner.Open()
}

func (j *NestedLoopJoin) Rewind() error {
	j.cur = nil
	if err := j.outer.Rewind(); err != nil {
		return err
	}
	return j.inner.Rewind()
}

func (j *NestedLoopJoin) Close() error {
	j.cur = nil
	return errors.Join(j.outer.Close(), j.inner.Close())
}

func (j *NestedLoopJoin) Next() (*record.Tuple, error) {
	for {
		if j.cur == nil {
			t, err := j.outer.Next()
			if err != nil {
				return nil, err
			}
			if err := j.inner.Rewind(); err != nil {
				return nil, err
			}
			j.cur = t
		}

		it, err := j.inner.Next()
		if errors.Is(err, io.EOF) {
			j.cur = nil
			continue
		}
		if err != nil {
			return nil, err
		}

		lv, _ := j.cur.Value(j.left)
		rv, _ := it.Value(j.right)
		if lv == rv {
			return record.ConcatWith(j.desc, j.cur, it), nil
		}
	}
}

// Drain opens op, reads every tuple and closes it.
func Drain(op Operator) ([]*record.Tuple, error) {
	if err := op.Open(); err != nil {
		return nil, err
	}
	defer func() { _ = op.Close() }()

	var out []*record.Tuple
	for {
		t, err := op.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}
