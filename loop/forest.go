package loop

import (
	"bytes"
	"sort"
	"strings"

	"github.com/nickng/looprotate/cfg"
)

// Forest is the loop nesting forest of a function.
type Forest struct {
	Func *cfg.Function
	Top  []*Loop // Loops which are not nested in any other loop.

	preorder  []*Loop
	innermost map[*cfg.Block]*Loop
}

func newForest(fn *cfg.Function) *Forest {
	return &Forest{Func: fn, innermost: make(map[*cfg.Block]*Loop)}
}

// add inserts l under the innermost loop containing its header. Enclosing
// loops must be added first.
func (f *Forest) add(l *Loop) {
	var parent *Loop
	for _, candidate := range f.preorder {
		if candidate.Contains(l.Header) && (parent == nil || candidate.Depth > parent.Depth) {
			parent = candidate
		}
	}
	l.Parent = parent
	l.Depth = 1
	if parent != nil {
		l.Depth = parent.Depth + 1
		parent.Children = append(parent.Children, l)
	} else {
		f.Top = append(f.Top, l)
	}
	// Insertion order only; finish sorts out the real preorder.
	f.preorder = append(f.preorder, l)
}

// finish orders siblings by header index and computes the preorder.
func (f *Forest) finish() {
	byHeader := func(loops []*Loop) {
		sort.Slice(loops, func(i, j int) bool { return loops[i].Header.Index < loops[j].Header.Index })
	}
	byHeader(f.Top)
	for _, l := range f.preorder {
		byHeader(l.Children)
	}

	f.preorder = f.preorder[:0]
	s := NewStack()
	for i := len(f.Top) - 1; i >= 0; i-- {
		s.Push(f.Top[i])
	}
	for !s.IsEmpty() {
		l, _ := s.Pop()
		f.preorder = append(f.preorder, l)
		for b := range l.Blocks {
			f.innermost[b] = l // Overwritten later by nested loops.
		}
		for i := len(l.Children) - 1; i >= 0; i-- {
			s.Push(l.Children[i])
		}
	}
}

// Preorder returns all loops, each loop before the loops nested in it and
// siblings in block order.
func (f *Forest) Preorder() []*Loop { return f.preorder }

// Len returns the number of loops.
func (f *Forest) Len() int { return len(f.preorder) }

// LoopFor returns the innermost loop containing b, nil if b is not in a loop.
func (f *Forest) LoopFor(b *cfg.Block) *Loop { return f.innermost[b] }

// LoopAt returns the loop with header b.
func (f *Forest) LoopAt(b *cfg.Block) *Loop {
	if l := f.innermost[b]; l != nil && l.Header == b {
		return l
	}
	return nil
}

func (f *Forest) String() string {
	var buf bytes.Buffer
	for _, l := range f.preorder {
		buf.WriteString(strings.Repeat("  ", l.Depth-1))
		buf.WriteString(l.String())
		buf.WriteString("\n")
	}
	return buf.String()
}
