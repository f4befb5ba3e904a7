package cfg

// This file computes the dominator tree of a Function.

// DomTree holds the immediate dominators of the reachable blocks of a
// Function. It is a snapshot: mutating the Function makes it stale.
type DomTree struct {
	fn   *Function
	idom []*Block // Block.Index -> immediate dominator, nil for entry/unreachable.
	rpo  []*Block // Reachable blocks in reverse postorder.
	num  []int    // Block.Index -> position in rpo, -1 if unreachable.
}

type blockAndIndex struct {
	b     *Block
	index int // Number of successor edges of b already explored.
}

// Postorder returns a DFS postorder of the blocks of f reachable from the
// entry block.
func Postorder(f *Function) []*Block {
	entry := f.Entry()
	if entry == nil {
		return nil
	}
	seen := make([]bool, f.NumBlocks())
	order := make([]*Block, 0, len(f.Blocks))

	s := make([]blockAndIndex, 0, 32)
	s = append(s, blockAndIndex{b: entry})
	seen[entry.Index] = true
	for len(s) > 0 {
		tos := len(s) - 1
		x := s[tos]
		b := x.b
		if succs := b.Succs(); x.index < len(succs) {
			s[tos].index++
			bb := succs[x.index]
			if bb != nil && bb.parent == f && !seen[bb.Index] {
				seen[bb.Index] = true
				s = append(s, blockAndIndex{b: bb})
			}
			continue
		}
		s = s[:tos]
		order = append(order, b)
	}
	return order
}

// Dominators computes the dominator tree of f using the algorithm from
// "A Simple, Fast Dominance Algorithm" by Cooper, Harvey and Kennedy.
func Dominators(f *Function) *DomTree {
	po := Postorder(f)
	t := &DomTree{
		fn:   f,
		idom: make([]*Block, f.NumBlocks()),
		rpo:  make([]*Block, len(po)),
		num:  make([]int, f.NumBlocks()),
	}
	for i := range t.num {
		t.num[i] = -1
	}
	for i, b := range po {
		t.rpo[len(po)-1-i] = b
	}
	for i, b := range t.rpo {
		t.num[b.Index] = i
	}
	if len(t.rpo) == 0 {
		return t
	}

	entry := t.rpo[0]
	t.idom[entry.Index] = entry
	for changed := true; changed; {
		changed = false
		for _, b := range t.rpo[1:] {
			var u *Block
			for _, p := range b.preds {
				// Skip unreachable or not yet processed predecessors.
				if t.num[p.Index] < 0 || t.idom[p.Index] == nil {
					continue
				}
				if u == nil {
					u = p
					continue
				}
				u = t.intersect(u, p)
			}
			if t.idom[b.Index] != u {
				t.idom[b.Index] = u
				changed = true
			}
		}
	}
	t.idom[entry.Index] = nil
	return t
}

// intersect finds the closest common dominator of b and c.
func (t *DomTree) intersect(b, c *Block) *Block {
	for b != c {
		for t.num[b.Index] > t.num[c.Index] {
			b = t.idom[b.Index]
		}
		for t.num[c.Index] > t.num[b.Index] {
			c = t.idom[c.Index]
		}
	}
	return b
}

// Idom returns the immediate dominator of b, nil for the entry block and
// unreachable blocks.
func (t *DomTree) Idom(b *Block) *Block {
	if b.Index >= len(t.idom) {
		return nil
	}
	return t.idom[b.Index]
}

// Reachable returns true if b is reachable from the entry block.
func (t *DomTree) Reachable(b *Block) bool {
	return b.Index < len(t.num) && t.num[b.Index] >= 0 && t.rpo[t.num[b.Index]] == b
}

// Dominates returns true if every path from the entry to b goes through a.
// Every reachable block dominates itself.
func (t *DomTree) Dominates(a, b *Block) bool {
	if !t.Reachable(a) || !t.Reachable(b) {
		return false
	}
	for x := b; x != nil; x = t.Idom(x) {
		if x == a {
			return true
		}
	}
	return false
}

// ReversePostorder returns the reachable blocks in reverse postorder.
func (t *DomTree) ReversePostorder() []*Block { return t.rpo }
