package loop

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/nickng/looprotate/cfg"
)

// Loop is a natural loop.
type Loop struct {
	Header    *cfg.Block          // Target of the back edges, dominates Blocks.
	Preheader *cfg.Block          // Single entry block outside the loop, nil if none.
	Latches   []*cfg.Block        // Sources of the back edges.
	Exits     []*cfg.Block        // Blocks outside the loop with a predecessor inside.
	Blocks    map[*cfg.Block]bool // Blocks of the loop, including Header.

	Parent   *Loop   // Enclosing loop, nil for top-level loops.
	Children []*Loop // Loops nested immediately inside this loop.
	Depth    int     // Nesting depth, 1 for top-level loops.
}

// Latch returns the latch of l if there is exactly one.
func (l *Loop) Latch() *cfg.Block {
	if len(l.Latches) != 1 {
		return nil
	}
	return l.Latches[0]
}

// ExitBlock returns the exit block of l if there is exactly one.
func (l *Loop) ExitBlock() *cfg.Block {
	if len(l.Exits) != 1 {
		return nil
	}
	return l.Exits[0]
}

// Contains returns true if b is one of the blocks of l.
func (l *Loop) Contains(b *cfg.Block) bool {
	return l.Blocks[b]
}

// BodyBlocks returns the blocks of l ordered by index.
func (l *Loop) BodyBlocks() []*cfg.Block {
	blocks := make([]*cfg.Block, 0, len(l.Blocks))
	for b := range l.Blocks {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Index < blocks[j].Index })
	return blocks
}

func (l *Loop) String() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("loop %s", l.Header))
	if l.Header != nil && l.Header.Comment != "" {
		buf.WriteString(fmt.Sprintf(" (%s)", l.Header.Comment))
	}
	buf.WriteString(fmt.Sprintf(" depth=%d preheader=%s blocks=%s latches=%s exits=%s",
		l.Depth, l.Preheader, blockList(l.BodyBlocks()), blockList(l.Latches), blockList(l.Exits)))
	return buf.String()
}

func blockList(blocks []*cfg.Block) string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, b := range blocks {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(b.String())
	}
	buf.WriteString("]")
	return buf.String()
}
