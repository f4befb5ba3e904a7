package loop

import (
	"sort"

	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/internal/logging"
)

// Detector finds the natural loops of a function.
type Detector struct {
	*logging.Logger
}

// NewDetector returns a Detector which does not log.
func NewDetector() *Detector {
	d := new(Detector)
	d.SetLogger(logging.Nop())
	return d
}

// SetLogger sets logger for Detector.
func (d *Detector) SetLogger(l *logging.Logger) {
	d.Logger = l.For("loop", logging.LoopColour)
}

// Detect returns the loop forest of fn. dom must be the dominator tree of
// the current graph of fn.
func (d *Detector) Detect(fn *cfg.Function, dom *cfg.DomTree) *Forest {
	forest := newForest(fn)

	// Back edges, grouped by header. Headers are visited in reverse
	// postorder so enclosing loops are created before nested ones.
	var headers []*cfg.Block
	latches := make(map[*cfg.Block][]*cfg.Block)
	for _, b := range dom.ReversePostorder() {
		for _, succ := range b.Succs() {
			if !dom.Dominates(succ, b) {
				continue
			}
			d.Debugf("%s %s: back edge %s → %s", d.Module(), fn.Name, b, succ)
			if _, ok := latches[succ]; !ok {
				headers = append(headers, succ)
			}
			if !containsBlock(latches[succ], b) {
				latches[succ] = append(latches[succ], b)
			}
		}
	}
	sort.SliceStable(headers, func(i, j int) bool {
		return rpoIndex(dom, headers[i]) < rpoIndex(dom, headers[j])
	})

	for _, h := range headers {
		l := &Loop{
			Header:  h,
			Latches: latches[h],
			Blocks:  naturalLoop(dom, h, latches[h]),
		}
		l.Preheader = preheader(l)
		l.Exits = exits(l)
		forest.add(l)
		d.Debugf("%s %s: %s", d.Module(), fn.Name, l)
	}
	forest.finish()
	return forest
}

// naturalLoop returns the header plus all blocks which reach one of the
// latches without going through the header.
func naturalLoop(dom *cfg.DomTree, header *cfg.Block, latches []*cfg.Block) map[*cfg.Block]bool {
	blocks := map[*cfg.Block]bool{header: true}
	var worklist []*cfg.Block
	for _, latch := range latches {
		if !blocks[latch] {
			blocks[latch] = true
			worklist = append(worklist, latch)
		}
	}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, pred := range b.Preds() {
			if !blocks[pred] && dom.Reachable(pred) {
				blocks[pred] = true
				worklist = append(worklist, pred)
			}
		}
	}
	return blocks
}

// preheader returns the only predecessor of the header outside of l, if
// that predecessor has the header as its only successor.
func preheader(l *Loop) *cfg.Block {
	var outside *cfg.Block
	for _, pred := range l.Header.Preds() {
		if l.Contains(pred) {
			continue
		}
		if outside != nil && outside != pred {
			return nil
		}
		outside = pred
	}
	if outside == nil {
		return nil
	}
	if succs := outside.Succs(); len(succs) != 1 || succs[0] != l.Header {
		return nil
	}
	return outside
}

// exits returns the successors of the blocks of l which are outside of l,
// in block order.
func exits(l *Loop) []*cfg.Block {
	var exits []*cfg.Block
	for _, b := range l.BodyBlocks() {
		for _, succ := range b.Succs() {
			if !l.Contains(succ) && !containsBlock(exits, succ) {
				exits = append(exits, succ)
			}
		}
	}
	return exits
}

func containsBlock(blocks []*cfg.Block, b *cfg.Block) bool {
	for _, blk := range blocks {
		if blk == b {
			return true
		}
	}
	return false
}

func rpoIndex(dom *cfg.DomTree, b *cfg.Block) int {
	for i, blk := range dom.ReversePostorder() {
		if blk == b {
			return i
		}
	}
	return -1
}
