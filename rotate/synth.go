package rotate

import (
	"github.com/nickng/looprotate/cfg"
	"github.com/pkg/errors"
)

// SynthesizeGuard inserts a copy of the comparison of g immediately before
// insertBefore and returns the new comparison:
//
//	t0 = *Loc
//	t1 = *Bound  (if the bound is in memory)
//	t2 = t0 Op t1
//
// The branch is left to the caller.
func SynthesizeGuard(insertBefore cfg.Instruction, g *Guard) (*cfg.Compare, error) {
	b := insertBefore.Block()
	if b == nil {
		return nil, errors.Wrapf(cfg.ErrNotInBlock, "synthesize guard %s before %q", g, insertBefore)
	}
	ld := &cfg.Load{Loc: g.Loc}
	instrs := []cfg.Instruction{ld}
	bound := g.Bound.Value
	if g.Bound.Loc != nil {
		bl := &cfg.Load{Loc: g.Bound.Loc}
		instrs = append(instrs, bl)
		bound = bl
	}
	cmp := &cfg.Compare{Op: g.Op, X: ld, Y: bound}
	instrs = append(instrs, cmp)
	if err := b.InsertBefore(insertBefore, instrs...); err != nil {
		return nil, errors.Wrapf(err, "synthesize guard %s", g)
	}
	return cmp, nil
}
