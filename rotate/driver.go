package rotate

import (
	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/loop"
	"github.com/pkg/errors"
)

// Run rotates the loops of forest in preorder. forest and dom must have
// been computed from fn before any of its loops was rotated.
//
// A loop which cannot be rotated is skipped, and the remaining loops are
// still attempted. If the report says the function changed, forest and dom
// are stale.
func (r *Rotator) Run(fn *cfg.Function, forest *loop.Forest, dom *cfg.DomTree) *Report {
	report := &Report{Function: fn.Name}
	for _, l := range forest.Preorder() {
		if forest.Func != fn {
			report.add(Result{Loop: l, Header: blockName(l.Header),
				Err: newLoopError(fn.Name, l.Header, errors.Wrapf(ErrStaleLoop, "forest of %s", forest.Func))})
			continue
		}
		if err := checkDominance(l, dom); err != nil {
			report.add(Result{Loop: l, Header: blockName(l.Header), Err: newLoopError(fn.Name, l.Header, err)})
			continue
		}
		res, _ := r.RotateLoop(l)
		report.add(res)
	}
	r.Debugf("%s %s: %d/%d loops rotated", r.Module(), fn.Name, report.Rotated(), len(report.Loops))
	return report
}

// RotateFunction computes the dominator tree and loop forest of fn and
// rotates its loops.
func (r *Rotator) RotateFunction(fn *cfg.Function) *Report {
	dom := cfg.Dominators(fn)
	return r.Run(fn, r.detector.Detect(fn, dom), dom)
}

// checkDominance checks that the header of l dominates the loop. Rotating
// other loops does not break this, so an earlier dom is good enough.
func checkDominance(l *loop.Loop, dom *cfg.DomTree) error {
	if dom == nil {
		return nil
	}
	for b := range l.Blocks {
		if !dom.Dominates(l.Header, b) {
			return errors.Wrapf(ErrStaleLoop, "header %s does not dominate %s", l.Header, b)
		}
	}
	return nil
}
