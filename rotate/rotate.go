package rotate

import (
	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/internal/logging"
	"github.com/nickng/looprotate/loop"
	"github.com/pkg/errors"
)

// PassName is the name of the transformation in a pass pipeline.
const PassName = "simple-loop-rotate"

// Rotator rotates loops. A Rotator remembers the loops it has rotated, so
// running it again over the same function does nothing.
//
// A Rotator must not be used by more than one goroutine at a time, and the
// functions it rotates must not be read or written concurrently.
type Rotator struct {
	*logging.Logger

	detector  *loop.Detector
	processed map[*cfg.Block]*cfg.Block // Header and body of each rotated loop, to its latch.
	validate  bool
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithLogger sets the logger of the Rotator and its loop detector.
func WithLogger(l *logging.Logger) Option {
	return func(r *Rotator) { r.SetLogger(l) }
}

// WithValidation makes the Rotator check the function after every rotation.
func WithValidation() Option {
	return func(r *Rotator) { r.validate = true }
}

// New returns a new Rotator.
func New(opts ...Option) *Rotator {
	r := &Rotator{
		detector:  loop.NewDetector(),
		processed: make(map[*cfg.Block]*cfg.Block),
	}
	r.SetLogger(logging.Nop())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLogger sets logger for Rotator.
func (r *Rotator) SetLogger(l *logging.Logger) {
	r.Logger = l.For("rotate", logging.RotateColour)
	r.detector.SetLogger(l)
}

// Reset forgets the loops rotated so far.
func (r *Rotator) Reset() {
	r.processed = make(map[*cfg.Block]*cfg.Block)
}

// plan is a validated rotation, ready to be applied.
type plan struct {
	fn        *cfg.Function
	header    *cfg.Block
	preheader *cfg.Block
	latch     *cfg.Block
	body      *cfg.Block // Successor of the header inside the loop.
	exit      *cfg.Block // Successor of the header outside the loop.
	bodyFirst bool       // The body is the Then target of the header.
	guard     *Guard
}

// RotateLoop rotates l. On error the function is unchanged, unless the
// returned Result says otherwise.
func (r *Rotator) RotateLoop(l *loop.Loop) (Result, error) {
	res := Result{Loop: l}
	if l == nil || l.Header == nil {
		res.Err = errors.Wrap(ErrStaleLoop, "no header")
		return res, res.Err
	}
	res.Header = blockName(l.Header)
	fnName := "<nil>"
	if fn := l.Header.Parent(); fn != nil {
		fnName = fn.Name
	}

	p, err := r.check(l)
	if err != nil {
		res.Err = newLoopError(fnName, l.Header, err)
		r.Debugf("%s %s: skip loop %s: %v", r.Module(), fnName, res.Header, err)
		return res, res.Err
	}
	res.Guard = p.guard
	r.Debugw(r.Module()+" guard",
		"func", fnName,
		"header", res.Header,
		"op", p.guard.Op.String(),
		"location", p.guard.Loc.Name(),
		"bound", p.guard.Bound.String(),
		"preheader", p.preheader.String(),
		"latch", p.latch.String(),
		"body", p.body.String(),
		"exit", p.exit.String())

	pre, post, err := r.apply(p)
	res.Preheader, res.Latch = pre, post
	res.Changed = pre != nil
	if err != nil {
		res.Err = newLoopError(fnName, l.Header, err)
		r.Errorf("%s %s: rotate loop %s: %v", r.Module(), fnName, res.Header, err)
		return res, res.Err
	}
	if r.validate {
		if err := p.fn.Validate(); err != nil {
			res.Err = newLoopError(fnName, l.Header, errors.Wrap(err, "after rotation"))
			return res, res.Err
		}
	}
	r.Infof("%s %s: rotated loop %s, guard %s", r.Module(), fnName, res.Header, p.guard)
	return res, nil
}

// check validates every precondition of rotating l, without changing
// anything.
func (r *Rotator) check(l *loop.Loop) (*plan, error) {
	header := l.Header
	if r.rotated(l) {
		return nil, ErrAlreadyRotated
	}
	fn := header.Parent()
	if fn == nil {
		return nil, errors.Wrapf(ErrStaleLoop, "header %s removed", header)
	}
	for b := range l.Blocks {
		if b.Parent() != fn {
			return nil, errors.Wrapf(ErrStaleLoop, "block %s removed", b)
		}
	}

	// 1. Preheader and exit.
	exit := l.ExitBlock()
	if l.Preheader == nil || exit == nil {
		return nil, errors.Wrapf(ErrMissingPreheaderOrExit, "preheader %s, %d exits", l.Preheader, len(l.Exits))
	}
	if l.Preheader.Parent() != fn || exit.Parent() != fn {
		return nil, errors.Wrapf(ErrStaleLoop, "preheader %s or exit %s removed", l.Preheader, exit)
	}
	if succs := l.Preheader.Succs(); len(succs) != 1 || succs[0] != header {
		return nil, errors.Wrapf(ErrStaleLoop, "preheader %s does not jump to header %s", l.Preheader, header)
	}

	// 2. Guard.
	g, err := ExtractGuard(header.Terminator())
	if err != nil {
		return nil, err
	}

	// 3. Body and exit edges, by membership.
	p := &plan{fn: fn, header: header, preheader: l.Preheader, exit: exit, guard: g}
	thenIn, elseIn := l.Contains(g.Branch.Then), l.Contains(g.Branch.Else)
	switch {
	case thenIn && !elseIn:
		p.body, p.bodyFirst = g.Branch.Then, true
		if g.Branch.Else != exit {
			return nil, errors.Wrapf(ErrUnsupportedShape, "header leaves the loop to %s, not the exit %s", g.Branch.Else, exit)
		}
	case elseIn && !thenIn:
		p.body = g.Branch.Else
		if g.Branch.Then != exit {
			return nil, errors.Wrapf(ErrUnsupportedShape, "header leaves the loop to %s, not the exit %s", g.Branch.Then, exit)
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedShape, "header branch %q does not leave the loop", g.Branch)
	}
	if p.body == header {
		return nil, errors.Wrapf(ErrUnsupportedShape, "header %s branches to itself", header)
	}

	// 4. Latch.
	if len(l.Latches) != 1 {
		return nil, errors.Wrapf(ErrMissingLatch, "%d back edges", len(l.Latches))
	}
	p.latch = l.Latches[0]
	if p.latch.Parent() != fn {
		return nil, errors.Wrapf(ErrStaleLoop, "latch %s removed", p.latch)
	}
	if jmp, ok := p.latch.Terminator().(*cfg.Jump); !ok || jmp.Target != header {
		return nil, errors.Wrapf(ErrUnsupportedShape, "latch %s does not end in a jump to the header", p.latch)
	}
	for _, pred := range header.Preds() {
		if pred != p.preheader && pred != p.latch {
			return nil, errors.Wrapf(ErrUnsupportedShape, "header %s has another predecessor %s", header, pred)
		}
	}
	if len(header.Preds()) != 2 {
		return nil, errors.Wrapf(ErrUnsupportedShape, "header %s has %d predecessors", header, len(header.Preds()))
	}

	// 5. The header computes the guard and nothing else.
	if g.Cmp.Block() != header || g.Cmp.X.(*cfg.Load).Block() != header {
		return nil, errors.Wrapf(ErrUnsupportedShape, "guard %s is not computed in header %s", g, header)
	}
	guardInstrs := g.instrs()
	if len(guardInstrs) != len(header.Instrs()) {
		for _, instr := range header.Instrs() {
			if !containsInstr(guardInstrs, instr) {
				return nil, errors.Wrapf(ErrUnsupportedShape, "header %s has %q besides the guard", header, instr)
			}
		}
	}
	for _, instr := range guardInstrs {
		v, ok := instr.(cfg.Value)
		if !ok {
			continue
		}
		for _, use := range fn.Uses(v) {
			if use.Block() != header {
				return nil, errors.Wrapf(ErrUnsupportedShape, "%s is used by %q in block %s", v.Name(), use, use.Block())
			}
		}
	}

	// 6. The bound must be available at the preheader and the latch.
	if g.Bound.Loc == nil {
		if def, ok := g.Bound.Value.(cfg.Instruction); ok {
			if def.Block() == nil || def.Block().Parent() != fn || l.Contains(def.Block()) {
				return nil, errors.Wrapf(ErrUnsupportedShape, "bound %s is defined inside the loop", g.Bound)
			}
		}
	}
	return p, nil
}

// apply performs a checked rotation. It returns the guards synthesized in
// the preheader and the latch.
func (r *Rotator) apply(p *plan) (pre, post *cfg.Compare, err error) {
	branch := func(cond *cfg.Compare) *cfg.If {
		if p.bodyFirst {
			return &cfg.If{Cond: cond, Then: p.body, Else: p.exit}
		}
		return &cfg.If{Cond: cond, Then: p.exit, Else: p.body}
	}

	if pre, err = SynthesizeGuard(p.preheader.Terminator(), p.guard); err != nil {
		return nil, nil, err
	}
	if err = p.preheader.ReplaceTerminator(branch(pre)); err != nil {
		return pre, nil, err
	}
	r.Debugf("%s %s: preheader %s: %s; %q", r.Module(), p.fn.Name, p.preheader, pre, p.preheader.Terminator())

	if post, err = SynthesizeGuard(p.latch.Terminator(), p.guard); err != nil {
		return pre, nil, err
	}
	if err = p.latch.ReplaceTerminator(branch(post)); err != nil {
		return pre, post, err
	}
	r.Debugf("%s %s: latch %s: %s; %q", r.Module(), p.fn.Name, p.latch, post, p.latch.Terminator())

	if err = p.fn.RemoveBlock(p.header); err != nil {
		return pre, post, err
	}
	r.Debugf("%s %s: removed header %s", r.Module(), p.fn.Name, p.header)

	r.processed[p.header] = p.latch
	r.processed[p.body] = p.latch
	return pre, post, nil
}

// rotated returns true if l is a loop rotated earlier: its header is the old
// header or body of a rotated loop, and its only latch is that loop's latch.
// A loop whose header was only the body of another loop is not rotated.
func (r *Rotator) rotated(l *loop.Loop) bool {
	latch, ok := r.processed[l.Header]
	return ok && len(l.Latches) == 1 && l.Latches[0] == latch
}

func containsInstr(instrs []cfg.Instruction, instr cfg.Instruction) bool {
	for _, in := range instrs {
		if in == instr {
			return true
		}
	}
	return false
}
