package rotate

import (
	"fmt"
	"go/token"

	"github.com/nickng/looprotate/cfg"
	"github.com/pkg/errors"
)

// Operand is the bound of a Guard. Exactly one of Value and Loc is set.
type Operand struct {
	Value cfg.Value     // Used as is at every guard site.
	Loc   *cfg.Location // Loaded again at every guard site.
}

func (o Operand) String() string {
	if o.Loc != nil {
		return "*" + o.Loc.Name()
	}
	return o.Value.Name()
}

// Guard is the condition governing a loop, recovered from the terminator of
// its header:
//
//	t0 = *Loc
//	t1 = t0 Op Bound
//	if t1 goto ... else ...
type Guard struct {
	Op    token.Token
	Loc   *cfg.Location
	Bound Operand

	Cmp    *cfg.Compare // Original comparison.
	Branch *cfg.If      // Original branch.
}

func (g *Guard) String() string {
	return fmt.Sprintf("*%s %s %s", g.Loc.Name(), g.Op, g.Bound)
}

// ExtractGuard recovers the guard from term, the terminator of a loop
// header. It does not modify anything.
func ExtractGuard(term cfg.Instruction) (*Guard, error) {
	var br *cfg.If
	switch term := term.(type) {
	case *cfg.If:
		br = term
	case *cfg.Jump, *cfg.Return:
		return nil, errors.Wrapf(ErrNotConditional, "terminator %q", term)
	case nil:
		return nil, errors.Wrap(ErrNotConditional, "no terminator")
	default:
		return nil, errors.Wrapf(ErrNotConditional, "unexpected terminator %T", term)
	}

	cmp, ok := br.Cond.(*cfg.Compare)
	if !ok {
		return nil, errors.Wrapf(ErrNotComparable, "condition %s of %q", cfg.NameOf(br.Cond), br)
	}
	ld, ok := cmp.X.(*cfg.Load)
	if !ok {
		return nil, errors.Wrapf(ErrNotMemoryBacked, "operand %s of %q", cfg.NameOf(cmp.X), cmp)
	}

	bound := Operand{Value: cmp.Y}
	// A bound loaded in the header is loaded again at each guard site.
	if y, ok := cmp.Y.(*cfg.Load); ok && y.Block() != nil && y.Block() == br.Block() {
		bound = Operand{Loc: y.Loc}
	}
	return &Guard{
		Op:     cmp.Op,
		Loc:    ld.Loc,
		Bound:  bound,
		Cmp:    cmp,
		Branch: br,
	}, nil
}

// instrs returns the instructions of the original guard, in block order.
func (g *Guard) instrs() []cfg.Instruction {
	set := map[cfg.Instruction]bool{g.Cmp: true, g.Branch: true}
	if ld, ok := g.Cmp.X.(cfg.Instruction); ok {
		set[ld] = true
	}
	if g.Bound.Loc != nil {
		set[g.Cmp.Y.(cfg.Instruction)] = true
	}
	var instrs []cfg.Instruction
	for _, instr := range g.Branch.Block().Instrs() {
		if set[instr] {
			instrs = append(instrs, instr)
		}
	}
	return instrs
}
