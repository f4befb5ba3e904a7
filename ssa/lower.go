package ssa

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/nickng/looprotate/cfg"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

var (
	ErrNoBody = errors.New("function has no body")
)

// forward stands in for a value whose definition has not been lowered yet.
type forward struct{ v ssa.Value }

func (f *forward) Name() string   { return f.v.Name() }
func (f *forward) String() string { return f.v.String() }

// lowerer translates one ssa.Function.
type lowerer struct {
	fn *cfg.Function

	blocks  []*cfg.Block
	values  map[ssa.Value]cfg.Value
	locs    map[ssa.Value]*cfg.Location
	names   map[string]int
	symbols map[string]*cfg.Param
}

// Lower translates an SSA function into a cfg.Function with the same blocks
// and edges.
//
// Every Alloc and every Global the function loads from or stores to becomes
// a cfg.Location, so a function built in ssa.NaiveForm keeps its local
// variables in memory. Comparisons become cfg.Compare and the branches map
// to cfg.If, cfg.Jump and cfg.Return. Debug references are dropped and
// everything else is kept as cfg.Other with its operands, so that uses of
// a value are still visible.
func Lower(f *ssa.Function) (*cfg.Function, error) {
	if f.Blocks == nil {
		return nil, errors.Wrap(ErrNoBody, f.String())
	}
	l := &lowerer{
		fn:      cfg.NewFunction(f.String()),
		values:  make(map[ssa.Value]cfg.Value),
		locs:    make(map[ssa.Value]*cfg.Location),
		names:   make(map[string]int),
		symbols: make(map[string]*cfg.Param),
	}
	for _, p := range f.Params {
		l.values[p] = l.fn.NewParam(p.Name())
	}
	for _, fv := range f.FreeVars {
		l.values[fv] = l.fn.NewParam(fv.Name())
	}
	for _, b := range f.Blocks {
		l.blocks = append(l.blocks, l.fn.NewBlock(b.Comment))
		for _, instr := range b.Instrs {
			if alloc, ok := instr.(*ssa.Alloc); ok {
				l.locs[alloc] = l.fn.NewLocation(l.uniqueName(varName(alloc)))
			}
		}
	}
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs {
			if err := l.instr(l.blocks[b.Index], instr); err != nil {
				return nil, errors.Wrapf(err, "lower %s block %d", f, b.Index)
			}
		}
	}
	if err := l.resolveAll(); err != nil {
		return nil, errors.Wrapf(err, "lower %s", f)
	}
	return l.fn, nil
}

// LowerAll lowers every function in fns which has a body.
func LowerAll(fns []*ssa.Function) ([]*cfg.Function, error) {
	var out []*cfg.Function
	for _, f := range fns {
		if f.Blocks == nil {
			continue
		}
		fn, err := Lower(f)
		if err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	return out, nil
}

func varName(alloc *ssa.Alloc) string {
	if alloc.Comment != "" {
		return alloc.Comment
	}
	return alloc.Name()
}

// uniqueName returns name, or name.N if name is already taken.
func (l *lowerer) uniqueName(name string) string {
	n := l.names[name]
	l.names[name]++
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}

// location returns the memory location addr refers to, if any.
func (l *lowerer) location(addr ssa.Value) (*cfg.Location, bool) {
	if loc, ok := l.locs[addr]; ok {
		return loc, true
	}
	if g, ok := addr.(*ssa.Global); ok {
		loc := l.fn.NewLocation(l.uniqueName(g.String()))
		l.locs[g] = loc
		return loc, true
	}
	return nil, false
}

// value returns the lowered operand v.
func (l *lowerer) value(v ssa.Value) cfg.Value {
	if cv, ok := l.values[v]; ok {
		return cv
	}
	switch v := v.(type) {
	case *ssa.Const:
		if v.Value == nil {
			return l.symbol(v.Name())
		}
		return cfg.NewConst(v.Value)
	case *ssa.Global, *ssa.Function:
		return l.symbol(v.String())
	case *ssa.Builtin:
		return l.symbol(v.Name())
	}
	return &forward{v: v}
}

// symbol returns an entry value standing for a named constant of the
// program (e.g. a function or the address of a global).
func (l *lowerer) symbol(name string) cfg.Value {
	if p, ok := l.symbols[name]; ok {
		return p
	}
	p := l.fn.NewParam(name)
	l.symbols[name] = p
	return p
}

func (l *lowerer) operands(instr ssa.Instruction) []cfg.Value {
	var args []cfg.Value
	for _, rand := range instr.Operands(nil) {
		if *rand != nil {
			args = append(args, l.value(*rand))
		}
	}
	return args
}

func (l *lowerer) instr(b *cfg.Block, instr ssa.Instruction) error {
	switch instr := instr.(type) {
	case *ssa.DebugRef:
		// Dropped.

	case *ssa.Alloc:
		kind := "local"
		if instr.Heap {
			kind = "new"
		}
		l.values[instr] = b.Other(fmt.Sprintf("%s %s", kind, l.locs[instr].Name()), true)

	case *ssa.UnOp:
		if instr.Op == token.MUL {
			if loc, ok := l.location(instr.X); ok {
				l.values[instr] = b.Load(loc)
				return nil
			}
		}
		l.values[instr] = b.Other(instr.Op.String(), true, l.value(instr.X))

	case *ssa.Store:
		if loc, ok := l.location(instr.Addr); ok {
			b.Store(loc, l.value(instr.Val))
			return nil
		}
		b.Other("store", false, l.value(instr.Addr), l.value(instr.Val))

	case *ssa.BinOp:
		switch instr.Op {
		case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
			l.values[instr] = b.Compare(instr.Op, l.value(instr.X), l.value(instr.Y))
		default:
			l.values[instr] = b.Other(instr.Op.String(), true, l.value(instr.X), l.value(instr.Y))
		}

	case *ssa.If:
		ssab := instr.Block()
		if len(ssab.Succs) != 2 {
			return errors.Errorf("if with %d successors", len(ssab.Succs))
		}
		b.If(l.value(instr.Cond), l.blocks[ssab.Succs[0].Index], l.blocks[ssab.Succs[1].Index])

	case *ssa.Jump:
		b.Jump(l.blocks[instr.Block().Succs[0].Index])

	case *ssa.Return:
		var results []cfg.Value
		for _, r := range instr.Results {
			results = append(results, l.value(r))
		}
		b.Return(results...)

	case *ssa.Panic:
		b.Other("panic", false, l.value(instr.X))
		b.Return()

	default:
		op := strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", instr), "*ssa."))
		v, hasValue := instr.(ssa.Value)
		o := b.Other(op, hasValue, l.operands(instr)...)
		if hasValue {
			l.values[v] = o
		}
	}
	return nil
}

// resolve replaces v if it was a forward reference.
func (l *lowerer) resolve(v cfg.Value) (cfg.Value, error) {
	fw, ok := v.(*forward)
	if !ok {
		return v, nil
	}
	if cv, ok := l.values[fw.v]; ok {
		return cv, nil
	}
	return nil, errors.Errorf("value %s is never defined", fw.v.Name())
}

func (l *lowerer) resolveAll() error {
	var err error
	resolve := func(v *cfg.Value) {
		if err == nil {
			*v, err = l.resolve(*v)
		}
	}
	for _, b := range l.fn.Blocks {
		for _, instr := range b.Instrs() {
			switch instr := instr.(type) {
			case *cfg.Store:
				resolve(&instr.Val)
			case *cfg.Compare:
				resolve(&instr.X)
				resolve(&instr.Y)
			case *cfg.If:
				resolve(&instr.Cond)
			case *cfg.Return:
				for i := range instr.Results {
					resolve(&instr.Results[i])
				}
			case *cfg.Other:
				for i := range instr.Args {
					resolve(&instr.Args[i])
				}
			}
		}
	}
	return err
}
