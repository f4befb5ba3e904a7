package rotate

import (
	"go/constant"
	"go/token"

	"github.com/nickng/looprotate/cfg"
	"github.com/pkg/errors"
)

var errStepLimit = errors.New("step limit reached")

// machine executes a cfg.Function over integers. Booleans are 0 and 1.
type machine struct {
	params map[string]int64
	mem    map[*cfg.Location]int64
	vals   map[cfg.Value]int64
	steps  int
}

func newMachine(params map[string]int64) *machine {
	return &machine{
		params: params,
		mem:    make(map[*cfg.Location]int64),
		vals:   make(map[cfg.Value]int64),
	}
}

// run executes fn from its entry block and returns the final memory, by
// location name.
func (m *machine) run(fn *cfg.Function, limit int) (map[string]int64, error) {
	b := fn.Entry()
	for b != nil {
		var next *cfg.Block
		for _, instr := range b.Instrs() {
			if m.steps++; m.steps > limit {
				return nil, errStepLimit
			}
			switch instr := instr.(type) {
			case *cfg.Load:
				m.vals[instr] = m.mem[instr.Loc]
			case *cfg.Store:
				v, err := m.eval(instr.Val)
				if err != nil {
					return nil, err
				}
				m.mem[instr.Loc] = v
			case *cfg.Compare:
				v, err := m.compare(instr)
				if err != nil {
					return nil, err
				}
				m.vals[instr] = v
			case *cfg.Other:
				if err := m.other(instr); err != nil {
					return nil, err
				}
			case *cfg.If:
				c, err := m.eval(instr.Cond)
				if err != nil {
					return nil, err
				}
				next = instr.Else
				if c != 0 {
					next = instr.Then
				}
			case *cfg.Jump:
				next = instr.Target
			case *cfg.Return:
				next = nil
			default:
				return nil, errors.Errorf("unknown instruction %T", instr)
			}
		}
		b = next
	}
	out := make(map[string]int64)
	for loc, v := range m.mem {
		out[loc.Name()] = v
	}
	return out, nil
}

func (m *machine) eval(v cfg.Value) (int64, error) {
	switch v := v.(type) {
	case *cfg.Const:
		i, ok := constant.Int64Val(v.Value)
		if !ok {
			return 0, errors.Errorf("not an int64 constant: %s", v)
		}
		return i, nil
	case *cfg.Param:
		return m.params[v.Name()], nil
	}
	i, ok := m.vals[v]
	if !ok {
		return 0, errors.Errorf("value %s used before definition", v.Name())
	}
	return i, nil
}

func (m *machine) compare(c *cfg.Compare) (int64, error) {
	x, err := m.eval(c.X)
	if err != nil {
		return 0, err
	}
	y, err := m.eval(c.Y)
	if err != nil {
		return 0, err
	}
	var b bool
	switch c.Op {
	case token.EQL:
		b = x == y
	case token.NEQ:
		b = x != y
	case token.LSS:
		b = x < y
	case token.LEQ:
		b = x <= y
	case token.GTR:
		b = x > y
	case token.GEQ:
		b = x >= y
	default:
		return 0, errors.Errorf("unknown comparison %s", c.Op)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

func (m *machine) other(o *cfg.Other) error {
	if !o.HasValue {
		return nil
	}
	args := make([]int64, len(o.Args))
	for i, arg := range o.Args {
		v, err := m.eval(arg)
		if err != nil {
			return err
		}
		args[i] = v
	}
	switch {
	case o.Op == "+" && len(args) == 2:
		m.vals[o] = args[0] + args[1]
	case o.Op == "-" && len(args) == 2:
		m.vals[o] = args[0] - args[1]
	default:
		return errors.Errorf("unknown operation %s", o)
	}
	return nil
}
