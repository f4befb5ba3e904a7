package cfg

import (
	"bytes"
	"fmt"
	"go/constant"
	"go/token"
)

// Value is anything that can be used as an operand of an Instruction.
type Value interface {
	Name() string   // Short name used when the value is an operand.
	String() string // Description of the value.
}

// Instruction is a statement in a Block.
//
// The concrete types are *Load, *Store, *Compare, *If, *Jump, *Return and
// *Other. Value-producing instructions (*Load, *Compare and some *Other) also
// implement Value.
type Instruction interface {
	String() string      // Instruction text, without the result name.
	Block() *Block       // Enclosing block, nil if detached.
	Operands() []Value   // Values used by the instruction.
	setBlock(blk *Block) // Attach to blk.
}

type anInstruction struct {
	block *Block
}

func (i *anInstruction) Block() *Block        { return i.block }
func (i *anInstruction) setBlock(blk *Block) { i.block = blk }

// register is embedded by instructions that produce a value.
type register struct {
	anInstruction
	num int // Assigned by Function when the instruction is first attached.
}

func (r *register) Name() string { return fmt.Sprintf("t%d", r.num) }

func (r *register) setNum(n int) { r.num = n }

// numbered is implemented by value-producing instructions.
type numbered interface {
	Value
	setNum(int)
}

// Load reads the content of a memory location.
//
//	t0 = *i
type Load struct {
	register
	Loc *Location
}

func (l *Load) String() string    { return fmt.Sprintf("*%s", l.Loc.Name()) }
func (l *Load) Operands() []Value { return nil }

// Store writes Val to a memory location.
//
//	*i = t3
type Store struct {
	anInstruction
	Loc *Location
	Val Value
}

func (s *Store) String() string    { return fmt.Sprintf("*%s = %s", s.Loc.Name(), NameOf(s.Val)) }
func (s *Store) Operands() []Value { return []Value{s.Val} }

// Compare is a boolean comparison between X and Y.
// Op is one of token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR or
// token.GEQ.
//
//	t1 = t0 < 4
type Compare struct {
	register
	Op   token.Token
	X, Y Value
}

func (c *Compare) String() string {
	return fmt.Sprintf("%s %s %s", NameOf(c.X), c.Op, NameOf(c.Y))
}
func (c *Compare) Operands() []Value { return []Value{c.X, c.Y} }

// If is the conditional branch terminator.
// Control goes to Then if Cond is true, Else otherwise.
//
//	if t1 goto 2 else 4
type If struct {
	anInstruction
	Cond       Value
	Then, Else *Block
}

func (i *If) String() string {
	return fmt.Sprintf("if %s goto %s else %s", NameOf(i.Cond), i.Then, i.Else)
}
func (i *If) Operands() []Value { return []Value{i.Cond} }

// Jump is the unconditional branch terminator.
//
//	jump 1
type Jump struct {
	anInstruction
	Target *Block
}

func (j *Jump) String() string    { return fmt.Sprintf("jump %s", j.Target) }
func (j *Jump) Operands() []Value { return nil }

// Return is the function exit terminator.
type Return struct {
	anInstruction
	Results []Value
}

func (r *Return) String() string {
	if len(r.Results) == 0 {
		return "return"
	}
	return "return " + joinNames(r.Results)
}
func (r *Return) Operands() []Value { return r.Results }

// Other is any instruction that is not interesting to loop rotation.
// If HasValue is set the instruction also defines a value.
//
//	t4 = + t3, 1
type Other struct {
	register
	Op       string
	Args     []Value
	HasValue bool
}

func (o *Other) String() string {
	if len(o.Args) == 0 {
		return o.Op
	}
	return fmt.Sprintf("%s %s", o.Op, joinNames(o.Args))
}
func (o *Other) Operands() []Value { return o.Args }

// IsTerminator returns true if instr ends a block.
func IsTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *If, *Jump, *Return:
		return true
	}
	return false
}

// Const is a constant operand.
type Const struct {
	Value constant.Value
}

// NewConst returns a new constant operand for val.
func NewConst(val constant.Value) *Const { return &Const{Value: val} }

// Int returns a new integer constant operand.
func Int(i int64) *Const { return NewConst(constant.MakeInt64(i)) }

func (c *Const) Name() string   { return c.Value.ExactString() }
func (c *Const) String() string { return c.Value.ExactString() }

// Param is a value available on entry of a function, e.g. a parameter, a free
// variable or a package-level symbol.
type Param struct {
	name string
}

func (p *Param) Name() string   { return p.name }
func (p *Param) String() string { return "param " + p.name }

// Location is a memory location, for example a local variable whose value is
// kept in memory. Locations are owned by their Function and compared by
// identity.
type Location struct {
	name  string
	index int
}

func (l *Location) Name() string   { return l.name }
func (l *Location) String() string { return fmt.Sprintf("&%s", l.name) }

// Index returns the position of the location in its Function.
func (l *Location) Index() int { return l.index }

func joinNames(vals []Value) string {
	var buf bytes.Buffer
	for i, v := range vals {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(NameOf(v))
	}
	return buf.String()
}

// NameOf returns the operand name of v, or "<nil>" if v is nil.
func NameOf(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.Name()
}
