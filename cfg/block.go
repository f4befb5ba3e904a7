package cfg

import (
	"go/token"
	"strconv"

	"github.com/pkg/errors"
)

// Block is a basic block: a straight-line sequence of instructions ending in a
// single terminator.
type Block struct {
	Index   int    // Stable index in the parent Function, never reused.
	Comment string // Name of the block, e.g. "for.loop".

	instrs []Instruction
	preds  []*Block
	parent *Function
}

// String returns the index of the block, which is how branch targets print.
func (b *Block) String() string {
	if b == nil {
		return "<nil>"
	}
	return strconv.Itoa(b.Index)
}

// Parent returns the Function containing b, nil if b has been removed.
func (b *Block) Parent() *Function { return b.parent }

// Instrs returns the instructions of b. The slice must not be modified.
func (b *Block) Instrs() []Instruction { return b.instrs }

// Preds returns the predecessors of b. A block appears once per edge.
func (b *Block) Preds() []*Block { return b.preds }

// Succs returns the successors of b as defined by its terminator.
func (b *Block) Succs() []*Block {
	switch term := b.Terminator().(type) {
	case *If:
		return []*Block{term.Then, term.Else}
	case *Jump:
		return []*Block{term.Target}
	}
	return nil
}

// Terminator returns the last instruction of b if it is a terminator.
func (b *Block) Terminator() Instruction {
	if len(b.instrs) == 0 {
		return nil
	}
	if last := b.instrs[len(b.instrs)-1]; IsTerminator(last) {
		return last
	}
	return nil
}

// Load appends a load of loc to b.
func (b *Block) Load(loc *Location) *Load {
	l := &Load{Loc: loc}
	b.emit(l)
	return l
}

// Store appends a store of v to loc.
func (b *Block) Store(loc *Location, v Value) *Store {
	s := &Store{Loc: loc, Val: v}
	b.emit(s)
	return s
}

// Compare appends a comparison x op y to b.
func (b *Block) Compare(op token.Token, x, y Value) *Compare {
	c := &Compare{Op: op, X: x, Y: y}
	b.emit(c)
	return c
}

// Other appends an opaque instruction to b.
func (b *Block) Other(op string, hasValue bool, args ...Value) *Other {
	o := &Other{Op: op, Args: args, HasValue: hasValue}
	b.emit(o)
	return o
}

// If terminates b with a conditional branch.
func (b *Block) If(cond Value, then, els *Block) *If {
	i := &If{Cond: cond, Then: then, Else: els}
	b.emit(i)
	return i
}

// Jump terminates b with an unconditional branch.
func (b *Block) Jump(target *Block) *Jump {
	j := &Jump{Target: target}
	b.emit(j)
	return j
}

// Return terminates b with a return.
func (b *Block) Return(results ...Value) *Return {
	r := &Return{Results: results}
	b.emit(r)
	return r
}

// emit appends instr to the end of b.
// Appending after a terminator makes b ill-formed, see Function.Validate.
func (b *Block) emit(instr Instruction) {
	b.parent.attach(b, instr)
	b.instrs = append(b.instrs, instr)
	if IsTerminator(instr) {
		b.link(instr)
	}
}

// InsertBefore inserts instrs immediately before at, which must be in b.
// Terminators cannot be inserted this way, see ReplaceTerminator.
func (b *Block) InsertBefore(at Instruction, instrs ...Instruction) error {
	pos := b.indexOf(at)
	if pos < 0 {
		return errors.Wrapf(ErrNotInBlock, "insert before %q in block %s", at, b)
	}
	for _, instr := range instrs {
		if IsTerminator(instr) {
			return errors.Wrapf(ErrIsTerminator, "insert %q in block %s", instr, b)
		}
		if instr.Block() != nil {
			return errors.Wrapf(ErrAttached, "insert %q in block %s", instr, b)
		}
	}
	for _, instr := range instrs {
		b.parent.attach(b, instr)
	}
	tail := append([]Instruction{}, b.instrs[pos:]...)
	b.instrs = append(append(b.instrs[:pos], instrs...), tail...)
	return nil
}

// ReplaceTerminator swaps the terminator of b for term and updates the edges.
// The old terminator is detached.
func (b *Block) ReplaceTerminator(term Instruction) error {
	old := b.Terminator()
	if old == nil {
		return errors.Wrapf(ErrNoTerminator, "replace terminator of block %s", b)
	}
	if !IsTerminator(term) {
		return errors.Wrapf(ErrNotTerminator, "replace terminator of block %s with %q", b, term)
	}
	if term.Block() != nil {
		return errors.Wrapf(ErrAttached, "replace terminator of block %s with %q", b, term)
	}
	for _, succ := range targets(term) {
		if succ == nil || succ.parent != b.parent {
			return errors.Wrapf(ErrDetached, "branch from block %s to %s", b, succ)
		}
	}
	b.unlink(old)
	old.setBlock(nil)
	b.parent.attach(b, term)
	b.instrs[len(b.instrs)-1] = term
	b.link(term)
	return nil
}

// link adds b to the predecessors of the targets of term.
func (b *Block) link(term Instruction) {
	for _, succ := range targets(term) {
		if succ != nil {
			succ.preds = append(succ.preds, b)
		}
	}
}

// unlink removes one occurrence of b from the predecessors of each target of
// term.
func (b *Block) unlink(term Instruction) {
	for _, succ := range targets(term) {
		if succ != nil {
			succ.removePred(b)
		}
	}
}

func (b *Block) removePred(pred *Block) {
	for i, p := range b.preds {
		if p == pred {
			b.preds = append(b.preds[:i], b.preds[i+1:]...)
			return
		}
	}
}

func (b *Block) indexOf(instr Instruction) int {
	for i, in := range b.instrs {
		if in == instr {
			return i
		}
	}
	return -1
}

// targets returns the branch targets of term, one per edge.
func targets(term Instruction) []*Block {
	switch term := term.(type) {
	case *If:
		return []*Block{term.Then, term.Else}
	case *Jump:
		return []*Block{term.Target}
	}
	return nil
}
