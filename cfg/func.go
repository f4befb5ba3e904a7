package cfg

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	ErrNotInBlock    = errors.New("instruction is not in block")
	ErrIsTerminator  = errors.New("instruction is a terminator")
	ErrNotTerminator = errors.New("instruction is not a terminator")
	ErrNoTerminator  = errors.New("block has no terminator")
	ErrAttached      = errors.New("instruction already belongs to a block")
	ErrDetached      = errors.New("block does not belong to the function")
	ErrHasPreds      = errors.New("block still has predecessors")
	ErrEntryBlock    = errors.New("entry block cannot be removed")
	ErrNilOperand    = errors.New("instruction has a nil operand")
)

// Function is a control-flow graph. Blocks[0] is the entry block.
type Function struct {
	Name      string
	Blocks    []*Block
	Params    []*Param
	Locations []*Location

	nextBlock int // Index of the next new block.
	nextValue int // Number of the next new value.
}

// NewFunction returns an empty Function.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// NewBlock appends a new empty block to f.
func (f *Function) NewBlock(comment string) *Block {
	b := &Block{Index: f.nextBlock, Comment: comment, parent: f}
	f.nextBlock++
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewLocation declares a new memory location in f.
func (f *Function) NewLocation(name string) *Location {
	loc := &Location{name: name, index: len(f.Locations)}
	f.Locations = append(f.Locations, loc)
	return loc
}

// NewParam declares a new entry value of f.
func (f *Function) NewParam(name string) *Param {
	p := &Param{name: name}
	f.Params = append(f.Params, p)
	return p
}

// Entry returns the entry block of f, nil if f has no blocks.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NumBlocks returns an upper bound of the block indices of f, suitable for
// sizing slices indexed by Block.Index.
func (f *Function) NumBlocks() int { return f.nextBlock }

// Lookup returns the first block of f with the given comment.
func (f *Function) Lookup(comment string) *Block {
	for _, b := range f.Blocks {
		if b.Comment == comment {
			return b
		}
	}
	return nil
}

// attach sets the parent block of instr and numbers new values.
func (f *Function) attach(b *Block, instr Instruction) {
	if f != nil && instr.Block() == nil {
		if v, ok := instr.(numbered); ok && definesValue(instr) {
			v.setNum(f.nextValue)
			f.nextValue++
		}
	}
	instr.setBlock(b)
}

func definesValue(instr Instruction) bool {
	switch instr := instr.(type) {
	case *Load, *Compare:
		return true
	case *Other:
		return instr.HasValue
	}
	return false
}

// RemoveBlock deletes b from f. The block must not have predecessors; its
// outgoing edges are removed from the predecessor lists of its successors.
func (f *Function) RemoveBlock(b *Block) error {
	if b.parent != f {
		return errors.Wrapf(ErrDetached, "remove block %s", b)
	}
	if f.Entry() == b {
		return errors.Wrapf(ErrEntryBlock, "remove block %s", b)
	}
	if len(b.preds) > 0 {
		return errors.Wrapf(ErrHasPreds, "remove block %s (%d predecessors)", b, len(b.preds))
	}
	if term := b.Terminator(); term != nil {
		b.unlink(term)
	}
	for i, blk := range f.Blocks {
		if blk == b {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			break
		}
	}
	b.parent = nil
	return nil
}

// Uses returns the instructions of f that use v as an operand.
func (f *Function) Uses(v Value) []Instruction {
	var uses []Instruction
	for _, b := range f.Blocks {
		for _, instr := range b.instrs {
			for _, op := range instr.Operands() {
				if op == v {
					uses = append(uses, instr)
					break
				}
			}
		}
	}
	return uses
}

// Validate checks that f is well-formed:
//   - every block ends in exactly one terminator,
//   - every branch target belongs to f,
//   - predecessor lists match the branch edges,
//   - every instruction operand is non-nil and defined in a block of f.
//
// All problems found are returned together.
func (f *Function) Validate() error {
	var err error
	if len(f.Blocks) == 0 {
		return errors.Errorf("%s: function has no blocks", f.Name)
	}
	preds := make(map[*Block]map[*Block]int)
	for _, b := range f.Blocks {
		if b.parent != f {
			err = multierr.Append(err, errors.Errorf("%s: block %s has wrong parent", f.Name, b))
		}
		if b.Terminator() == nil {
			err = multierr.Append(err, errors.Wrapf(ErrNoTerminator, "%s: block %s", f.Name, b))
		}
		for i, instr := range b.instrs {
			if instr.Block() != b {
				err = multierr.Append(err, errors.Errorf("%s: %q in block %s has wrong parent block", f.Name, instr, b))
			}
			if IsTerminator(instr) && i != len(b.instrs)-1 {
				err = multierr.Append(err, errors.Errorf("%s: terminator %q in the middle of block %s", f.Name, instr, b))
			}
			for _, op := range instr.Operands() {
				if op == nil {
					err = multierr.Append(err, errors.Wrapf(ErrNilOperand, "%s: %q in block %s", f.Name, instr, b))
					continue
				}
				if def, ok := op.(Instruction); ok {
					if def.Block() == nil || def.Block().parent != f {
						err = multierr.Append(err, errors.Errorf("%s: %q in block %s uses undefined value %s", f.Name, instr, b, op.Name()))
					}
				}
			}
		}
		for _, succ := range b.Succs() {
			if succ == nil || succ.parent != f {
				err = multierr.Append(err, errors.Wrapf(ErrDetached, "%s: branch from block %s to %s", f.Name, b, succ))
				continue
			}
			if preds[succ] == nil {
				preds[succ] = make(map[*Block]int)
			}
			preds[succ][b]++
		}
	}
	for _, b := range f.Blocks {
		got := make(map[*Block]int)
		for _, p := range b.preds {
			got[p]++
		}
		if !sameEdges(got, preds[b]) {
			err = multierr.Append(err, errors.Errorf("%s: block %s predecessors %v do not match edges", f.Name, b, b.preds))
		}
	}
	return err
}

func sameEdges(a, b map[*Block]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, n := range a {
		if b[k] != n {
			return false
		}
	}
	return true
}

func (f *Function) String() string {
	return fmt.Sprintf("func %s", f.Name)
}
