// Package cfg is a small control-flow graph representation for loop
// transformations.
//
// A Function is a list of Blocks. Each Block holds an ordered list of
// Instructions and ends in exactly one terminator (*If, *Jump or *Return);
// the terminator defines the successor edges of the block and the predecessor
// lists are kept in sync with them by the mutating methods of Block and
// Function.
//
// There are no φ-nodes. Variables live in memory Locations and are only ever
// accessed through *Load and *Store, so an induction variable is identified
// by the Location it is loaded from. Instructions the transformations do not
// care about are represented as *Other, which still records its operands so
// that uses of values can be tracked.
//
// Instructions form a closed set of concrete types. Code dispatching on them
// should use a type switch with a default arm that reports the unhandled
// instruction, e.g.
//
//	switch instr := instr.(type) {
//	case *cfg.If:
//		...
//	default:
//		return fmt.Errorf("unexpected %T", instr)
//	}
//
// The package also computes dominators (see Dominators), which the loop
// package builds on.
package cfg
