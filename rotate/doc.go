// Package rotate implements simple loop rotation.
//
// A loop tested at the top
//
//	preheader: ...; jump header
//	header:    t0 = *i; t1 = t0 < n; if t1 goto body else exit
//	latch:     ...; jump header
//
// is rewritten into a loop tested at the bottom, with a copy of the guard
// entering the loop and another one closing it:
//
//	preheader: ...; t2 = *i; t3 = t2 < n; if t3 goto body else exit
//	latch:     ...; t4 = *i; t5 = t4 < n; if t5 goto body else exit
//
// after which the header is unreachable and removed.
//
// The induction variable must live in memory: the left operand of the
// comparison is a load, and both copies of the guard load it again. The
// right operand (the bound) is copied as is, or loaded again if it was
// loaded in the header.
//
// Every precondition is checked before the graph is changed, so a loop which
// cannot be rotated is left untouched. Rotation makes any dominator tree or
// loop forest of the function stale; Report.Changed tells when that happened.
package rotate
