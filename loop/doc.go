// Package loop provides utilities for loop representation and detection.
//
// Loops are natural loops found from the back edges of a cfg.Function: an
// edge n → h is a back edge if h dominates n. All back edges to the same
// header form one loop, and the blocks of the loop are the header plus every
// block which reaches a latch without going through the header.
//
// Loops of a function are arranged in a Forest by nesting, and the Forest is
// iterated in preorder, outer loops before the loops they contain.
//
// Detection works on a snapshot of the graph. Any transformation which
// changes the graph makes both the Forest and the cfg.DomTree stale.
package loop
