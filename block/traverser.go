// Package block provides traversal and graphviz output for the blocks of a
// cfg.Function.
package block

import (
	"github.com/nickng/looprotate/cfg"
)

// TraverseEdges takes a Function and apply visit to each edge reachable from
// the entry block, in breadth-first order. The entry block is visited first,
// with a nil from.
func TraverseEdges(fn *cfg.Function, visit func(from, to *cfg.Block)) {
	visited := NewVisitGraph()
	if len(fn.Blocks) == 0 {
		return
	}
	type Edge struct {
		From, To *cfg.Block
	}
	queue := []Edge{{To: fn.Entry()}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e.From != nil && visited.EdgeVisited(NewVisitNode(e.From), NewVisitNode(e.To)) {
			continue
		}
		if !visited.NodeVisited(NewVisitNode(e.To)) {
			if e.From == nil {
				visited.Visit(NewVisitNode(e.To))
			} else {
				visited.VisitFrom(NewVisitNode(e.From), NewVisitNode(e.To))
			}
			visit(e.From, e.To)
			for _, succ := range e.To.Succs() {
				queue = append(queue, Edge{From: e.To, To: succ})
			}
		}
	}
}
