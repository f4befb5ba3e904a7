package ssa

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/ssa"
)

// CallGraph is a representation of CallGraph, wrapped with metadata.
type CallGraph struct {
	cg      *callgraph.Graph // Internal cached copy of the callgraph.
	prog    *ssa.Program     // SSA Program for which the callgraph is built from.
	usedFns []*ssa.Function  // Functions actually used by current Program.
	allFns  []*ssa.Function  // Functions in the current Program (including unused).
}

// AllFunctions return all ssa.Functions in the callgraph.
func (g *CallGraph) AllFunctions() ([]*ssa.Function, error) {
	// If cached.
	if g.allFns != nil {
		return g.allFns, nil
	}

	visited := make(map[*ssa.Function]bool)
	if err := callgraph.GraphVisitEdges(g.cg, func(edge *callgraph.Edge) error {
		visited[edge.Caller.Func] = true
		visited[edge.Callee.Func] = true
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "callgraph: failed to visit edges")
	}

	for fn := range visited {
		g.allFns = append(g.allFns, fn)
	}
	sortFuncs(g.allFns)
	return g.allFns, nil
}

// UsedFunctions return a slice of ssa.Function actually used by the current
// Program, rooted at main.init() and main.main().
func (g *CallGraph) UsedFunctions() ([]*ssa.Function, error) {
	// Cached.
	if g.usedFns != nil {
		return g.usedFns, nil
	}

	callTree := make(map[*ssa.Function][]*ssa.Function)
	if err := callgraph.GraphVisitEdges(g.cg, func(edge *callgraph.Edge) error {
		callTree[edge.Caller.Func] = append(callTree[edge.Caller.Func], edge.Callee.Func)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "callgraph: failed to visit edges")
	}

	mains, err := MainPkgs(g.prog)
	if err != nil {
		return nil, errors.Wrap(err, "callgraph: failed to find main packages (Check if this this a command?)")
	}

	var fnQueue []*ssa.Function
	for _, main := range mains {
		if main.Func("main") != nil {
			fnQueue = append(fnQueue, main.Func("init"), main.Func("main"))
		}
	}

	visited := make(map[*ssa.Function]bool)
	for len(fnQueue) > 0 {
		headFn := fnQueue[0]
		fnQueue = fnQueue[1:]
		visited[headFn] = true
		for _, fn := range callTree[headFn] {
			if !visited[fn] {
				fnQueue = append(fnQueue, fn)
			}
			visited[fn] = true
		}
	}

	for fn := range visited {
		g.usedFns = append(g.usedFns, fn)
	}
	sortFuncs(g.usedFns)
	return g.usedFns, nil
}

// WriteGraphviz writes callgraph to w in graphviz dot format.
func (g *CallGraph) WriteGraphviz(w io.Writer) error {
	var edges []string
	if err := callgraph.GraphVisitEdges(g.cg, func(edge *callgraph.Edge) error {
		edges = append(edges, fmt.Sprintf("  %q -> %q\n", edge.Caller.Func, edge.Callee.Func))
		return nil
	}); err != nil {
		return err
	}
	sort.Strings(edges)

	bufw := bufio.NewWriter(w)
	bufw.WriteString("digraph callgraph {\n")
	for _, edge := range edges {
		bufw.WriteString(edge)
	}
	bufw.WriteString("}\n")
	return bufw.Flush()
}

// BuildCallGraph constructs a callgraph from ssa.Info.
// algo is algorithm available in golang.org/x/tools/go/callgraph, which
// includes:
//   - static  static calls only (unsound)
//   - cha     Class Hierarchy Analysis
//   - rta     Rapid Type Analysis
func (info *Info) BuildCallGraph(algo string) (*CallGraph, error) {
	var cg *callgraph.Graph
	switch algo {
	case "static":
		cg = static.CallGraph(info.Prog)

	case "cha":
		cg = cha.CallGraph(info.Prog)

	case "rta":
		mains, err := MainPkgs(info.Prog)
		if err != nil {
			return nil, err
		}
		var roots []*ssa.Function
		for _, main := range mains {
			roots = append(roots, main.Func("init"), main.Func("main"))
		}
		cg = rta.Analyze(roots, true).CallGraph

	default:
		return nil, errors.Wrap(ErrUnknownAlgo, algo)
	}

	cg.DeleteSyntheticNodes()

	return &CallGraph{cg: cg, prog: info.Prog}, nil
}
