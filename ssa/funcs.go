package ssa

import (
	"sort"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// SrcFunctions returns the functions with a body declared in the packages of
// the given source, including methods and anonymous functions, in source
// order.
func (info *Info) SrcFunctions() []*ssa.Function {
	pkgs := make(map[*ssa.Package]bool)
	for _, pkg := range info.Pkgs {
		pkgs[pkg] = true
	}
	var funcs []*ssa.Function
	for f := range ssautil.AllFunctions(info.Prog) {
		if f.Blocks == nil || f.Synthetic != "" || f.Pkg == nil || !pkgs[f.Pkg] {
			continue
		}
		funcs = append(funcs, f)
	}
	sortFuncs(funcs)
	return funcs
}

// Functions returns the functions of the given source to work with. If algo
// is not empty, only functions reachable from main in the callgraph built
// with algo are returned.
func (info *Info) Functions(algo string) ([]*ssa.Function, error) {
	funcs := info.SrcFunctions()
	if algo == "" {
		return funcs, nil
	}
	graph, err := info.BuildCallGraph(algo)
	if err != nil {
		return nil, err
	}
	used, err := graph.UsedFunctions()
	if err != nil {
		return nil, err
	}
	reachable := make(map[*ssa.Function]bool)
	for _, f := range used {
		reachable[f] = true
	}
	var selected []*ssa.Function
	for _, f := range funcs {
		if reachable[f] {
			selected = append(selected, f)
		}
	}
	return selected, nil
}

// sortFuncs sorts functions by position, then by name.
func sortFuncs(funcs []*ssa.Function) {
	sort.SliceStable(funcs, func(i, j int) bool {
		if funcs[i].Pos() != funcs[j].Pos() {
			return funcs[i].Pos() < funcs[j].Pos()
		}
		return funcs[i].String() < funcs[j].String()
	})
}
