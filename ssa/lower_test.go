package ssa_test

import (
	"go/token"
	"strings"
	"testing"

	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/loop"
	"github.com/nickng/looprotate/rotate"
	"github.com/nickng/looprotate/ssa"
	"github.com/nickng/looprotate/ssa/build"
	"github.com/stretchr/testify/require"
	gossa "golang.org/x/tools/go/ssa"
)

const loopProg = `package main

var limit = 8

func sum(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

func while(n int) int {
	for n > 0 {
		n -= 2
	}
	return n
}

func global() int {
	c := 0
	for i := 0; i < limit; i++ {
		c++
	}
	return c
}

func call(xs []int) int {
	s := 0
	for i := 0; i < len(xs); i++ {
		s += xs[i]
	}
	return s
}

func nested(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			c++
		}
	}
	return c
}

func shadow(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		c++
	}
	for i := 0; i < n; i++ {
		c--
	}
	return c
}

func external() int

func main() {
	sum(10)
	while(5)
	global()
	call(nil)
	nested(3)
	shadow(2)
}
`

func lowerFunc(t *testing.T, name string) *cfg.Function {
	t.Helper()
	info, err := build.FromReader(strings.NewReader(loopProg)).Build()
	require.NoError(t, err)
	f, err := info.FindFunc(name)
	require.NoError(t, err)
	fn, err := ssa.Lower(f)
	require.NoError(t, err)
	require.NoError(t, fn.Validate())
	return fn
}

func TestLowerForLoop(t *testing.T) {
	fn := lowerFunc(t, "main.sum")
	require.Equal(t, "main.sum", fn.Name)

	var locs []string
	for _, loc := range fn.Locations {
		locs = append(locs, loc.Name())
	}
	require.ElementsMatch(t, []string{"n", "s", "i"}, locs)

	header := fn.Lookup("for.loop")
	require.NotNil(t, header)
	instrs := header.Instrs()
	require.Len(t, instrs, 4)
	x, ok := instrs[0].(*cfg.Load)
	require.True(t, ok, "%q is not a load", instrs[0])
	require.Equal(t, "i", x.Loc.Name())
	y, ok := instrs[1].(*cfg.Load)
	require.True(t, ok, "%q is not a load", instrs[1])
	require.Equal(t, "n", y.Loc.Name())
	cmp, ok := instrs[2].(*cfg.Compare)
	require.True(t, ok, "%q is not a comparison", instrs[2])
	require.Equal(t, token.LSS, cmp.Op)
	require.Same(t, x, cmp.X)
	require.Same(t, y, cmp.Y)
	br, ok := instrs[3].(*cfg.If)
	require.True(t, ok, "%q is not a branch", instrs[3])
	require.Equal(t, "for.body", br.Then.Comment)
	require.Equal(t, "for.done", br.Else.Comment)
}

func TestLowerKeepsEdges(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(loopProg)).Build()
	require.NoError(t, err)
	for _, f := range info.SrcFunctions() {
		fn, err := ssa.Lower(f)
		require.NoError(t, err, f.String())
		require.Len(t, fn.Blocks, len(f.Blocks), f.String())
		for i, b := range f.Blocks {
			var succs, preds []int
			for _, s := range b.Succs {
				succs = append(succs, s.Index)
			}
			for _, p := range b.Preds {
				preds = append(preds, p.Index)
			}
			var gotSuccs, gotPreds []int
			for _, s := range fn.Blocks[i].Succs() {
				gotSuccs = append(gotSuccs, s.Index)
			}
			for _, p := range fn.Blocks[i].Preds() {
				gotPreds = append(gotPreds, p.Index)
			}
			require.Equal(t, succs, gotSuccs, "%s block %d", f, i)
			require.ElementsMatch(t, preds, gotPreds, "%s block %d", f, i)
			require.Equal(t, b.Comment, fn.Blocks[i].Comment)
		}
	}
}

func TestLowerUniqueLocations(t *testing.T) {
	fn := lowerFunc(t, "main.shadow")
	var locs []string
	for _, loc := range fn.Locations {
		locs = append(locs, loc.Name())
	}
	require.ElementsMatch(t, []string{"n", "c", "i", "i.1"}, locs)
}

func TestLowerGlobal(t *testing.T) {
	fn := lowerFunc(t, "main.global")
	header := fn.Lookup("for.loop")
	require.NotNil(t, header)
	y, ok := header.Instrs()[1].(*cfg.Load)
	require.True(t, ok, "%q is not a load", header.Instrs()[1])
	require.Equal(t, "main.limit", y.Loc.Name())
}

func TestLowerNoBody(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(loopProg)).Build()
	require.NoError(t, err)
	external := info.Pkgs[0].Func("external")
	require.NotNil(t, external)
	_, err = ssa.Lower(external)
	require.ErrorIs(t, err, ssa.ErrNoBody)

	init := info.Pkgs[0].Func("init")
	require.NotNil(t, init)
	fns, err := ssa.LowerAll([]*gossa.Function{init, external})
	require.NoError(t, err)
	require.Len(t, fns, 1)
	require.NoError(t, fns[0].Validate())

	fns, err = ssa.LowerAll(info.SrcFunctions())
	require.NoError(t, err)
	require.Len(t, fns, 7)
}

func TestRotateLowered(t *testing.T) {
	tests := []struct {
		name    string
		loops   int
		rotated int
	}{
		{"main.sum", 1, 1},
		{"main.while", 1, 1},
		{"main.global", 1, 1},
		{"main.call", 1, 0},
		{"main.nested", 2, 2},
		{"main.shadow", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := lowerFunc(t, tt.name)
			nblocks := len(fn.Blocks)
			report := rotate.New(rotate.WithValidation()).RotateFunction(fn)
			require.Len(t, report.Loops, tt.loops)
			require.Equal(t, tt.rotated, report.Rotated(), "%v", report.Err())
			require.Equal(t, nblocks-tt.rotated, len(fn.Blocks))
			require.NoError(t, fn.Validate())
			if tt.rotated == tt.loops {
				require.NoError(t, report.Err())
				require.Nil(t, fn.Lookup("for.loop"))
			}

			// Rotated loops are now their own bodies.
			forest := loop.NewDetector().Detect(fn, cfg.Dominators(fn))
			require.Equal(t, tt.loops, forest.Len())
		})
	}
}

func TestRotateLoweredCall(t *testing.T) {
	fn := lowerFunc(t, "main.call")
	report := rotate.New().RotateFunction(fn)
	require.Len(t, report.Loops, 1)
	require.ErrorIs(t, report.Loops[0].Err, rotate.ErrUnsupportedShape)
	require.NotNil(t, fn.Lookup("for.loop"))
}
