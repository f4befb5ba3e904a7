package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nickng/looprotate/ssa"
	"github.com/nickng/looprotate/ssa/build"
	"github.com/stretchr/testify/require"
)

const prog = `package main

func count(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		c++
	}
	return c
}

func main() {
	count(3)
}
`

func TestCallgraphFuncs(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(prog)).Default().Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	fns, err := callgraphFuncs(info, "static", &buf, false)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "digraph callgraph {")
	require.Contains(t, buf.String(), `"main.main" -> "main.count"`)

	var names []string
	for _, fn := range fns {
		names = append(names, fn.String())
	}
	require.Contains(t, names, "main.count")

	// Lowering the callgraph functions writes nothing and finds the loop.
	buf.Reset()
	fns, err = callgraphFuncs(info, "static", &buf, true)
	require.NoError(t, err)
	require.Zero(t, buf.Len())
	lowered, err := ssa.LowerAll(fns)
	require.NoError(t, err)
	var found bool
	for _, fn := range lowered {
		if fn.Name == "main.count" {
			found = true
		}
	}
	require.True(t, found)

	_, err = callgraphFuncs(info, "pointer", &buf, false)
	require.ErrorIs(t, err, ssa.ErrUnknownAlgo)
}
