package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nickng/looprotate/internal/logging"
	"github.com/nickng/looprotate/rotate"
	"github.com/nickng/looprotate/ssa/build"
	"github.com/stretchr/testify/require"
	gossa "golang.org/x/tools/go/ssa"
)

const prog = `package main

func up(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		c++
	}
	return c
}

func down(n int) int {
	for n > 0 {
		n--
	}
	return n
}

func none() int {
	return 1
}

func main() {
	up(3)
	down(3)
}
`

func TestParsePasses(t *testing.T) {
	passes, err := parsePasses(rotate.PassName)
	require.NoError(t, err)
	require.Equal(t, []string{rotate.PassName}, passes)

	passes, err = parsePasses(" simple-loop-rotate, simple-loop-rotate ,")
	require.NoError(t, err)
	require.Len(t, passes, 2)

	_, err = parsePasses("simple-loop-rotate,licm")
	require.ErrorIs(t, err, ErrUnknownPass)
	require.Contains(t, err.Error(), "licm")

	passes, err = parsePasses("")
	require.NoError(t, err)
	require.Empty(t, passes)
}

func TestPipeline(t *testing.T) {
	logging.DisableColour()
	info, err := build.FromReader(strings.NewReader(prog)).Build()
	require.NoError(t, err)
	fns, err := info.Functions("")
	require.NoError(t, err)
	require.Len(t, fns, 4)

	p := newPipeline([]string{rotate.PassName, rotate.PassName}, 3, logging.Nop())
	p.validate = true
	p.printAfter = true
	results := p.run(fns)
	require.Len(t, results, 4)
	require.EqualValues(t, 4, p.funcs.Load())
	require.EqualValues(t, 2, p.loops.Load())
	require.EqualValues(t, 2, p.rotated.Load())
	require.EqualValues(t, 0, p.failed.Load())

	for _, res := range results {
		require.NoError(t, res.err)
		require.Len(t, res.reports, 2)
		require.False(t, res.reports[1].Changed, "second pass over %s", res.fn.Name)
		require.Empty(t, res.before)
		require.NotEmpty(t, res.after)
	}

	var buf bytes.Buffer
	require.NoError(t, p.write(&buf, results))
	out := buf.String()
	require.Contains(t, out, "simple-loop-rotate main.up: 1 loops, 1 rotated, changed")
	require.Contains(t, out, "simple-loop-rotate main.up: 1 loops, 0 rotated, unchanged")
	require.Contains(t, out, "already rotated")
	require.Contains(t, out, "simple-loop-rotate main.none: 0 loops, 0 rotated, unchanged")
	require.Less(t, strings.Index(out, "main.up"), strings.Index(out, "main.down"))
	require.Contains(t, out, "# Name: main.down")

	buf.Reset()
	require.NoError(t, writeGraphviz(&buf, results))
	require.Equal(t, 4, strings.Count(buf.String(), "digraph"))
}

func TestPipelineSingleWorker(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(prog)).Build()
	require.NoError(t, err)
	f, err := info.FindFunc("main.up")
	require.NoError(t, err)

	p := newPipeline([]string{rotate.PassName}, 0, nil)
	p.printBefore = true
	results := p.run([]*gossa.Function{f})
	require.Len(t, results, 1)
	require.Contains(t, results[0].before, "for.loop")
	require.Nil(t, results[0].fn.Lookup("for.loop"))
	require.Equal(t, 1, results[0].reports[0].Rotated())
}
