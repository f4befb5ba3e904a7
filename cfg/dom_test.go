package cfg

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDominatorsDiamond(t *testing.T) {
	f := NewFunction("diamond")
	x := f.NewParam("x")
	entry := f.NewBlock("entry")
	then := f.NewBlock("if.then")
	els := f.NewBlock("if.else")
	done := f.NewBlock("if.done")
	dead := f.NewBlock("dead")

	entry.If(entry.Compare(token.EQL, x, Int(0)), then, els)
	then.Jump(done)
	els.Jump(done)
	done.Return()
	dead.Jump(done)

	dom := Dominators(f)
	require.Nil(t, dom.Idom(entry))
	require.Equal(t, entry, dom.Idom(then))
	require.Equal(t, entry, dom.Idom(els))
	require.Equal(t, entry, dom.Idom(done))
	require.Nil(t, dom.Idom(dead))

	require.True(t, dom.Dominates(entry, done))
	require.True(t, dom.Dominates(done, done))
	require.False(t, dom.Dominates(then, done))
	require.False(t, dom.Reachable(dead))
	require.False(t, dom.Dominates(dead, done))
	require.Len(t, dom.ReversePostorder(), 4)
	require.Equal(t, entry, dom.ReversePostorder()[0])
}

func TestDominatorsLoop(t *testing.T) {
	f, entry, loop, body, done := whileLoop()
	dom := Dominators(f)
	require.Equal(t, entry, dom.Idom(loop))
	require.Equal(t, loop, dom.Idom(body))
	require.Equal(t, loop, dom.Idom(done))
	require.True(t, dom.Dominates(loop, body))
	require.False(t, dom.Dominates(body, loop))

	po := Postorder(f)
	require.Len(t, po, 4)
	require.Equal(t, entry, po[len(po)-1])
}

func TestDominatorsEmpty(t *testing.T) {
	dom := Dominators(NewFunction("empty"))
	require.Empty(t, dom.ReversePostorder())
}
