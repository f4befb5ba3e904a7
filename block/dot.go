package block

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/loop"
)

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// WriteGraphviz writes the blocks of fn to w in graphviz dot format. If
// forest is not nil, the blocks of each loop are drawn in a cluster, nested
// like the loops, and loop headers are drawn bold.
func WriteGraphviz(w io.Writer, fn *cfg.Function, forest *loop.Forest) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprintf(bufw, "digraph %q {\n", fn.Name)
	bufw.WriteString("  node [shape=box fontname=monospace];\n")

	drawn := make(map[*cfg.Block]bool)
	if forest != nil {
		for _, l := range forest.Top {
			writeCluster(bufw, l, forest, drawn, "  ")
		}
	}
	for _, b := range fn.Blocks {
		if !drawn[b] {
			writeNode(bufw, b, false, "  ")
		}
	}

	TraverseEdges(fn, func(from, to *cfg.Block) {
		if from == nil {
			return
		}
		fmt.Fprintf(bufw, "  b%d -> b%d%s;\n", from.Index, to.Index, edgeAttrs(from, to))
	})
	bufw.WriteString("}\n")
	return bufw.Flush()
}

func writeCluster(w *bufio.Writer, l *loop.Loop, forest *loop.Forest, drawn map[*cfg.Block]bool, indent string) {
	fmt.Fprintf(w, "%ssubgraph cluster_%d {\n", indent, l.Header.Index)
	fmt.Fprintf(w, "%s  label=\"loop %d depth %d\";\n", indent, l.Header.Index, l.Depth)
	for _, child := range l.Children {
		writeCluster(w, child, forest, drawn, indent+"  ")
	}
	for _, b := range l.BodyBlocks() {
		if forest.LoopFor(b) == l && !drawn[b] {
			writeNode(w, b, b == l.Header, indent+"  ")
			drawn[b] = true
		}
	}
	fmt.Fprintf(w, "%s}\n", indent)
}

func writeNode(w *bufio.Writer, b *cfg.Block, header bool, indent string) {
	var label strings.Builder
	label.WriteString(fmt.Sprintf("%d: %s\\l", b.Index, labelEscaper.Replace(b.Comment)))
	for _, instr := range b.Instrs() {
		label.WriteString(labelEscaper.Replace(cfg.Format(instr)) + "\\l")
	}
	style := ""
	if header {
		style = " style=bold"
	}
	fmt.Fprintf(w, "%sb%d [label=\"%s\"%s];\n", indent, b.Index, label.String(), style)
}

// edgeAttrs labels the branches of an If.
func edgeAttrs(from, to *cfg.Block) string {
	br, ok := from.Terminator().(*cfg.If)
	if !ok || br.Then == br.Else {
		return ""
	}
	if to == br.Then {
		return ` [label="T"]`
	}
	return ` [label="F"]`
}
