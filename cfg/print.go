package cfg

import (
	"bytes"
	"fmt"
	"io"
)

// WriteTo writes a human readable listing of f to w.
//
// The listing is deterministic, so two listings of the same function are
// byte-for-byte identical iff the functions are structurally identical.
func (f *Function) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("# Name: %s\n", f.Name))
	if len(f.Params) > 0 {
		buf.WriteString("# Params:")
		for _, p := range f.Params {
			buf.WriteString(" " + p.Name())
		}
		buf.WriteString("\n")
	}
	if len(f.Locations) > 0 {
		buf.WriteString("# Locals:")
		for _, l := range f.Locations {
			buf.WriteString(" " + l.Name())
		}
		buf.WriteString("\n")
	}
	buf.WriteString(fmt.Sprintf("func %s:\n", f.Name))
	for _, b := range f.Blocks {
		writeBlock(&buf, b)
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func writeBlock(buf *bytes.Buffer, b *Block) {
	buf.WriteString(fmt.Sprintf("%-4s%-40s P:%d S:%d\n", b.String()+":", b.Comment, len(b.preds), len(b.Succs())))
	for _, instr := range b.instrs {
		buf.WriteString("\t" + Format(instr) + "\n")
	}
}

// Format returns the text of instr, with the name of the value it defines.
func Format(instr Instruction) string {
	if definesValue(instr) {
		return instr.(Value).Name() + " = " + instr.String()
	}
	return instr.String()
}

// Listing returns the WriteTo output of f as a string.
func (f *Function) Listing() string {
	var buf bytes.Buffer
	f.WriteTo(&buf)
	return buf.String()
}
