package ssa

import (
	"io"

	"golang.org/x/tools/go/ssa"
)

// WriteTo writes the functions of the given source to w in human readable
// SSA IR instruction format.
func (info *Info) WriteTo(w io.Writer) (int64, error) {
	return writeFuncs(w, info.SrcFunctions())
}

// WriteUsed writes Functions used by the Program to w in human readable SSA
// IR instruction format.
func (info *Info) WriteUsed(w io.Writer, algo string) (int64, error) {
	funcs, err := info.Functions(algo)
	if err != nil {
		return 0, err
	}
	return writeFuncs(w, funcs)
}

// WriteFunc writes the function at path (see FindFunc) to w in human
// readable SSA IR instruction format.
func (info *Info) WriteFunc(w io.Writer, path string) (int64, error) {
	f, err := info.FindFunc(path)
	if err != nil {
		return 0, err
	}
	return f.WriteTo(w)
}

func writeFuncs(w io.Writer, funcs []*ssa.Function) (int64, error) {
	var n int64
	for _, f := range funcs {
		written, err := f.WriteTo(w)
		n += written
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
