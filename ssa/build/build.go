// Package build is a helper package for building SSA IR in the parent
// directory.
//
// # Usage
//
// There are three ways of building SSA IR from source code:
//
// # Build from a list of source files
//
// This is the normal usage, where a number of files are supplied (usually as
// command line arguments), and the builder tool considers all of the files part
// of the same package (i.e. in the same directory).
//
// # Build from a Reader
//
// This is mostly used for testing or demo, where the input source code is read
// from a given io.Reader and parsed as a single file package.
//
// # Build from package patterns
//
// Packages are loaded with golang.org/x/tools/go/packages (e.g. "./..."),
// together with their dependencies.
//
// By default functions are built in ssa.NaiveForm, so local variables are
// kept in memory (Alloc, load and store), which is what loop rotation
// expects. Files and readers are type checked with the go1.21 language
// version, i.e. with one variable per loop rather than one per iteration.
package build
