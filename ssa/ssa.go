// Package ssa is a library to build and work with SSA, and to lower it into
// the control-flow graphs of package cfg.
// For most part the package contains helper or wrapper functions to use the
// packages in Go project's extra tools.
//
// In particular, the SSA IR is from golang.org/x/tools/go/ssa, and reuses many
// of the packages in the static analysis stack built on top of it.
//
// Programs should be built in ssa.NaiveForm (the default of the 'build'
// subpackage), so that local variables stay in memory and loops keep their
// induction variables behind loads and stores.
package ssa

import (
	"go/token"
	"io"

	"github.com/nickng/looprotate/internal/logging"
	"golang.org/x/tools/go/ssa"
)

// Info holds the results of a SSA build for analysis.
// To populate this structure, the 'build' subpackage should be used.
type Info struct {
	IgnoredPkgs []string // Record of ignored package during the build process.

	FSet *token.FileSet // FileSet for parsed source files.
	Prog *ssa.Program   // SSA IR for whole program.
	Pkgs []*ssa.Package // Packages of the given source.

	BldLog io.Writer       // Build log.
	Logger *logging.Logger // Build logger.
}
