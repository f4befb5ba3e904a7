package ssa

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

var (
	parenFuncPath = regexp.MustCompile(`\((?P<pkg>[^)]+)\)\.(?P<fn>.+)`)
	quoteFuncPath = regexp.MustCompile(`"(?P<pkg>[^"]+)"\.(?P<fn>.+)`)
)

// FindFunc parses path (e.g. "github.com/nickng/looprotate/ssa".MainPkgs or
// main.loop) and returns the Function body in SSA IR. Only functions of the
// given source are searched. A path without package matches the function
// name in any package.
func (info *Info) FindFunc(path string) (*ssa.Function, error) {
	pkgPath, fnName := parseFuncPath(path)
	for _, f := range info.SrcFunctions() {
		if f.Name() != fnName {
			continue
		}
		if pkgPath == "" || f.Pkg.Pkg.Path() == pkgPath || f.Pkg.Pkg.Name() == pkgPath {
			return f, nil
		}
	}
	return nil, errors.Wrap(ErrFuncNotFound, path)
}

// parseFuncPath splits path to package and function segments.
// Does not handle complex functions with receivers.
func parseFuncPath(path string) (pkgPath, fnName string) {
	if len(path) < 1 {
		return "", ""
	}
	switch path[0] {
	case '(':
		if submatches := parenFuncPath.FindStringSubmatch(path); len(submatches) >= 3 {
			return submatches[1], submatches[2]
		}
	case '"':
		if submatches := quoteFuncPath.FindStringSubmatch(path); len(submatches) >= 3 {
			return submatches[1], submatches[2]
		}
	default:
		if i := strings.LastIndex(path, "."); i > 0 {
			return path[:i], path[i+1:]
		}
	}
	return "", path
}
