package build

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"

	"github.com/nickng/looprotate/ssa"
	"github.com/pkg/errors"
)

// Builder builds SSA IR and metainfo.
type Builder interface {
	Build() (*ssa.Info, error)
}

// FileSrc is a set of filenames.
type FileSrc struct {
	Files []string
}

// FromFiles returns a non-nil Builder from a slice of filenames.
func FromFiles(files []string) Configurer {
	return newConfig(&FileSrc{Files: files})
}

// Read returns the content of each file.
func (s *FileSrc) Read() ([]namedSrc, error) {
	var srcs []namedSrc
	for _, file := range s.Files {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read from file: %s", file)
		}
		srcs = append(srcs, namedSrc{name: file, content: b})
	}
	return srcs, nil
}

// CachedSrc is source file from a reader.
type CachedSrc struct {
	cached []byte
	err    error
}

// FromReader returns a non-nil Builder for a reader.
// This is typically used for testing or building a temporary file.
func FromReader(r io.Reader) Configurer {
	b, err := ioutil.ReadAll(r)
	return newConfig(&CachedSrc{cached: b, err: errors.Wrap(err, "failed to read from reader")})
}

// Read returns the content read from the reader, as file "tmp".
func (s *CachedSrc) Read() ([]namedSrc, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []namedSrc{{name: "tmp", content: bytes.Clone(s.cached)}}, nil
}

// PkgSrc is a set of package patterns, as understood by go list.
type PkgSrc struct {
	Dir      string // Directory to load the packages from, empty for current.
	Patterns []string
}

// FromPackages returns a non-nil Builder for the packages matching patterns
// in directory dir.
func FromPackages(dir string, patterns ...string) Configurer {
	return newConfig(&PkgSrc{Dir: dir, Patterns: patterns})
}

type namedSrc struct {
	name    string
	content []byte
}
