package build

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"io"

	"github.com/nickng/looprotate/internal/logging"
	"github.com/nickng/looprotate/ssa"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/tools/go/packages"
	gossa "golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// GoVersion is the language version files and readers are checked with.
const GoVersion = "go1.21"

var (
	ErrNoFiles      = errors.New("no source files")
	ErrMultiplePkgs = errors.New("source files belong to different packages")
	ErrLoadPkgs     = errors.New("failed to load packages")
)

// srcReader is a wrapper for source code which can be read in full.
type srcReader interface {
	Read() ([]namedSrc, error)
}

// Configurer is a Builder which can be configured fluently.
type Configurer interface {
	Builder
	Default() Configurer
	AddBadPkg(pkg, reason string) Configurer
	WithBuildLog(w io.Writer) Configurer
	WithLogger(l *logging.Logger) Configurer
	WithMode(mode gossa.BuilderMode) Configurer
}

// Config represents a build configuration.
type Config struct {
	badPkgs map[string]string
	mode    gossa.BuilderMode

	bldLog io.Writer       // Build log.
	logger *logging.Logger // Logger writing to bldLog.

	src interface{} // src points to the program source.
}

func newConfig(src interface{}) *Config {
	return &Config{
		badPkgs: make(map[string]string),
		mode:    gossa.NaiveForm,
		bldLog:  io.Discard,
		logger:  logging.Nop().For("ssabuild", logging.BuildColour),
		src:     src,
	}
}

// WithBuildLog writes the build log to w.
func (c *Config) WithBuildLog(w io.Writer) Configurer {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel)
	c.bldLog = w
	c.logger = logging.New(zap.New(core).Sugar(), "").For("ssabuild", logging.BuildColour)
	return c
}

// WithLogger sends the build log to l.
func (c *Config) WithLogger(l *logging.Logger) Configurer {
	c.logger = l.For("ssabuild", logging.BuildColour)
	return c
}

// WithMode sets the SSA builder mode. ssa.NaiveForm is kept unless mode
// says otherwise, as loop rotation expects locals in memory.
func (c *Config) WithMode(mode gossa.BuilderMode) Configurer {
	c.mode = mode
	return c
}

// AddBadPkg marks a package 'bad' to avoid loading.
func (c *Config) AddBadPkg(pkg, reason string) Configurer {
	c.badPkgs[pkg] = reason
	return c
}

// Default returns a default configuration for static analysis.
func (c *Config) Default() Configurer {
	return c.
		AddBadPkg("reflect", "Reflection is not supported").
		AddBadPkg("runtime", "Runtime is ignored for static analysis")
}

// Build builds the SSA IR of the source.
func (c *Config) Build() (*ssa.Info, error) {
	switch src := c.src.(type) {
	case *PkgSrc:
		return c.buildPackages(src)
	case srcReader:
		return c.buildFiles(src)
	default:
		return nil, errors.Errorf("unknown source %T", src)
	}
}

// buildFiles type checks the files as a single package and builds it.
// Imported packages are created from export data, without function bodies.
func (c *Config) buildFiles(src srcReader) (*ssa.Info, error) {
	srcs, err := src.Read()
	if err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return nil, ErrNoFiles
	}
	fset := token.NewFileSet()
	var files []*ast.File
	for _, s := range srcs {
		f, err := parser.ParseFile(fset, s.name, s.content, parser.ParseComments)
		if err != nil {
			return nil, errors.Wrap(err, "parse failed")
		}
		if len(files) > 0 && f.Name.Name != files[0].Name.Name {
			return nil, errors.Wrapf(ErrMultiplePkgs, "%s and %s", files[0].Name.Name, f.Name.Name)
		}
		files = append(files, f)
	}
	name := files[0].Name.Name
	tc := &types.Config{Importer: importer.Default(), GoVersion: GoVersion}
	pkg, _, err := ssautil.BuildPackage(tc, fset, types.NewPackage(name, name), files, c.mode)
	if err != nil {
		return nil, errors.Wrap(err, "type check failed")
	}
	c.logger.Infof("%s Program loaded and type checked: %s (%d files)", c.logger.Module(), name, len(files))

	var ignoredPkgs []string
	for _, imp := range pkg.Pkg.Imports() {
		if reason, bad := c.badPkgs[imp.Name()]; bad {
			c.logger.Infof("%s Skip package: %s (%s)", c.logger.Module(), imp.Name(), reason)
			ignoredPkgs = append(ignoredPkgs, imp.Name())
		}
	}
	return &ssa.Info{
		IgnoredPkgs: ignoredPkgs,
		FSet:        fset,
		Prog:        pkg.Prog,
		Pkgs:        []*gossa.Package{pkg},
		BldLog:      c.bldLog,
		Logger:      c.logger,
	}, nil
}

// buildPackages loads packages with go/packages and builds them and their
// dependencies, except for bad packages.
func (c *Config) buildPackages(src *PkgSrc) (*ssa.Info, error) {
	conf := &packages.Config{Mode: packages.LoadAllSyntax, Dir: src.Dir}
	initial, err := packages.Load(conf, src.Patterns...)
	if err != nil {
		return nil, errors.Wrap(err, "go/packages")
	}
	if n := packages.PrintErrors(initial); n > 0 {
		return nil, errors.Wrapf(ErrLoadPkgs, "%d errors", n)
	}
	if len(initial) == 0 {
		return nil, errors.Wrapf(ErrLoadPkgs, "no packages match %q", src.Patterns)
	}
	c.logger.Infof("%s Program loaded and type checked: %d packages", c.logger.Module(), len(initial))

	prog, pkgs := ssautil.AllPackages(initial, c.mode)
	var ignoredPkgs []string
	for _, pkg := range prog.AllPackages() {
		if reason, bad := c.badPkgs[pkg.Pkg.Name()]; bad {
			c.logger.Infof("%s Skip package: %s (%s)", c.logger.Module(), pkg.Pkg.Name(), reason)
			ignoredPkgs = append(ignoredPkgs, pkg.Pkg.Name())
			continue
		}
		pkg.Build()
	}
	var srcPkgs []*gossa.Package
	for _, pkg := range pkgs {
		if pkg != nil {
			srcPkgs = append(srcPkgs, pkg)
		}
	}
	return &ssa.Info{
		IgnoredPkgs: ignoredPkgs,
		FSet:        prog.Fset,
		Prog:        prog,
		Pkgs:        srcPkgs,
		BldLog:      c.bldLog,
		Logger:      c.logger,
	}, nil
}
