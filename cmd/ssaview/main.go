// Command ssaview is a SSA printer using the loop rotation build options.
// It can also print the control-flow graphs lowered from SSA.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nickng/looprotate/block"
	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/loop"
	"github.com/nickng/looprotate/ssa"
	"github.com/nickng/looprotate/ssa/build"
	gossa "golang.org/x/tools/go/ssa"
)

const (
	Usage = `ssaview is a tool for printing SSA IR of Go source code.

Usage:

  ssaview [options] file.go [files.go...]

Options:

`
)

var (
	buildlogPath string
	callgraphAlg string
	defaultArgs  bool
	outPath      string
	viewFunc     string
	viewCFG      bool
	viewDot      bool
	viewLoops    bool

	out io.Writer
)

func init() {
	flag.BoolVar(&defaultArgs, "default", true, "Use default SSA build arguments")
	flag.StringVar(&buildlogPath, "log", "", "Specify build log file (use '-' for stdout)")
	flag.StringVar(&outPath, "out", "", "Specify output file (default: stdout)")
	flag.StringVar(&viewFunc, "func", "", `Specify the function to view (format: (import/path).FuncName`)
	flag.BoolVar(&viewCFG, "cfg", false, "Print the lowered control-flow graphs instead of SSA")
	flag.BoolVar(&viewDot, "dot", false, "Print the lowered control-flow graphs in graphviz dot format")
	flag.BoolVar(&viewLoops, "loops", false, "Print the loops of the lowered control-flow graphs")
	flag.StringVar(&callgraphAlg, "callgraph", "", `Print the callgraph in graphviz dot format (algorithm: static, cha, rta).
With -cfg, -loops or -dot, view the functions in the callgraph instead`)
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	conf := build.FromFiles(flag.Args())
	if defaultArgs {
		conf = conf.Default()
	}

	switch buildlogPath {
	case "":
	case "-":
		conf = conf.WithBuildLog(os.Stdout)
	default:
		f, err := os.Create(buildlogPath)
		if err != nil {
			log.Fatalf("Cannot create log %s: %v", buildlogPath, err)
		}
		defer f.Close()
		conf = conf.WithBuildLog(f)
	}

	switch outPath {
	case "":
		out = os.Stdout
	default:
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Cannot create output file %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}

	info, err := conf.Build()
	if err != nil {
		log.Fatal("Cannot build SSA from files:", err)
	}
	lowering := viewCFG || viewDot || viewLoops
	fns := info.SrcFunctions()
	if callgraphAlg != "" {
		if fns, err = callgraphFuncs(info, callgraphAlg, out, lowering); err != nil {
			log.Fatal("Cannot view callgraph:", err)
		}
		if !lowering {
			return
		}
	}
	if !lowering {
		if viewFunc != "" {
			if _, err := info.WriteFunc(out, viewFunc); err != nil {
				log.Fatal("Cannot write SSA:", err)
			}
		} else {
			if _, err := info.WriteTo(out); err != nil {
				log.Fatal("Cannot write SSA:", err)
			}
		}
		return
	}

	if viewFunc != "" {
		f, err := info.FindFunc(viewFunc)
		if err != nil {
			log.Fatal("Cannot find function:", err)
		}
		fns = []*gossa.Function{f}
	}
	lowered, err := ssa.LowerAll(fns)
	if err != nil {
		log.Fatal("Cannot lower SSA:", err)
	}
	for _, fn := range lowered {
		if viewCFG {
			if _, err := fn.WriteTo(out); err != nil {
				log.Fatal("Cannot write control-flow graph:", err)
			}
		}
		forest := loop.NewDetector().Detect(fn, cfg.Dominators(fn))
		if viewLoops {
			fmt.Fprintf(out, "# Loops: %s\n%s", fn.Name, forest)
		}
		if viewDot {
			if err := block.WriteGraphviz(out, fn, forest); err != nil {
				log.Fatal("Cannot write graphviz:", err)
			}
		}
	}
}

// callgraphFuncs builds the callgraph of info with algo. Unless lowering, the
// callgraph is written to w in graphviz dot format. It returns the functions
// in the callgraph.
func callgraphFuncs(info *ssa.Info, algo string, w io.Writer, lowering bool) ([]*gossa.Function, error) {
	cg, err := info.BuildCallGraph(algo)
	if err != nil {
		return nil, err
	}
	if !lowering {
		if err := cg.WriteGraphviz(w); err != nil {
			return nil, err
		}
	}
	return cg.AllFunctions()
}
