// Command looprotate rotates the simple loops of Go functions, turning each
// test-at-top loop into a guarded test-at-bottom loop, and reports what was
// rotated.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/nickng/looprotate/internal/logging"
	"github.com/nickng/looprotate/rotate"
	"github.com/nickng/looprotate/ssa/build"
	gossa "golang.org/x/tools/go/ssa"
)

const (
	Usage = `looprotate is a tool for rotating the loops of Go functions.

Usage:

  looprotate [options] file.go [files.go...]
  looprotate [options] -pkgs pattern [patterns...]

Options:

`
)

var (
	passes      string
	funcPath    string
	reachable   string
	usePkgs     bool
	printBefore bool
	printAfter  bool
	dotPath     string
	logPath     string
	workers     int
	validate    bool
	noColour    bool
)

func init() {
	flag.StringVar(&passes, "passes", rotate.PassName, "Comma separated passes to run (repeat a pass to run it again)")
	flag.StringVar(&funcPath, "func", "", `Only transform this function (format: (import/path).FuncName)`)
	flag.StringVar(&reachable, "reachable", "", "Only transform functions reachable from main, with callgraph algorithm static, cha or rta")
	flag.BoolVar(&usePkgs, "pkgs", false, "Arguments are package patterns instead of files")
	flag.BoolVar(&printBefore, "print-before", false, "Print each function before the passes")
	flag.BoolVar(&printAfter, "print-after", false, "Print each function after the passes")
	flag.StringVar(&dotPath, "dot", "", "Write the transformed functions in graphviz dot format to file")
	flag.StringVar(&logPath, "log", "", "Specify log file (use '-' for stderr)")
	flag.IntVar(&workers, "j", runtime.NumCPU(), "Number of functions transformed in parallel")
	flag.BoolVar(&validate, "validate", false, "Check each function after every rotation")
	flag.BoolVar(&noColour, "no-color", false, "Disable colour output")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}
	pipelinePasses, err := parsePasses(passes)
	if err != nil {
		log.Fatal("Invalid passes: ", err)
	}

	logger := logging.Nop()
	switch logPath {
	case "":
	case "-":
		logger = newLogger()
	default:
		logger = newFileLogger(logPath)
	}
	// Sync error ignored. See https://github.com/uber-go/zap/issues/328
	defer logger.Sync()
	if noColour {
		logging.DisableColour()
	}

	var conf build.Configurer
	if usePkgs {
		conf = build.FromPackages("", flag.Args()...)
	} else {
		conf = build.FromFiles(flag.Args())
	}
	info, err := conf.Default().WithLogger(logger).Build()
	if err != nil {
		log.Fatal("Build failed: ", err)
	}

	var fns []*gossa.Function
	if funcPath != "" {
		f, err := info.FindFunc(funcPath)
		if err != nil {
			log.Fatal("Cannot find function: ", err)
		}
		fns = append(fns, f)
	} else {
		fns, err = info.Functions(reachable)
		if err != nil {
			log.Fatal("Cannot select functions: ", err)
		}
	}

	p := newPipeline(pipelinePasses, workers, logger)
	p.validate = validate
	p.printBefore = printBefore
	p.printAfter = printAfter
	results := p.run(fns)
	if err := p.write(os.Stdout, results); err != nil {
		log.Fatal("Cannot write results: ", err)
	}
	if dotPath != "" {
		f, err := os.Create(dotPath)
		if err != nil {
			log.Fatalf("Cannot create graphviz file %s: %v", dotPath, err)
		}
		defer f.Close()
		if err := writeGraphviz(f, results); err != nil {
			log.Fatal("Cannot write graphviz: ", err)
		}
	}
	fmt.Printf("%d functions, %d loops, %d rotated, %d not lowered\n",
		p.funcs.Load(), p.loops.Load(), p.rotated.Load(), p.failed.Load())
	if p.failed.Load() > 0 {
		logger.Sync()
		os.Exit(1)
	}
}
