package main

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/nickng/looprotate/block"
	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/internal/logging"
	"github.com/nickng/looprotate/loop"
	"github.com/nickng/looprotate/rotate"
	"github.com/nickng/looprotate/ssa"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	gossa "golang.org/x/tools/go/ssa"
)

var ErrUnknownPass = errors.New("unknown pass")

// parsePasses splits a comma separated pass pipeline.
func parsePasses(s string) ([]string, error) {
	var passes []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p != rotate.PassName {
			return nil, errors.Wrapf(ErrUnknownPass, "%q (available: %s)", p, rotate.PassName)
		}
		passes = append(passes, p)
	}
	return passes, nil
}

// pipeline runs the passes over functions with a pool of workers.
type pipeline struct {
	*logging.Logger

	passes      []string
	workers     int
	validate    bool
	printBefore bool
	printAfter  bool

	funcs   atomic.Int64
	loops   atomic.Int64
	rotated atomic.Int64
	failed  atomic.Int64
}

// result is the outcome of the pipeline on one function.
type result struct {
	fn      *cfg.Function
	before  string
	after   string
	reports []*rotate.Report
	err     error
}

func newPipeline(passes []string, workers int, logger *logging.Logger) *pipeline {
	if workers < 1 {
		workers = 1
	}
	return &pipeline{
		Logger:  logger.For("looprotate", logging.DriverColour),
		passes:  passes,
		workers: workers,
	}
}

// run lowers and transforms fns. Results are in the order of fns.
func (p *pipeline) run(fns []*gossa.Function) []*result {
	results := make([]*result, len(fns))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts := []rotate.Option{rotate.WithLogger(p.Logger)}
			if p.validate {
				opts = append(opts, rotate.WithValidation())
			}
			r := rotate.New(opts...)
			for i := range jobs {
				results[i] = p.runFunc(r, fns[i])
			}
		}()
	}
	for i := range fns {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (p *pipeline) runFunc(r *rotate.Rotator, f *gossa.Function) *result {
	p.funcs.Inc()
	fn, err := ssa.Lower(f)
	if err != nil {
		p.Errorf("%s Cannot lower %s: %v", p.Module(), f, err)
		p.failed.Inc()
		return &result{err: err}
	}
	res := &result{fn: fn}
	if p.printBefore {
		res.before = fn.Listing()
	}
	for i := range p.passes {
		report := r.RotateFunction(fn)
		res.reports = append(res.reports, report)
		if i == 0 {
			p.loops.Add(int64(len(report.Loops)))
		}
		p.rotated.Add(int64(report.Rotated()))
		if err := report.Err(); err != nil {
			p.Debugf("%s %s: %v", p.Module(), fn.Name, err)
		}
	}
	if p.printAfter {
		res.after = fn.Listing()
	}
	return res
}

// write writes the results to w in order.
func (p *pipeline) write(w io.Writer, results []*result) error {
	var buf bytes.Buffer
	for _, res := range results {
		if res.fn == nil {
			continue
		}
		buf.WriteString(res.before)
		for _, report := range res.reports {
			if _, err := report.WriteTo(&buf); err != nil {
				return err
			}
		}
		buf.WriteString(res.after)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// writeGraphviz writes the current graph of every function to w.
func writeGraphviz(w io.Writer, results []*result) error {
	for _, res := range results {
		if res.fn == nil {
			continue
		}
		forest := loop.NewDetector().Detect(res.fn, cfg.Dominators(res.fn))
		if err := block.WriteGraphviz(w, res.fn, forest); err != nil {
			return err
		}
	}
	return nil
}
