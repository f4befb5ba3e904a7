package rotate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/nickng/looprotate/cfg"
	"github.com/nickng/looprotate/loop"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Result is the outcome of one rotation attempt.
type Result struct {
	Loop    *loop.Loop
	Header  string // Header at the time of the attempt, e.g. "1 (for.loop)".
	Changed bool   // The function was modified.
	Err     error  // Why the loop was not (completely) rotated.

	Guard     *Guard       // Recovered guard, nil if extraction failed.
	Preheader *cfg.Compare // Guard synthesized in the preheader.
	Latch     *cfg.Compare // Guard synthesized in the latch.
}

// Rotated returns true if the loop was completely rotated.
func (r Result) Rotated() bool { return r.Changed && r.Err == nil }

// Status describes the outcome in a word.
func (r Result) Status() string {
	switch {
	case r.Rotated():
		return "rotated"
	case r.Changed:
		return "failed"
	case errors.Cause(r.Err) == ErrAlreadyRotated:
		return "done"
	default:
		return "skipped"
	}
}

// Report is the outcome of rotating the loops of a function.
type Report struct {
	Function string
	Loops    []Result
	Changed  bool // Any loop changed the function.
}

func (r *Report) add(res Result) {
	r.Loops = append(r.Loops, res)
	r.Changed = r.Changed || res.Changed
}

// Rotated returns the number of loops rotated.
func (r *Report) Rotated() int {
	n := 0
	for _, res := range r.Loops {
		if res.Rotated() {
			n++
		}
	}
	return n
}

// Err returns the errors of all loops which were not rotated, or nil.
// Loops which were already rotated are not errors.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Loops {
		if res.Err != nil && errors.Cause(res.Err) != ErrAlreadyRotated {
			err = multierr.Append(err, res.Err)
		}
	}
	return err
}

// WriteTo writes a summary of the report to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	changed := "unchanged"
	if r.Changed {
		changed = color.YellowString("changed")
	}
	buf.WriteString(fmt.Sprintf("%s %s: %d loops, %d rotated, %s\n",
		color.CyanString(PassName), r.Function, len(r.Loops), r.Rotated(), changed))
	for _, res := range r.Loops {
		switch res.Status() {
		case "rotated":
			buf.WriteString(fmt.Sprintf("  loop %s: %s, guard %s\n", res.Header, color.GreenString("rotated"), res.Guard))
		case "done":
			buf.WriteString(fmt.Sprintf("  loop %s: %s\n", res.Header, color.BlueString("already rotated")))
		default:
			buf.WriteString(fmt.Sprintf("  loop %s: %s: %v\n", res.Header, color.RedString(res.Status()), errors.Cause(res.Err)))
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
