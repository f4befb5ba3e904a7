package rotate

import (
	"fmt"

	"github.com/nickng/looprotate/cfg"
	"github.com/pkg/errors"
)

var (
	ErrMissingPreheaderOrExit = errors.New("loop has no preheader or no unique exit block")
	ErrNotConditional         = errors.New("header does not end in a conditional branch")
	ErrNotComparable          = errors.New("branch condition is not a comparison")
	ErrNotMemoryBacked        = errors.New("compared value is not loaded from memory")
	ErrMissingLatch           = errors.New("loop does not have exactly one latch")
	ErrUnsupportedShape       = errors.New("unsupported loop shape")
	ErrAlreadyRotated         = errors.New("loop already rotated")
	ErrStaleLoop              = errors.New("loop does not match the function")
)

// LoopError is an error from rotating the loop at Header.
type LoopError struct {
	Func   string // Name of the function.
	Header string // Header block, e.g. "1 (for.loop)".
	Err    error
}

func newLoopError(fn string, header *cfg.Block, err error) *LoopError {
	return &LoopError{Func: fn, Header: blockName(header), Err: err}
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("%s: loop %s: %v", e.Func, e.Header, e.Err)
}

// Cause returns the underlying error, for errors.Cause.
func (e *LoopError) Cause() error { return e.Err }

func (e *LoopError) Unwrap() error { return e.Err }

func blockName(b *cfg.Block) string {
	if b == nil {
		return "<nil>"
	}
	if b.Comment == "" {
		return b.String()
	}
	return fmt.Sprintf("%s (%s)", b, b.Comment)
}
