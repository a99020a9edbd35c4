package injector

import (
	"errors"

	"github.com/launchpath/injector/solve"
)

// Sentinel errors for common solving failures.
var (
	// ErrUnsatisfiable indicates that no consistent selection exists for
	// the requirement.
	ErrUnsatisfiable = solve.ErrUnsatisfiable

	// ErrUnknownInterface indicates that no feed is known for a
	// requested interface.
	ErrUnknownInterface = errors.New("unknown interface")

	// ErrDuplicateFeed indicates two feeds claim the same interface URI.
	ErrDuplicateFeed = errors.New("duplicate feed")
)

// SolveError is returned by Resolve when strict solving fails. It
// carries the rendered failure report from the closest-match re-solve,
// and unwraps to ErrUnsatisfiable.
type SolveError struct {
	// Report is the multi-line human-readable account of what could not
	// be resolved and why.
	Report string

	// Closest is the closest-match result the report was rendered from.
	Closest *solve.Result
}

func (e *SolveError) Error() string { return e.Report }

func (e *SolveError) Unwrap() error { return ErrUnsatisfiable }
