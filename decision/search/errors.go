package search

import (
	"errors"
	"fmt"
)

// ErrInfeasible signals that a restaurant cannot supply every requested
// item no matter which combos are bought. Expected outcome, not a failure.
var ErrInfeasible = errors.New("requested items cannot be covered by this menu")

// ErrNotFound signals that no combination of menu lines covers the
// requested items. Expected outcome, not a failure.
var ErrNotFound = errors.New("no combination satisfies the requested items")

// LengthMismatchError reports a menu/mask length disagreement. It indicates
// a broken caller contract, never a normal "no solution" outcome, and must
// not be swallowed by aggregation.
type LengthMismatchError struct {
	MenuLen int
	MaskLen int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("selection mask length %d does not match menu length %d", e.MaskLen, e.MenuLen)
}
