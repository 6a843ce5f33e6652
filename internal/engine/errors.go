package engine

import "errors"

// ErrUnknownPair is returned by CancelOrder when the pair was never
// created. add_order never returns this: an unknown pair is created
// lazily instead (spec.md §4.2).
var ErrUnknownPair = errors.New("engine: unknown pair")

// ErrInvalidOrder wraps an intake validation failure. The order is not
// admitted and the book is left untouched.
type ErrInvalidOrder struct {
	Reason string
}

func (e *ErrInvalidOrder) Error() string {
	return "engine: invalid order: " + e.Reason
}

func invalidOrder(reason string) error {
	return &ErrInvalidOrder{Reason: reason}
}
