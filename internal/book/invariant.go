package book

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// InvariantViolation is raised by invariant() when the book reaches a
// state that should be impossible under correct matching logic — a bug,
// not a user error. Per spec.md §7, such a break must abort the whole
// process, not just the call or connection that tripped it; callers
// inside internal/book never recover from it themselves. The gateway's
// connection handler is the one place that recovers it, logs it as
// fatal, and exits the process.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "book: invariant violated: " + e.Msg
}

// invariant panics with an *InvariantViolation if cond is false.
func invariant(cond bool, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	log.Error().Str("invariant", msg).Msg("order book invariant violated")
	panic(&InvariantViolation{Msg: msg})
}
