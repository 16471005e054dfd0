package reactive

import (
	"errors"
	"fmt"
)

// ErrCycle is the sentinel matched by errors.Is for cyclic dependency
// failures. A memo that transitively reads itself during its own
// evaluation panics with a *CycleError wrapping this sentinel.
var ErrCycle = errors.New("reactive: cyclic dependency")

// CycleError reports a memo re-entering its own evaluation.
// It is delivered by panicking from Get; the scheduler recovers it for
// scheduled reaction runs and routes it to the error handler.
type CycleError struct {
	// NodeID is the ID of the memo whose evaluation was re-entered.
	NodeID uint64
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("reactive: cyclic dependency detected in memo %d", e.NodeID)
}

// Unwrap returns ErrCycle for errors.Is support.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// ReactionError wraps a panic raised by an effect body during a scheduled
// re-run. One reaction's failure never prevents sibling reactions in the
// same flush from running; the wrapped error is handed to the scheduler's
// error handler instead.
type ReactionError struct {
	// ReactionID is the ID of the failing reaction.
	ReactionID uint64

	// Recovered is the recovered panic value, normalized to an error.
	Recovered error
}

// Error implements the error interface.
func (e *ReactionError) Error() string {
	return fmt.Sprintf("reactive: reaction %d failed: %v", e.ReactionID, e.Recovered)
}

// Unwrap returns the recovered error for errors.Is/As support.
func (e *ReactionError) Unwrap() error {
	return e.Recovered
}
