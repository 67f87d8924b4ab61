package board

import "fmt"

// InvalidStateError reports a violated precondition on the data itself (e.g.,
// normalizing a zero-mass distribution, splitting a piece that has no mass at
// its claimed source). It is fatal within the call: the snapshot the caller
// holds is never mutated when this is returned.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %v", e.Reason)
}

func invalidState(format string, args ...interface{}) error {
	return &InvalidStateError{Reason: fmt.Sprintf(format, args...)}
}

// IllegalMoveError reports that validation rejected a caller's move. Expected,
// not exceptional: callers are expected to check for it, not merely log it.
type IllegalMoveError struct {
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move: %v", e.Reason)
}

func illegalMove(format string, args ...interface{}) error {
	return &IllegalMoveError{Reason: fmt.Sprintf(format, args...)}
}

// RequiresMeasurementError is not an error in the exceptional sense: it signals
// that a move is otherwise legal but its actor must be measured at its source
// square before the move can be resolved. Callers may still submit the move;
// the executor performs the measurement and may report TurnLost.
type RequiresMeasurementError struct {
	Square Square
}

func (e *RequiresMeasurementError) Error() string {
	return fmt.Sprintf("requires measurement at %v", e.Square)
}
