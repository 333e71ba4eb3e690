package nfa

import (
	"errors"
	"fmt"
)

// Common NFA errors
var (
	// ErrInvalidState indicates an invalid NFA state ID was encountered
	ErrInvalidState = errors.New("invalid NFA state")

	// ErrInvalidTransition indicates a transition whose guards or
	// operations are malformed
	ErrInvalidTransition = errors.New("invalid NFA transition")

	// ErrInvalidQuantifier indicates a quantifier with bad bounds or an
	// unknown quantifier id
	ErrInvalidQuantifier = errors.New("invalid quantifier")

	// ErrNoInitialState indicates an NFA without any start state
	ErrNoInitialState = errors.New("NFA has no initial state")
)

// BuildError represents an error during NFA construction via the Builder API
type BuildError struct {
	Message string
	StateID StateID
	Err     error // sentinel classifying the failure
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.StateID != InvalidState {
		return fmt.Sprintf("NFA build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("NFA build error: %s", e.Message)
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	return e.Err
}
