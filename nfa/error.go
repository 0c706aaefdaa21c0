package nfa

import (
	"errors"
	"fmt"
)

// Common NFA errors.
var (
	// ErrCompilation indicates a general NFA compilation failure.
	ErrCompilation = errors.New("NFA compilation failed")
)

// CompileError wraps compilation errors with the offending rule.
type CompileError struct {
	Rule uint32
	Err  error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("NFA compilation failed for rule %d: %v", e.Rule, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error { return e.Err }

// BuildError represents an error during NFA construction via the Builder.
type BuildError struct {
	Message string
	StateID StateID
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.StateID != InvalidState && e.StateID != 0 {
		return fmt.Sprintf("NFA build error at state %d: %s", e.StateID, e.Message)
	}
	return fmt.Sprintf("NFA build error: %s", e.Message)
}
