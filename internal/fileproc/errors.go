package fileproc

import (
	"fmt"
	"sync"
)

// ProcessingError ties a decode failure to the input that caused it.
type ProcessingError struct {
	Name string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e ProcessingError) Unwrap() error { return e.Err }

// ProcessingErrors accumulates failures across a batch. Add is safe to
// call from pool workers.
type ProcessingErrors struct {
	mu     sync.Mutex
	errors []ProcessingError
}

// Add records a failure.
func (e *ProcessingErrors) Add(name string, err error) {
	e.mu.Lock()
	e.errors = append(e.errors, ProcessingError{Name: name, Err: err})
	e.mu.Unlock()
}

// All returns the recorded failures.
func (e *ProcessingErrors) All() []ProcessingError {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ProcessingError, len(e.errors))
	copy(out, e.errors)
	return out
}

// HasErrors reports whether anything failed.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errors) > 0
}

func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.errors) {
	case 0:
		return "no errors"
	case 1:
		return e.errors[0].Error()
	default:
		return fmt.Sprintf("%d inputs failed (first: %v)", len(e.errors), e.errors[0])
	}
}
