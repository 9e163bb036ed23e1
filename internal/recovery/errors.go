package recovery

import "fmt"

// UnrecoverableError carries an input fault that no policy absorbed.
type UnrecoverableError struct {
	Source string
	Err    error
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("input source %s: %v", e.Source, e.Err)
}

func (e *UnrecoverableError) Unwrap() error { return e.Err }
