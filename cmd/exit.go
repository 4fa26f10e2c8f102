package cmd

import "strconv"

// Exit codes. A run that could not start is told apart from one where
// some chapters failed.
const (
	exitOK       = 0
	exitFailures = 1
	exitFatal    = 2
)

// exitError carries the process exit code from a RunE back to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }
