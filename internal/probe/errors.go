package probe

import (
	"errors"
	"fmt"
	"os/exec"
)

// InvokeError reports that the probe tool failed to start or exited non-zero.
type InvokeError struct {
	Path   string
	Err    error
	Stdout []byte
	Stderr []byte
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("ffprobe %q: %v", e.Path, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// ExitCode returns the tool's exit status, or -1 when it never ran.
func (e *InvokeError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ParseError reports that the probe output was not valid chapter data.
type ParseError struct {
	Err    error
	Output []byte
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse ffprobe JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
