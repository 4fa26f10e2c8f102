package split

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result is what running one Command produced.
type Result struct {
	// Started is false when the process could not be launched at all.
	Started  bool
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	// Err is the launch error when !Started, or the *exec.ExitError of a
	// process that finished unsuccessfully.
	Err error
}

// OK reports a process that ran and exited zero.
func (r Result) OK() bool {
	return r.Started && r.Err == nil && r.ExitCode == 0
}

// Runner executes split commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// ExecRunner runs commands as local subprocesses with both output streams
// captured in full.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) Result {
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{Started: false, ExitCode: -1, Err: err}
	}

	err := cmd.Wait()
	res := Result{
		Started:  true,
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && res.ExitCode == 0 {
			// Wait failed on I/O copying even though the process exited 0.
			res.ExitCode = -1
		}
		res.Err = err
	}
	return res
}
