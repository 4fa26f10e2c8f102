// Package dispatch runs work items through a bounded pool of workers, each
// invoking the split tool once per item.
//
// Every submitted item produces exactly one Outcome on the returned channel,
// in completion order. Failures never stop other jobs and are not retried.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mt4110/chapsplit/internal/plan"
	"github.com/mt4110/chapsplit/internal/split"
)

// State is the lifecycle position of one job.
type State int

const (
	Submitted State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Submitted:
		return "submitted"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is the result of one job.
type Outcome struct {
	Item     plan.WorkItem
	Command  split.Command
	OK       bool
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	// Err is set for every failure: the launch error or panic for
	// orchestration failures, the exit error for tool failures.
	Err     error
	Elapsed time.Duration
	// orchestration marks failures where the tool never produced an
	// exit status of its own.
	orchestration bool
}

// OrchestrationFailure reports a job whose subprocess could not be started
// or which failed inside the dispatcher itself.
func (o Outcome) OrchestrationFailure() bool {
	return !o.OK && o.orchestration
}

// CommandBuilder maps a work item to the command that performs it.
type CommandBuilder interface {
	Command(plan.WorkItem) split.Command
}

// Dispatcher is a bounded worker pool over a split.Runner.
type Dispatcher struct {
	Builder     CommandBuilder
	Runner      split.Runner
	Concurrency int
	// Verbose logs each submission.
	Verbose bool

	mu     sync.Mutex
	states map[string]State
}

func New(builder CommandBuilder, runner split.Runner, concurrency int) *Dispatcher {
	return &Dispatcher{Builder: builder, Runner: runner, Concurrency: concurrency}
}

// Dispatch submits items in order and returns a channel of their outcomes.
// The channel is closed after the last job finishes.
func (d *Dispatcher) Dispatch(ctx context.Context, items []plan.WorkItem) <-chan Outcome {
	workers := d.Concurrency
	if workers < 1 {
		workers = 1
	}

	d.mu.Lock()
	d.states = make(map[string]State, len(items))
	d.mu.Unlock()

	out := make(chan Outcome, len(items))

	go func() {
		var wg sync.WaitGroup
		semaphore := make(chan struct{}, workers)

		for _, wi := range items {
			if d.Verbose {
				log.Printf("Submitting job: %+v", wi)
			}
			d.setState(wi, Submitted)

			wg.Add(1)
			semaphore <- struct{}{} // 実行枠を確保

			go func(wi plan.WorkItem) {
				defer func() {
					<-semaphore // 実行枠を解放
					wg.Done()
				}()
				o := d.runJob(ctx, wi)
				if o.OK {
					d.setState(wi, Succeeded)
				} else {
					d.setState(wi, Failed)
				}
				out <- o
			}(wi)
		}

		wg.Wait()
		close(out)
	}()

	return out
}

// States returns a copy of every job's current state keyed by output path.
func (d *Dispatcher) States() map[string]State {
	d.mu.Lock()
	defer d.mu.Unlock()

	cp := make(map[string]State, len(d.states))
	for k, v := range d.states {
		cp[k] = v
	}
	return cp
}

func (d *Dispatcher) setState(wi plan.WorkItem, s State) {
	d.mu.Lock()
	d.states[wi.OutFile] = s
	d.mu.Unlock()
}

func (d *Dispatcher) runJob(ctx context.Context, wi plan.WorkItem) (o Outcome) {
	o.Item = wi
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.OK = false
			o.ExitCode = -1
			o.Err = fmt.Errorf("job panicked: %v", r)
			o.orchestration = true
		}
		o.Elapsed = time.Since(start)
	}()

	o.Command = d.Builder.Command(wi)
	d.setState(wi, Running)

	res := d.Runner.Run(ctx, o.Command)
	o.OK = res.OK()
	o.ExitCode = res.ExitCode
	o.Stdout = res.Stdout
	o.Stderr = res.Stderr
	o.Err = res.Err
	o.orchestration = !res.Started
	if !o.OK && o.Err == nil {
		o.Err = fmt.Errorf("exit status %d", res.ExitCode)
	}
	return o
}
