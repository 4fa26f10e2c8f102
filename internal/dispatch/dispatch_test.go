package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt4110/chapsplit/internal/plan"
	"github.com/mt4110/chapsplit/internal/split"
)

// fakeRunner returns canned results keyed by output path (the last argv
// element) and records peak concurrency.
type fakeRunner struct {
	results map[string]split.Result
	delay   time.Duration
	panicOn string

	mu       sync.Mutex
	calls    []string
	inFlight int32
	peak     int32
}

func (f *fakeRunner) Run(ctx context.Context, c split.Command) split.Result {
	out := c.Args[len(c.Args)-1]

	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, out)
	f.mu.Unlock()

	if out == f.panicOn {
		panic("boom")
	}
	time.Sleep(f.delay)

	if r, ok := f.results[out]; ok {
		return r
	}
	return split.Result{Started: true}
}

func items(n int) []plan.WorkItem {
	out := make([]plan.WorkItem, n)
	for i := range out {
		out[i] = plan.WorkItem{
			InFile:       "book.m4b",
			OutFile:      fmt.Sprintf("out/ch %02d - book.m4b", i+1),
			Start:        fmt.Sprintf("%d.0", i*10),
			End:          fmt.Sprintf("%d.0", (i+1)*10),
			ChapterID:    int64(i + 1),
			ChapterCount: int64(n),
		}
	}
	return out
}

func collect(ch <-chan Outcome) []Outcome {
	var all []Outcome
	for o := range ch {
		all = append(all, o)
	}
	return all
}

func TestDispatch_AllSucceed(t *testing.T) {
	runner := &fakeRunner{}
	d := New(split.New("ffmpeg", true), runner, 4)

	outcomes := collect(d.Dispatch(context.Background(), items(10)))
	require.Len(t, outcomes, 10)

	seen := map[string]bool{}
	for _, o := range outcomes {
		assert.True(t, o.OK)
		assert.NoError(t, o.Err)
		assert.Equal(t, "ffmpeg", o.Command.Bin)
		seen[o.Item.OutFile] = true
	}
	assert.Len(t, seen, 10, "every item yields exactly one outcome")

	for _, st := range d.States() {
		assert.Equal(t, Succeeded, st)
	}
}

func TestDispatch_VerboseLogsEachSubmission(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	wis := items(3)
	d := New(split.New("ffmpeg", true), &fakeRunner{}, 2)
	d.Verbose = true
	require.Len(t, collect(d.Dispatch(context.Background(), wis)), 3)

	logged := buf.String()
	assert.Equal(t, 3, strings.Count(logged, "Submitting job:"))
	for _, wi := range wis {
		assert.Contains(t, logged, wi.OutFile)
	}

	buf.Reset()
	d.Verbose = false
	require.Len(t, collect(d.Dispatch(context.Background(), wis)), 3)
	assert.NotContains(t, buf.String(), "Submitting job:")
}

func TestDispatch_RespectsConcurrency(t *testing.T) {
	runner := &fakeRunner{delay: 20 * time.Millisecond}
	d := New(split.New("ffmpeg", true), runner, 3)

	outcomes := collect(d.Dispatch(context.Background(), items(12)))
	require.Len(t, outcomes, 12)
	assert.LessOrEqual(t, atomic.LoadInt32(&runner.peak), int32(3))
	assert.Greater(t, atomic.LoadInt32(&runner.peak), int32(1))
}

func TestDispatch_ZeroConcurrencyRunsSerially(t *testing.T) {
	runner := &fakeRunner{}
	d := New(split.New("ffmpeg", true), runner, 0)

	outcomes := collect(d.Dispatch(context.Background(), items(3)))
	require.Len(t, outcomes, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.peak))
}

func TestDispatch_FailuresDoNotStopOthers(t *testing.T) {
	wis := items(5)
	runner := &fakeRunner{
		results: map[string]split.Result{
			wis[1].OutFile: {Started: true, ExitCode: 1, Stderr: []byte("already exists"), Err: errors.New("exit status 1")},
			wis[3].OutFile: {Started: false, ExitCode: -1, Err: errors.New("executable file not found")},
		},
		panicOn: wis[4].OutFile,
	}
	d := New(split.New("ffmpeg", true), runner, 2)

	byOut := map[string]Outcome{}
	for _, o := range collect(d.Dispatch(context.Background(), wis)) {
		byOut[o.Item.OutFile] = o
	}
	require.Len(t, byOut, 5)

	tool := byOut[wis[1].OutFile]
	assert.False(t, tool.OK)
	assert.False(t, tool.OrchestrationFailure())
	assert.Equal(t, 1, tool.ExitCode)
	assert.Equal(t, "already exists", string(tool.Stderr))

	launch := byOut[wis[3].OutFile]
	assert.False(t, launch.OK)
	assert.True(t, launch.OrchestrationFailure())

	panicked := byOut[wis[4].OutFile]
	assert.False(t, panicked.OK)
	assert.True(t, panicked.OrchestrationFailure())
	assert.ErrorContains(t, panicked.Err, "panicked")
	assert.Equal(t, "ffmpeg", panicked.Command.Bin)

	assert.True(t, byOut[wis[0].OutFile].OK)
	assert.True(t, byOut[wis[2].OutFile].OK)

	states := d.States()
	assert.Equal(t, Failed, states[wis[1].OutFile])
	assert.Equal(t, Succeeded, states[wis[2].OutFile])

	assert.Len(t, runner.calls, 5, "no retries")
}

func TestDispatch_NonZeroWithoutErrGetsOne(t *testing.T) {
	wis := items(1)
	runner := &fakeRunner{results: map[string]split.Result{
		wis[0].OutFile: {Started: true, ExitCode: 2},
	}}
	d := New(split.New("ffmpeg", true), runner, 1)

	outcomes := collect(d.Dispatch(context.Background(), wis))
	require.Len(t, outcomes, 1)
	assert.EqualError(t, outcomes[0].Err, "exit status 2")
}

func TestDispatch_Empty(t *testing.T) {
	d := New(split.New("ffmpeg", true), &fakeRunner{}, 2)
	assert.Empty(t, collect(d.Dispatch(context.Background(), nil)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "State(9)", State(9).String())
}
