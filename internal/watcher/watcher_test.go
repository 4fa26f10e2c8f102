package watcher

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mt4110/chapsplit/internal/config"
	"github.com/mt4110/chapsplit/internal/report"
	"github.com/mt4110/chapsplit/internal/splitter"
)

type fakeSplitter struct {
	mu    sync.Mutex
	calls []splitter.Options
	rep   report.Report
	err   error
}

func (f *fakeSplitter) Run(ctx context.Context, opts splitter.Options) (report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	r := f.rep
	r.OutputDir = opts.OutDir
	return r, f.err
}

func (f *fakeSplitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quiet(t *testing.T) {
	t.Helper()
	prev := log.Writer()
	log.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { log.SetOutput(prev) })
}

func testConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.Notify = false
	cfg.SettleDelay = 0
	return cfg
}

func TestShouldProcess(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"m4b book", "book.m4b", true},
		{"upper case extension", "BOOK.MP3", true},
		{"hidden file", ".book.m4b", false},
		{"partial download", "book.m4b.part", false},
		{"image", "cover.jpg", false},
	}

	w := New(testConfig(), &fakeSplitter{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.ShouldProcess(filepath.Join("/watch", tt.filename))
			if got != tt.want {
				t.Errorf("ShouldProcess(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestProcessFile_Events(t *testing.T) {
	quiet(t)
	cfg := testConfig()
	cfg.OutDir = "/out"

	t.Run("success", func(t *testing.T) {
		events := make(chan interface{}, 10)
		fs := &fakeSplitter{rep: report.Report{Total: 2, Success: 2}}
		w := New(cfg, fs)
		w.EventChan = events

		w.ProcessFile(context.Background(), "/in/book.m4b")
		close(events)

		require.Len(t, fs.calls, 1)
		assert.Equal(t, filepath.Join("/out", "book"), fs.calls[0].OutDir)
		assert.Equal(t, "/in/book.m4b", fs.calls[0].InFile)

		var kinds []string
		for e := range events {
			switch e.(type) {
			case StartSplitEvent:
				kinds = append(kinds, "start")
			case SuccessEvent:
				kinds = append(kinds, "success")
			case FailureEvent:
				kinds = append(kinds, "failure")
			}
		}
		assert.Equal(t, []string{"start", "success"}, kinds)
	})

	t.Run("chapter failures are a file failure", func(t *testing.T) {
		events := make(chan interface{}, 10)
		w := New(cfg, &fakeSplitter{rep: report.Report{Total: 2, Success: 1, Errors: 1}})
		w.EventChan = events

		w.ProcessFile(context.Background(), "/in/book.m4b")
		close(events)

		var failed bool
		for e := range events {
			if _, ok := e.(FailureEvent); ok {
				failed = true
			}
		}
		assert.True(t, failed)
	})

	t.Run("fatal error", func(t *testing.T) {
		events := make(chan interface{}, 10)
		w := New(cfg, &fakeSplitter{err: errors.New("no chapters")})
		w.EventChan = events

		w.ProcessFile(context.Background(), "/in/book.m4b")
		close(events)

		var got FailureEvent
		for e := range events {
			if f, ok := e.(FailureEvent); ok {
				got = f
			}
		}
		assert.EqualError(t, got.Err, "no chapters")
	})

	t.Run("same-named files keep separate directories", func(t *testing.T) {
		fs := &fakeSplitter{rep: report.Report{Total: 1, Success: 1}}
		w := New(cfg, fs)

		w.ProcessFile(context.Background(), "/in/a/book.m4b")
		w.ProcessFile(context.Background(), "/in/b/book.m4b")

		require.Len(t, fs.calls, 2)
		assert.Equal(t, filepath.Join("/out", "book"), fs.calls[0].OutDir)
		assert.Equal(t, filepath.Join("/out", "book (2)"), fs.calls[1].OutDir)
	})
}

func TestRun_SplitsNewFiles(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	cfg := testConfig()
	cfg.WatchDirs = []string{dir}

	fs := &fakeSplitter{}
	w := New(cfg, fs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.m4b"), nil, 0644))

	require.Eventually(t, func() bool { return fs.count() >= 1 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, c := range fs.calls {
		assert.Equal(t, "book.m4b", filepath.Base(c.InFile))
	}
}

func TestRun_NoDirs(t *testing.T) {
	w := New(testConfig(), &fakeSplitter{})
	assert.Error(t, w.Run(context.Background()))
}
