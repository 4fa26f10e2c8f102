// Package report folds job outcomes into a run summary.
package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mt4110/chapsplit/internal/dispatch"
)

// Report is the terminal summary of one run.
type Report struct {
	Total     int
	Success   int
	Errors    int
	OutputDir string
}

// ExitCode is 0 only when no job failed.
func (r Report) ExitCode() int {
	if r.Errors > 0 {
		return 1
	}
	return 0
}

// ChapterEvent is sent to Aggregator.Events once per finished job.
type ChapterEvent struct {
	InFile    string
	OutFile   string
	ChapterID int64
	OK        bool
}

// ResultEntry is the JSON line logged per job; the stats command reads it back.
type ResultEntry struct {
	Type        string  `json:"type"`
	Input       string  `json:"input"`
	Output      string  `json:"output"`
	ChapterID   int64   `json:"chapter_id"`
	OK          bool    `json:"ok"`
	ExitCode    int     `json:"exit_code"`
	DurationSec float64 `json:"duration_sec"`
	OutputSize  int64   `json:"output_size"`
	Timestamp   string  `json:"timestamp"`
}

// ResultEntryType tags ResultEntry lines in the log.
const ResultEntryType = "split_result"

// Aggregator is the single consumer of a run's outcomes. It owns the
// success and error tallies, so workers never touch shared counters.
type Aggregator struct {
	OutputDir string
	// Events is optional.
	Events chan<- interface{}
}

// Consume reads outcomes until the channel closes, logging each as it
// arrives, and returns the final counts.
func (a *Aggregator) Consume(outcomes <-chan dispatch.Outcome) Report {
	r := Report{OutputDir: a.OutputDir}

	for o := range outcomes {
		r.Total++
		if o.OK {
			r.Success++
			log.Printf("'%s' - done", o.Item.OutFile)
		} else {
			r.Errors++
			log.Print(failureText(o))
		}

		logResult(o)

		if a.Events != nil {
			a.Events <- ChapterEvent{
				InFile:    o.Item.InFile,
				OutFile:   o.Item.OutFile,
				ChapterID: o.Item.ChapterID,
				OK:        o.OK,
			}
		}
	}

	return r
}

// failureText is one log record so the captured streams are never
// interleaved with other jobs' lines.
func failureText(o dispatch.Outcome) string {
	var b strings.Builder
	if o.OrchestrationFailure() {
		fmt.Fprintf(&b, "ERROR: job '%s' could not be run: %v\n", o.Item.OutFile, o.Err)
	} else {
		fmt.Fprintf(&b, "FAILURE: %s\n", o.Item.OutFile)
	}
	fmt.Fprintf(&b, "Command: %s\n", o.Command)
	fmt.Fprintf(&b, "Exit status: %d (%v)\n", o.ExitCode, o.Err)
	fmt.Fprintf(&b, "FFMPEG-STDOUT: %s\n", o.Stdout)
	fmt.Fprintf(&b, "FFMPEG-STDERR: %s\n", o.Stderr)
	b.WriteString(strings.Repeat("-", 20))
	return b.String()
}

func logResult(o dispatch.Outcome) {
	entry := ResultEntry{
		Type:        ResultEntryType,
		Input:       o.Item.InFile,
		Output:      o.Item.OutFile,
		ChapterID:   o.Item.ChapterID,
		OK:          o.OK,
		ExitCode:    o.ExitCode,
		DurationSec: o.Elapsed.Seconds(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if o.OK {
		if info, err := os.Stat(o.Item.OutFile); err == nil {
			entry.OutputSize = info.Size()
		}
	}
	if jsonBytes, err := json.Marshal(entry); err == nil {
		log.Println(string(jsonBytes))
	}
}
