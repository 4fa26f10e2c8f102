// Package splitter runs one chapter split end to end: probe, validate,
// plan, then either print the commands (dry run) or dispatch them and
// aggregate the outcomes.
//
// Only the dispatch phase is concurrent. Everything before it runs on the
// caller's goroutine, and every fatal error is returned before any job is
// submitted.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mt4110/chapsplit/internal/config"
	"github.com/mt4110/chapsplit/internal/dispatch"
	"github.com/mt4110/chapsplit/internal/plan"
	"github.com/mt4110/chapsplit/internal/probe"
	"github.com/mt4110/chapsplit/internal/report"
	"github.com/mt4110/chapsplit/internal/split"
)

// TempDirPrefix names the directory created when no output directory is given.
const TempDirPrefix = "chapsplit-"

// Options are the per-run settings. The output directory is resolved per
// run and passed along explicitly.
type Options struct {
	InFile      string
	OutDir      string
	Concurrency int
	UseTitle    bool
	DryRun      bool
	Verbose     bool

	// Stdout receives the dry-run listing and the summary. Defaults to os.Stdout.
	Stdout io.Writer
	// Events, when set, receives report.ChapterEvent values.
	Events chan<- interface{}
}

// OptionsFromConfig fills Options for infile from cfg.
func OptionsFromConfig(cfg *config.Config, infile string) Options {
	return Options{
		InFile:      infile,
		OutDir:      cfg.OutDir,
		Concurrency: cfg.Concurrency,
		UseTitle:    cfg.UseTitle,
		DryRun:      cfg.DryRun,
		Verbose:     cfg.Verbose,
	}
}

type Splitter struct {
	Prober  probe.Prober
	Builder dispatch.CommandBuilder
	Runner  split.Runner
}

// New wires the real ffprobe and ffmpeg collaborators.
func New(cfg *config.Config) *Splitter {
	return &Splitter{
		Prober:  probe.New(cfg.FFprobeBin),
		Builder: split.New(cfg.FFmpegBin, cfg.DropVideo),
		Runner:  split.ExecRunner{},
	}
}

// Run splits opts.InFile. The returned error is non-nil only when the run
// could not start; per-chapter failures are counted in the Report.
func (s *Splitter) Run(ctx context.Context, opts Options) (report.Report, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	if _, _, err := plan.SplitName(opts.InFile); err != nil {
		log.Println("Something is wrong, basename or file extension is empty")
		return report.Report{}, err
	}

	chapters, err := s.Prober.Probe(ctx, opts.InFile)
	if err != nil {
		logProbeFailure(err)
		return report.Report{}, fmt.Errorf("could not read chapters: %w", err)
	}

	valid, err := plan.Validate(chapters)
	if err != nil {
		log.Printf("Could not find any usable chapters in %s, exiting...", opts.InFile)
		return report.Report{}, fmt.Errorf("%s: %w", opts.InFile, err)
	}

	outDir, err := ResolveOutDir(opts.OutDir)
	if err != nil {
		return report.Report{}, err
	}
	if opts.Verbose {
		log.Printf("Output directory: %s", outDir)
	}

	items, err := plan.Build(valid, plan.Options{InFile: opts.InFile, OutDir: outDir, UseTitle: opts.UseTitle})
	if err != nil {
		return report.Report{}, err
	}

	// The output directory already exists at this point, dry run or not.
	if opts.DryRun {
		cmds := make([]split.Command, len(items))
		for i, wi := range items {
			cmds[i] = s.Builder.Command(wi)
		}
		report.WriteDryRun(stdout, items, cmds)
		return report.Report{OutputDir: outDir}, nil
	}

	log.Printf("Total: %d chapters, concurrency: %d", len(items), opts.Concurrency)

	d := dispatch.New(s.Builder, s.Runner, opts.Concurrency)
	d.Verbose = opts.Verbose

	agg := &report.Aggregator{OutputDir: outDir, Events: opts.Events}
	r := agg.Consume(d.Dispatch(ctx, items))

	report.WriteSummary(stdout, r)
	return r, nil
}

// ResolveOutDir creates dir if needed, or a fresh temporary directory when
// dir is empty.
func ResolveOutDir(dir string) (string, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", TempDirPrefix)
		if err != nil {
			return "", fmt.Errorf("create temporary output directory: %w", err)
		}
		return tmp, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return dir, nil
}


func logProbeFailure(err error) {
	var ierr *probe.InvokeError
	if errors.As(err, &ierr) {
		log.Printf("ERROR: %v\nFFPROBE-STDOUT: %s\nFFPROBE-STDERR: %s", ierr, ierr.Stdout, ierr.Stderr)
		return
	}
	log.Printf("ERROR: %v", err)
}
