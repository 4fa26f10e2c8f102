package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/mt4110/chapsplit/internal/plan"
	"github.com/mt4110/chapsplit/internal/split"
)

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	return tw
}

// WriteSummary prints the end-of-run summary.
func WriteSummary(w io.Writer, r Report) {
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Processing done. Total jobs: %d, Success: %d, Errors: %d\n", r.Total, r.Success, r.Errors)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Total", "Success", "Errors", "Output directory"})
	tw.AppendRow(table.Row{r.Total, r.Success, r.Errors, r.OutputDir})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	tw.Render()

	if r.Errors > 0 {
		fmt.Fprintln(w, "WARNING: there were errors. Some chapters may not have been processed correctly!")
	}
	fmt.Fprintln(w, "Output directory:", r.OutputDir)
}

// WriteDryRun prints the commands a run would execute, one table row per
// chapter followed by the exact argument vectors.
func WriteDryRun(w io.Writer, items []plan.WorkItem, cmds []split.Command) {
	fmt.Fprintln(w, "Dry run enabled. These commands would be run by workers:")

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Chapter", "Start", "End", "Output"})
	for _, wi := range items {
		tw.AppendRow(table.Row{
			strconv.FormatInt(wi.ChapterID, 10) + "/" + strconv.FormatInt(wi.ChapterCount, 10),
			wi.Start, wi.End, wi.OutFile,
		})
	}
	tw.Render()

	fmt.Fprintln(w, "---")
	for _, c := range cmds {
		fmt.Fprintf(w, "%q\n", c.Argv())
	}
	fmt.Fprintln(w, "---")
	fmt.Fprintln(w, "Dry run complete. Exiting...")
}

// FileResult is one input of a batch run.
type FileResult struct {
	InFile string
	Report Report
	Err    error
}

// WriteBatchSummary prints one row per input file.
func WriteBatchSummary(w io.Writer, results []FileResult) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"File", "Chapters", "Success", "Errors", "Result"})

	failed := 0
	for _, fr := range results {
		status := "ok"
		switch {
		case fr.Err != nil:
			status = fr.Err.Error()
			failed++
		case fr.Report.Errors > 0:
			status = "partial"
			failed++
		}
		tw.AppendRow(table.Row{filepath.Base(fr.InFile), fr.Report.Total, fr.Report.Success, fr.Report.Errors, status})
	}
	tw.AppendFooter(table.Row{"", "", "", "Failed", failed})
	tw.Render()
}
