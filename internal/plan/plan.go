// Package plan turns probed chapters into an ordered list of immutable work
// items: validation, output naming and work item construction.
package plan

import (
	"path/filepath"
	"sort"

	"github.com/mt4110/chapsplit/internal/probe"
)

// WorkItem is one chapter extraction task. It is a value type and is never
// modified after Build returns it.
type WorkItem struct {
	InFile  string
	OutFile string
	Start   string
	End     string

	ChapterID int64
	// ChapterCount is the maximum valid chapter id, written as the
	// denominator of the track tag.
	ChapterCount int64
	Title        string
}

// Options controls work plan construction.
type Options struct {
	InFile   string
	OutDir   string
	UseTitle bool
}

// Build creates one WorkItem per validated chapter, ordered by ascending
// chapter id. Order is read from the ids, not from input position.
func Build(v Validated, opts Options) ([]WorkItem, error) {
	if len(v.Chapters) == 0 {
		return nil, ErrNoChapters
	}

	namer, err := NewNamer(opts.InFile, v.MaxID, opts.UseTitle)
	if err != nil {
		return nil, err
	}

	chapters := make([]probe.Chapter, len(v.Chapters))
	copy(chapters, v.Chapters)
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].ID < chapters[j].ID
	})

	items := make([]WorkItem, 0, len(chapters))
	for _, ch := range chapters {
		items = append(items, WorkItem{
			InFile:       opts.InFile,
			OutFile:      filepath.Join(opts.OutDir, namer.FileName(ch.ID, ch.Title)),
			Start:        ch.StartTime,
			End:          ch.EndTime,
			ChapterID:    ch.ID,
			ChapterCount: v.MaxID,
			Title:        ch.Title,
		})
	}
	return items, nil
}
