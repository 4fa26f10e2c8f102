// Package probe reads chapter metadata from a media file with ffprobe.
//
// A single JSON call per file is made:
//
//	ffprobe -i <file> -v error -print_format json -show_chapters
//
// Failures come in two kinds. An *InvokeError means the tool could not be
// run or exited non-zero; it carries both captured streams. A *ParseError
// means the tool ran but its output was not usable chapter data.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Chapter is one metadata-declared time range of the input.
type Chapter struct {
	ID int64
	// StartTime and EndTime are ffprobe's second-encoded strings, passed
	// through to the split tool unchanged.
	StartTime string
	EndTime   string
	// Start and End are the same instants parsed to seconds.
	Start float64
	End   float64
	Title string
	// TimeBase is informational only.
	TimeBase string
}

// Duration returns End - Start in seconds.
func (c Chapter) Duration() float64 {
	return c.End - c.Start
}

// Prober returns the chapters of the file at path.
type Prober interface {
	Probe(ctx context.Context, path string) ([]Chapter, error)
}

// FFprobe is the Prober backed by the ffprobe binary.
type FFprobe struct {
	Bin string
}

func New(bin string) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobe{Bin: bin}
}

// Args returns the ffprobe argument list for path.
func (p *FFprobe) Args(path string) []string {
	return []string{"-i", path, "-v", "error", "-print_format", "json", "-show_chapters"}
}

func (p *FFprobe) Probe(ctx context.Context, path string) ([]Chapter, error) {
	cmd := exec.CommandContext(ctx, p.Bin, p.Args(path)...)

	// ffprobe writes JSON to stdout but status text may land on either stream.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &InvokeError{
			Path:   path,
			Err:    err,
			Stdout: stdout.Bytes(),
			Stderr: stderr.Bytes(),
		}
	}

	return ParseJSON(stdout.Bytes())
}

// ParseJSON converts raw ffprobe -show_chapters output into chapters.
// A document without a "chapters" key yields an empty, non-nil slice.
func ParseJSON(data []byte) ([]Chapter, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err, Output: data}
	}

	chapters := make([]Chapter, 0, len(raw.Chapters))
	for i := range raw.Chapters {
		ch, err := convertChapter(&raw.Chapters[i])
		if err != nil {
			return nil, &ParseError{Err: err, Output: data}
		}
		chapters = append(chapters, ch)
	}
	return chapters, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Chapters []ffprobeChapter `json:"chapters"`
}

type ffprobeChapter struct {
	ID        int64             `json:"id"`
	TimeBase  string            `json:"time_base"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

func convertChapter(c *ffprobeChapter) (Chapter, error) {
	start, err := parseSeconds(c.StartTime)
	if err != nil {
		return Chapter{}, fmt.Errorf("chapter %d start_time: %w", c.ID, err)
	}
	end, err := parseSeconds(c.EndTime)
	if err != nil {
		return Chapter{}, fmt.Errorf("chapter %d end_time: %w", c.ID, err)
	}
	return Chapter{
		ID:        c.ID,
		StartTime: strings.TrimSpace(c.StartTime),
		EndTime:   strings.TrimSpace(c.EndTime),
		Start:     start,
		End:       end,
		Title:     c.Tags["title"],
		TimeBase:  c.TimeBase,
	}, nil
}

func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing timestamp")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("timestamp %q is not a finite number", s)
	}
	return v, nil
}
