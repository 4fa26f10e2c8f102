package split

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mt4110/chapsplit/internal/plan"
)

// Command is a complete split tool invocation. Args never pass through a
// shell, so titles with spaces or metacharacters stay single arguments.
type Command struct {
	Bin  string
	Args []string
}

// Argv returns Bin followed by Args.
func (c Command) Argv() []string {
	return append([]string{c.Bin}, c.Args...)
}

// String renders the command for display, quoting arguments that need it.
// It is not meant to be fed back into a shell.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n\"'\\$`") {
			parts[i] = strconv.Quote(a)
		} else {
			parts[i] = a
		}
	}
	return strings.Join(parts, " ")
}

// Splitter builds ffmpeg commands that cut one chapter out of the input
// with stream copy.
type Splitter struct {
	FFmpegBin string
	// DropVideo adds -vn so embedded cover art is not carried into
	// every chapter file.
	DropVideo bool
}

func New(ffmpegBin string, dropVideo bool) *Splitter {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &Splitter{FFmpegBin: ffmpegBin, DropVideo: dropVideo}
}

// Command maps a work item to its ffmpeg invocation. It is a pure function
// of the item and the splitter settings.
func (s *Splitter) Command(wi plan.WorkItem) Command {
	args := []string{
		"-nostdin", // keep workers from grabbing the terminal
		"-i", wi.InFile,
		"-v", "error",
		"-map_chapters", "-1", // the source chapter table would be duplicated otherwise
	}
	if s.DropVideo {
		args = append(args, "-vn")
	}
	args = append(args,
		"-c", "copy",
		"-ss", wi.Start,
		"-to", wi.End,
		"-n", // never overwrite
		"-metadata", fmt.Sprintf("track=%d/%d", wi.ChapterID, wi.ChapterCount),
	)
	if wi.Title != "" {
		args = append(args, "-metadata", "title="+wi.Title)
	}
	args = append(args, wi.OutFile)

	return Command{Bin: s.FFmpegBin, Args: args}
}
