package probe

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Realistic ffprobe -show_chapters output for an m4b audiobook.
const sampleBook = `{
    "chapters": [
        {
            "id": 0,
            "time_base": "1/1000",
            "start": 0,
            "start_time": "0.000000",
            "end": 1079000,
            "end_time": "1079.000000",
            "tags": {
                "title": "Chapter One"
            }
        },
        {
            "id": 1,
            "time_base": "1/1000",
            "start": 1079000,
            "start_time": "1079.000000",
            "end": 2040000,
            "end_time": "2040.000000",
            "tags": {
                "title": "Chapter Two"
            }
        },
        {
            "id": 2,
            "time_base": "1/1000",
            "start": 2040000,
            "start_time": "2040.000000",
            "end": 2878000,
            "end_time": "2878.000000"
        }
    ]
}`

func TestParseJSON_Book(t *testing.T) {
	chapters, err := ParseJSON([]byte(sampleBook))
	require.NoError(t, err)
	require.Len(t, chapters, 3)

	first := chapters[0]
	assert.Equal(t, int64(0), first.ID)
	assert.Equal(t, "0.000000", first.StartTime)
	assert.Equal(t, "1079.000000", first.EndTime)
	assert.Equal(t, 1079.0, first.Duration())
	assert.Equal(t, "Chapter One", first.Title)
	assert.Equal(t, "1/1000", first.TimeBase)

	assert.Equal(t, "", chapters[2].Title, "chapter without tags has no title")
	assert.Equal(t, 2040.0, chapters[2].Start)
}

func TestParseJSON_NoChaptersKey(t *testing.T) {
	chapters, err := ParseJSON([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, chapters)
	assert.Empty(t, chapters)
}

func TestParseJSON_Errors(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"invalid JSON", `{invalid`},
		{"bad start_time", `{"chapters":[{"id":1,"start_time":"abc","end_time":"1.0"}]}`},
		{"missing end_time", `{"chapters":[{"id":1,"start_time":"0.0"}]}`},
		{"nan start_time", `{"chapters":[{"id":1,"start_time":"nan","end_time":"10.0"}]}`},
		{"inf end_time", `{"chapters":[{"id":2,"start_time":"0","end_time":"inf"}]}`},
		{"negative inf start_time", `{"chapters":[{"id":3,"start_time":"-Inf","end_time":"1.0"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tc.json))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.json, string(perr.Output))
		})
	}
}

func TestFFprobeArgs(t *testing.T) {
	p := New("")
	assert.Equal(t, "ffprobe", p.Bin)
	assert.Equal(t,
		[]string{"-i", "book.m4b", "-v", "error", "-print_format", "json", "-show_chapters"},
		p.Args("book.m4b"))
}

func TestProbe_MissingBinary(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "no-such-ffprobe"))

	_, err := p.Probe(context.Background(), "book.m4b")
	var ierr *InvokeError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, -1, ierr.ExitCode())
	assert.Equal(t, "book.m4b", ierr.Path)
}

func TestProbe_NonZeroExit(t *testing.T) {
	sh, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}
	p := New(sh)

	_, err = p.Probe(context.Background(), "book.m4b")
	var ierr *InvokeError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 1, ierr.ExitCode())

	var perr *ParseError
	assert.False(t, errors.As(err, &perr), "invocation failures are not parse failures")
}
