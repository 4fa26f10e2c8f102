package updater

import (
	"bytes"
	"log"
	"path/filepath"
	"strings"
	"testing"
)

func TestFirstLine(t *testing.T) {
	out := []byte("ffmpeg version 7.1 Copyright (c) 2000-2024\nbuilt with clang\n")
	if got := FirstLine(out); got != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Errorf("FirstLine = %q", got)
	}
	if got := FirstLine(nil); got != "" {
		t.Errorf("FirstLine(nil) = %q", got)
	}
}

func TestCheckTools_Missing(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	missing := filepath.Join(t.TempDir(), "no-ffprobe")
	CheckTools(missing, missing)

	if n := strings.Count(buf.String(), "no-ffprobe"); n != 2 {
		t.Errorf("expected two warnings, got %d: %s", n, buf.String())
	}
}
