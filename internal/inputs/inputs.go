// Package inputs expands command line paths and glob patterns into the list
// of audio files to split.
package inputs

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand resolves each pattern. A directory expands to every file below it
// whose extension is in exts; anything else is treated as a doublestar glob.
// "~" is expanded, and the result is de-duplicated in first-seen order.
func Expand(patterns []string, exts []string) []string {
	home, _ := os.UserHomeDir()

	var files []string
	for _, input := range patterns {
		processedInput := input
		if input == "~" {
			processedInput = home
		} else if strings.HasPrefix(input, "~/") {
			processedInput = filepath.Join(home, input[2:])
		}

		var pattern string
		info, err := os.Stat(processedInput)
		if err == nil && info.IsDir() {
			pattern = filepath.Join(processedInput, "**/*."+extGroup(exts))
		} else {
			pattern = processedInput
		}

		fsys := os.DirFS(".")
		globPattern := filepath.ToSlash(pattern)
		isAbs := filepath.IsAbs(pattern)
		if isAbs {
			fsys = os.DirFS("/")
			rel, err := filepath.Rel("/", pattern)
			if err != nil {
				log.Printf("警告: パス '%s' の処理に失敗しました: %v", pattern, err)
				continue
			}
			globPattern = filepath.ToSlash(rel)
		}

		matches, err := doublestar.Glob(fsys, globPattern, doublestar.WithFilesOnly())
		if err != nil {
			log.Printf("警告: パターン '%s' の検索に失敗しました: %v", pattern, err)
			continue
		}

		for _, m := range matches {
			if isAbs {
				m = filepath.Join("/", m)
			}
			files = append(files, filepath.FromSlash(m))
		}
	}

	seen := make(map[string]bool, len(files))
	var result []string
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			result = append(result, f)
		}
	}
	return result
}

// HasExt reports whether name ends in one of exts, case-insensitively.
// exts are given without the leading dot.
func HasExt(name string, exts []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

// extGroup builds a doublestar alternation like {m4b,M4B,mp3,MP3}.
func extGroup(exts []string) string {
	var alts []string
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		if e == "" {
			continue
		}
		alts = append(alts, strings.ToLower(e), strings.ToUpper(e))
	}
	return "{" + strings.Join(alts, ",") + "}"
}
