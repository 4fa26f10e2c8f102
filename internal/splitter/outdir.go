package splitter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// NestedOutDir places each input's chapters in a directory named after the
// input inside base. An empty base keeps the per-run temporary directory.
func NestedOutDir(base, infile string) string {
	if base == "" {
		return ""
	}
	name := filepath.Base(infile)
	return filepath.Join(base, strings.TrimSuffix(name, filepath.Ext(name)))
}

// OutDirAllocator hands out per-input output directories below Base. A
// directory that already exists on disk, or was handed out before, is
// never returned again; "book (2)", "book (3)" and so on are tried instead.
// Inputs with the same name from different folders therefore never share
// output files.
type OutDirAllocator struct {
	Base string

	mu      sync.Mutex
	claimed map[string]bool
}

func NewOutDirAllocator(base string) *OutDirAllocator {
	return &OutDirAllocator{Base: base, claimed: make(map[string]bool)}
}

// For returns the output directory for infile. With an empty Base it
// returns "" so the run creates its own temporary directory.
func (a *OutDirAllocator) For(infile string) string {
	dir := NestedOutDir(a.Base, infile)
	if dir == "" {
		return ""
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.claimed == nil {
		a.claimed = make(map[string]bool)
	}

	candidate := dir
	for n := 2; a.claimed[candidate] || exists(candidate); n++ {
		candidate = fmt.Sprintf("%s (%d)", dir, n)
	}
	a.claimed[candidate] = true
	return candidate
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
