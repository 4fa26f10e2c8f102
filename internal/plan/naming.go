package plan

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// InputError reports an input path that cannot produce output names.
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %q: %s", e.Path, e.Reason)
}

// SplitName returns the base name (without extension) and the extension
// (without leading dot) of infile. Either being empty is an *InputError.
func SplitName(infile string) (base, ext string, err error) {
	name := filepath.Base(infile)
	dotExt := filepath.Ext(name)
	base = strings.TrimSuffix(name, dotExt)
	ext = strings.TrimPrefix(dotExt, ".")

	if base == "" || ext == "" || name == "." || name == string(filepath.Separator) {
		return "", "", &InputError{Path: infile, Reason: "basename or file extension is empty"}
	}
	return base, ext, nil
}

// Namer derives per-chapter output file names of the form
//
//	ch {padded id} - {label}.{ext}
//
// The padded id is always present, so names are unique per chapter id
// whatever the labels are.
type Namer struct {
	Base     string
	Ext      string
	Width    int
	UseTitle bool
}

// NewNamer builds a Namer for infile whose ids are padded to the digit
// count of maxID.
func NewNamer(infile string, maxID int64, useTitle bool) (Namer, error) {
	base, ext, err := SplitName(infile)
	if err != nil {
		return Namer{}, err
	}
	return Namer{Base: base, Ext: ext, Width: PadWidth(maxID), UseTitle: useTitle}, nil
}

// PadWidth is the number of decimal digits in maxID, at least 1.
func PadWidth(maxID int64) int {
	if maxID < 0 {
		maxID = -maxID
	}
	return len(strconv.FormatInt(maxID, 10))
}

// PaddedID renders id zero-padded to the namer's width.
func (n Namer) PaddedID(id int64) string {
	return fmt.Sprintf("%0*d", n.Width, id)
}

// Label is the title when titles are enabled and usable, else the base name.
func (n Namer) Label(title string) string {
	if n.UseTitle {
		if t := FilenameTitle(title); t != "" {
			return t
		}
	}
	return n.Base
}

// FileName returns the output file name for one chapter.
func (n Namer) FileName(id int64, title string) string {
	return fmt.Sprintf("ch %s - %s.%s", n.PaddedID(id), n.Label(title), n.Ext)
}

// FilenameTitle makes a chapter title safe to embed in a single path
// element. The title is NFC normalized and trimmed, then path separators and
// control characters become '_'. Everything else passes through.
func FilenameTitle(title string) string {
	title = strings.TrimSpace(norm.NFC.String(title))
	return strings.Map(func(r rune) rune {
		if r == '/' || r == filepath.Separator || r == 0 || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, title)
}
