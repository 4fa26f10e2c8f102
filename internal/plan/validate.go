package plan

import (
	"errors"
	"log"
	"math"

	"github.com/mt4110/chapsplit/internal/probe"
)

// ErrNoChapters is returned when the input has no usable chapters.
var ErrNoChapters = errors.New("no chapters")

// Dropped records a chapter excluded from the work plan.
type Dropped struct {
	Chapter probe.Chapter
	Reason  string
}

// Validated is the chapter set that survives validation.
type Validated struct {
	Chapters []probe.Chapter
	Dropped  []Dropped
	// MaxID is the largest id among Chapters. Dropped chapters never count.
	MaxID int64
}

// Validate drops chapters whose duration is not a positive finite number,
// and chapters that reuse an id already seen. Input order is preserved. Each drop is
// logged as a warning; an empty result is ErrNoChapters.
func Validate(chapters []probe.Chapter) (Validated, error) {
	var v Validated
	seen := make(map[int64]bool, len(chapters))

	for _, ch := range chapters {
		// Written so NaN and infinite durations are dropped too.
		if d := ch.Duration(); !(d > 0) || math.IsInf(d, 0) {
			log.Printf("WARNING: chapter %d duration is zero or negative (start: %s, end: %s), skipping...",
				ch.ID, ch.StartTime, ch.EndTime)
			v.Dropped = append(v.Dropped, Dropped{Chapter: ch, Reason: "non-positive duration"})
			continue
		}
		if seen[ch.ID] {
			log.Printf("WARNING: chapter id %d appears more than once (start: %s, end: %s), skipping...",
				ch.ID, ch.StartTime, ch.EndTime)
			v.Dropped = append(v.Dropped, Dropped{Chapter: ch, Reason: "duplicate id"})
			continue
		}
		seen[ch.ID] = true

		if len(v.Chapters) == 0 || ch.ID > v.MaxID {
			v.MaxID = ch.ID
		}
		v.Chapters = append(v.Chapters, ch)
	}

	if len(v.Chapters) == 0 {
		return v, ErrNoChapters
	}
	return v, nil
}
