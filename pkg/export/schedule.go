// Package export renders a generated viewing schedule into downloadable
// documents. Renderers consume the Schedule type below rather than raw engine
// output so the column layout lives in one place.
package export

import (
	"strconv"
	"time"
)

// Entry is one scheduled viewing segment; split videos appear once per part.
type Entry struct {
	Date            string
	Start           string
	Title           string
	DurationMinutes int
	Part            int
	Completed       bool
}

// Schedule is the document handed to the renderers.
type Schedule struct {
	ProjectTitle string
	GeneratedAt  time.Time
	Entries      []Entry
}

// TotalMinutes sums the runtime covered by all entries.
func (s Schedule) TotalMinutes() int {
	total := 0
	for _, e := range s.Entries {
		total += e.DurationMinutes
	}
	return total
}

// scheduleColumns is the shared column layout for both renderers.
var scheduleColumns = []string{"Date", "Start", "Title", "Duration (min)", "Part", "Completed"}

func (e Entry) record() []string {
	completed := "no"
	if e.Completed {
		completed = "yes"
	}
	return []string{
		e.Date,
		e.Start,
		e.Title,
		strconv.Itoa(e.DurationMinutes),
		strconv.Itoa(e.Part),
		completed,
	}
}
