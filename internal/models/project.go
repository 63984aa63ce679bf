package models

import (
	"time"
)

// TimeSlot is a recurring daily window expressed as minute-precision clock times.
// An end at or before the start means the window runs into the next calendar day.
type TimeSlot struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// clockLayout is the accepted wall-clock format for slot boundaries.
const clockLayout = "15:04"

// Window resolves the slot to absolute start/end instants on the given day.
// It returns false when either clock value cannot be parsed.
func (s TimeSlot) Window(day time.Time) (time.Time, time.Time, bool) {
	startClock, err := time.Parse(clockLayout, s.Start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endClock, err := time.Parse(clockLayout, s.End)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), startClock.Hour(), startClock.Minute(), 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), endClock.Hour(), endClock.Minute(), 0, 0, day.Location())
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, true
}

// Project is the scheduling configuration a user created for one playlist.
// Weekdays follow time.Weekday numbering (0=Sunday .. 6=Saturday).
type Project struct {
	ID                   string            `json:"id"`
	UserID               string            `json:"user_id"`
	Title                string            `json:"title"`
	PlaylistURL          string            `json:"playlist_url"`
	StartDate            time.Time         `json:"start_date"`
	EndDate              time.Time         `json:"end_date"`
	DaysSelected         []int             `json:"days_selected"`
	TimeSlots            []TimeSlot        `json:"time_slots"`
	CompletionFlags      map[int]bool      `json:"completion_flags"`
	CompletionTimestamps map[int]time.Time `json:"completion_timestamps"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// SelectedWeekdaySet returns the weekday selection as a lookup set.
func (p *Project) SelectedWeekdaySet() map[int]bool {
	set := make(map[int]bool, len(p.DaysSelected))
	for _, day := range p.DaysSelected {
		if day >= 0 && day <= 6 {
			set[day] = true
		}
	}
	return set
}

// ProjectFilter captures criteria for listing projects.
type ProjectFilter struct {
	UserID   string
	Page     int
	PageSize int
}
