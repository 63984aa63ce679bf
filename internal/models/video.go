package models

import (
	"strconv"
	"strings"
	"time"
)

// Video is one playlist entry in playback order.
type Video struct {
	ID              string    `db:"id" json:"id"`
	ProjectID       string    `db:"project_id" json:"project_id"`
	Position        int       `db:"position" json:"position"`
	Title           string    `db:"title" json:"title"`
	URL             string    `db:"url" json:"url"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ParseDurationMinutes converts a "H:MM:SS", "MM:SS" or "SS" clip duration
// into whole minutes, rounding leftover seconds up. Malformed input yields 0,
// which the scheduler treats as unschedulable.
func ParseDurationMinutes(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0
	}

	totalSeconds := 0
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 {
			return 0
		}
		totalSeconds = totalSeconds*60 + value
	}

	minutes := totalSeconds / 60
	if totalSeconds%60 != 0 {
		minutes++
	}
	return minutes
}
