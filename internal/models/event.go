package models

import "time"

// ScheduledEvent is one generated calendar segment. Events are transient:
// they are rebuilt in full from the project configuration on every request
// and never persisted, so the ID must be stable for identical inputs.
type ScheduledEvent struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	DurationMinutes  int       `json:"duration_minutes"`
	ScheduledStart   time.Time `json:"scheduled_start"`
	Completed        bool      `json:"completed"`
	SourceVideoIndex int       `json:"source_video_index"`
	PartNumber       int       `json:"part_number"`
}
