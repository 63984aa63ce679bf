package models

// DayCompletion is the derived pass/fail record for one scheduled day.
// TotalVideos counts scheduled segments, so split parts count individually.
type DayCompletion struct {
	Date                 string  `json:"date"`
	TotalVideos          int     `json:"total_videos"`
	CompletedOnSameDay   int     `json:"completed_on_same_day"`
	CompletionPercentage float64 `json:"completion_percentage"`
	IsStreakEligible     bool    `json:"is_streak_eligible"`
}

// StreakSummary reports per-day completion plus the consecutive-day streak
// ending at (or just before) the evaluation date.
type StreakSummary struct {
	Days          map[string]DayCompletion `json:"days"`
	CurrentStreak int                      `json:"current_streak"`
}
