package dto

import (
	"github.com/aadishkansal/stream-calendar-api/internal/models"
)

// StreakResponse returns the per-day completion map and current streak length.
type StreakResponse struct {
	ProjectID     string                          `json:"project_id"`
	Days          map[string]models.DayCompletion `json:"days"`
	CurrentStreak int                             `json:"current_streak"`
}
