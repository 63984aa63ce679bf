package dto

import (
	"github.com/aadishkansal/stream-calendar-api/internal/models"
)

// ScheduleResponse returns the generated calendar for a project.
type ScheduleResponse struct {
	ProjectID string                  `json:"project_id"`
	Events    []models.ScheduledEvent `json:"events"`
}

// SetCompletionRequest toggles the completed flag of one source video.
type SetCompletionRequest struct {
	Completed bool `json:"completed"`
}
