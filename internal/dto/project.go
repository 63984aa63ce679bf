package dto

// VideoRequest is one playlist entry supplied by the caller in playback order.
// Duration accepts either minutes or a clock string; exactly one must be set.
type VideoRequest struct {
	Title           string `json:"title" validate:"required"`
	URL             string `json:"url" validate:"required,url"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=0"`
	Duration        string `json:"duration" validate:"omitempty"`
}

// TimeSlotRequest is a daily recurring window ("15:04" clock values).
type TimeSlotRequest struct {
	Start string `json:"start" validate:"required,len=5"`
	End   string `json:"end" validate:"required,len=5"`
}

// CreateProjectRequest creates a project together with its ordered video list.
type CreateProjectRequest struct {
	Title        string            `json:"title" validate:"required"`
	PlaylistURL  string            `json:"playlist_url" validate:"required,url"`
	StartDate    string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string            `json:"end_date" validate:"required,datetime=2006-01-02"`
	DaysSelected []int             `json:"days_selected" validate:"required,min=1,dive,min=0,max=6"`
	TimeSlots    []TimeSlotRequest `json:"time_slots" validate:"required,min=1,dive"`
	Videos       []VideoRequest    `json:"videos" validate:"required,min=1,dive"`
}

// UpdateProjectRequest changes the schedule configuration of an existing project.
type UpdateProjectRequest struct {
	Title        string            `json:"title" validate:"required"`
	StartDate    string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string            `json:"end_date" validate:"required,datetime=2006-01-02"`
	DaysSelected []int             `json:"days_selected" validate:"required,min=1,dive,min=0,max=6"`
	TimeSlots    []TimeSlotRequest `json:"time_slots" validate:"required,min=1,dive"`
}
