package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aadishkansal/stream-calendar-api/internal/dto"
	"github.com/aadishkansal/stream-calendar-api/internal/models"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
)

const (
	dayKeyLayout = "2006-01-02"

	// maxStreakLookback bounds the backward walk over eligibility history.
	maxStreakLookback = 365

	// maxWeekdayScan limits how many calendar days we step back when looking
	// for the previous scheduled weekday.
	maxWeekdayScan = 7
)

type streakProjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	UpdateCompletion(ctx context.Context, id string, flags map[int]bool, timestamps map[int]time.Time) error
}

type scheduleEventSource interface {
	Events(ctx context.Context, projectID string) ([]models.ScheduledEvent, bool, error)
	Invalidate(ctx context.Context, projectID string)
}

// StreakService derives per-day completion verdicts and the current streak
// from a project's generated schedule.
type StreakService struct {
	projects streakProjectRepository
	schedule scheduleEventSource
	videos   scheduleVideoReader
	logger   *zap.Logger
}

// NewStreakService constructs a streak service.
func NewStreakService(projects streakProjectRepository, schedule scheduleEventSource, videos scheduleVideoReader, logger *zap.Logger) *StreakService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreakService{projects: projects, schedule: schedule, videos: videos, logger: logger}
}

// Summary computes the completion map and current streak as of the given date.
func (s *StreakService) Summary(ctx context.Context, projectID string, today time.Time) (*dto.StreakResponse, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	events, _, err := s.schedule.Events(ctx, projectID)
	if err != nil {
		return nil, err
	}

	days := buildDayCompletions(events, project.CompletionTimestamps)
	streak := currentStreak(days, project.SelectedWeekdaySet(), today)

	return &dto.StreakResponse{ProjectID: projectID, Days: days, CurrentStreak: streak}, nil
}

// SetCompletion records or clears the completed flag for one source video and
// drops the cached schedule so the change is reflected on the next read.
func (s *StreakService) SetCompletion(ctx context.Context, projectID string, videoIndex int, completed bool, at time.Time) error {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	videos, err := s.videos.ListByProject(ctx, projectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project videos")
	}
	if videoIndex < 0 || videoIndex >= len(videos) {
		return appErrors.Clone(appErrors.ErrValidation, "video index out of range")
	}

	flags := make(map[int]bool, len(project.CompletionFlags)+1)
	for k, v := range project.CompletionFlags {
		flags[k] = v
	}
	timestamps := make(map[int]time.Time, len(project.CompletionTimestamps)+1)
	for k, v := range project.CompletionTimestamps {
		timestamps[k] = v
	}

	if completed {
		flags[videoIndex] = true
		timestamps[videoIndex] = at.UTC()
	} else {
		delete(flags, videoIndex)
		delete(timestamps, videoIndex)
	}

	if err := s.projects.UpdateCompletion(ctx, projectID, flags, timestamps); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update completion state")
	}

	s.schedule.Invalidate(ctx, projectID)
	return nil
}

// --- Streak derivation ---

// buildDayCompletions folds the event list into per-day completion records.
// Split parts count individually: the day total is a count of scheduled
// segments, not of distinct source videos.
func buildDayCompletions(events []models.ScheduledEvent, timestamps map[int]time.Time) map[string]models.DayCompletion {
	days := make(map[string]models.DayCompletion)
	for _, ev := range events {
		key := ev.ScheduledStart.Format(dayKeyLayout)
		entry := days[key]
		entry.Date = key
		entry.TotalVideos++
		if ev.Completed && completedSameDay(ev, timestamps) {
			entry.CompletedOnSameDay++
		}
		days[key] = entry
	}
	for key, entry := range days {
		entry.CompletionPercentage = float64(entry.CompletedOnSameDay) / float64(entry.TotalVideos) * 100
		entry.IsStreakEligible = entry.CompletionPercentage >= 50
		days[key] = entry
	}
	return days
}

// completedSameDay reports whether the recorded completion instant falls on
// the event's calendar date. A missing timestamp counts as same-day: the
// timestamp is optional metadata, not a requirement.
func completedSameDay(ev models.ScheduledEvent, timestamps map[int]time.Time) bool {
	ts, ok := timestamps[ev.SourceVideoIndex]
	if !ok {
		return true
	}
	return ts.In(ev.ScheduledStart.Location()).Format(dayKeyLayout) == ev.ScheduledStart.Format(dayKeyLayout)
}

// currentStreak counts consecutive streak-eligible scheduled days ending at
// today or at the most recent scheduled day before it. A today that is
// scheduled but not yet eligible falls back to evaluating the previous
// scheduled day rather than being treated as pending.
func currentStreak(days map[string]models.DayCompletion, weekdays map[int]bool, today time.Time) int {
	if len(weekdays) == 0 {
		return 0
	}

	anchor := dateOnly(today)
	if !weekdays[int(anchor.Weekday())] || !eligibleOn(days, anchor) {
		prev, ok := previousScheduledDay(anchor, weekdays)
		if !ok || !eligibleOn(days, prev) {
			return 0
		}
		anchor = prev
	}

	streak := 1
	for step := 0; step < maxStreakLookback; step++ {
		prev, ok := previousScheduledDay(anchor, weekdays)
		if !ok || !eligibleOn(days, prev) {
			break
		}
		streak++
		anchor = prev
	}
	return streak
}

func eligibleOn(days map[string]models.DayCompletion, day time.Time) bool {
	entry, ok := days[day.Format(dayKeyLayout)]
	return ok && entry.IsStreakEligible
}

// previousScheduledDay walks backward one day at a time until it finds a
// selected weekday, giving up after maxWeekdayScan steps.
func previousScheduledDay(from time.Time, weekdays map[int]bool) (time.Time, bool) {
	day := from
	for i := 0; i < maxWeekdayScan; i++ {
		day = day.AddDate(0, 0, -1)
		if weekdays[int(day.Weekday())] {
			return day, true
		}
	}
	return time.Time{}, false
}
