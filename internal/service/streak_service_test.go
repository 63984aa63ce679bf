package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadishkansal/stream-calendar-api/internal/models"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
)

type streakProjectRepoStub struct {
	project      *models.Project
	err          error
	updatedFlags map[int]bool
	updatedTimes map[int]time.Time
}

func (s *streakProjectRepoStub) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.project, nil
}

func (s *streakProjectRepoStub) UpdateCompletion(ctx context.Context, id string, flags map[int]bool, timestamps map[int]time.Time) error {
	s.updatedFlags = flags
	s.updatedTimes = timestamps
	return nil
}

type eventSourceStub struct {
	events      []models.ScheduledEvent
	invalidated []string
}

func (s *eventSourceStub) Events(ctx context.Context, projectID string) ([]models.ScheduledEvent, bool, error) {
	return s.events, false, nil
}

func (s *eventSourceStub) Invalidate(ctx context.Context, projectID string) {
	s.invalidated = append(s.invalidated, projectID)
}

func eventOn(day time.Time, index int, completed bool) models.ScheduledEvent {
	return models.ScheduledEvent{
		Title:            "Video",
		DurationMinutes:  30,
		ScheduledStart:   day.Add(9 * time.Hour),
		Completed:        completed,
		SourceVideoIndex: index,
		PartNumber:       1,
	}
}

func TestBuildDayCompletionsEligibilityBoundary(t *testing.T) {
	day := date(2025, time.January, 6)
	events := []models.ScheduledEvent{
		eventOn(day, 0, true),
		eventOn(day, 1, false),
	}

	days := buildDayCompletions(events, nil)
	entry, ok := days["2025-01-06"]
	require.True(t, ok)
	assert.Equal(t, 2, entry.TotalVideos)
	assert.Equal(t, 1, entry.CompletedOnSameDay)
	assert.Equal(t, 50.0, entry.CompletionPercentage)
	assert.True(t, entry.IsStreakEligible, "exactly 50 percent is eligible")

	// One of three completed is below the boundary.
	events = append(events, eventOn(day, 2, false))
	days = buildDayCompletions(events, nil)
	assert.False(t, days["2025-01-06"].IsStreakEligible)
}

func TestBuildDayCompletionsTimestampMustMatchDay(t *testing.T) {
	day := date(2025, time.January, 6)
	events := []models.ScheduledEvent{eventOn(day, 0, true)}

	// Missing timestamp counts as same-day.
	days := buildDayCompletions(events, nil)
	assert.Equal(t, 1, days["2025-01-06"].CompletedOnSameDay)

	// Same-day timestamp counts.
	days = buildDayCompletions(events, map[int]time.Time{0: day.Add(20 * time.Hour)})
	assert.Equal(t, 1, days["2025-01-06"].CompletedOnSameDay)

	// A completion recorded the next day does not.
	days = buildDayCompletions(events, map[int]time.Time{0: day.AddDate(0, 0, 1).Add(time.Hour)})
	assert.Equal(t, 0, days["2025-01-06"].CompletedOnSameDay)
	assert.False(t, days["2025-01-06"].IsStreakEligible)
}

func TestBuildDayCompletionsCountsSplitPartsIndividually(t *testing.T) {
	day := date(2025, time.January, 6)
	events := []models.ScheduledEvent{
		eventOn(day, 0, true),
		{Title: "Video (Part 2)", DurationMinutes: 10, ScheduledStart: day.Add(10 * time.Hour), Completed: true, SourceVideoIndex: 0, PartNumber: 2},
	}

	days := buildDayCompletions(events, nil)
	assert.Equal(t, 2, days["2025-01-06"].TotalVideos)
}

func TestCurrentStreakConsecutiveRun(t *testing.T) {
	// Mon/Wed/Fri schedule, three consecutive eligible days ending today (Fri).
	weekdays := map[int]bool{1: true, 3: true, 5: true}
	days := map[string]models.DayCompletion{
		"2025-01-06": {Date: "2025-01-06", IsStreakEligible: true},
		"2025-01-08": {Date: "2025-01-08", IsStreakEligible: true},
		"2025-01-10": {Date: "2025-01-10", IsStreakEligible: true},
	}

	streak := currentStreak(days, weekdays, date(2025, time.January, 10))
	assert.Equal(t, 3, streak)
}

func TestCurrentStreakResetOnIneligibleDay(t *testing.T) {
	weekdays := map[int]bool{1: true, 3: true, 5: true}
	days := map[string]models.DayCompletion{
		"2025-01-06": {Date: "2025-01-06", IsStreakEligible: true},
		"2025-01-08": {Date: "2025-01-08", IsStreakEligible: false},
		"2025-01-10": {Date: "2025-01-10", IsStreakEligible: true},
	}

	streak := currentStreak(days, weekdays, date(2025, time.January, 10))
	assert.Equal(t, 1, streak)
}

// A scheduled today that is not yet eligible falls back to evaluating the
// previous scheduled day instead of being treated as pending.
func TestCurrentStreakTodayPendingFallsBack(t *testing.T) {
	weekdays := map[int]bool{1: true, 3: true, 5: true}
	days := map[string]models.DayCompletion{
		"2025-01-06": {Date: "2025-01-06", IsStreakEligible: true},
		"2025-01-08": {Date: "2025-01-08", IsStreakEligible: true},
	}

	// Friday Jan 10 is scheduled but has no eligible entry yet.
	streak := currentStreak(days, weekdays, date(2025, time.January, 10))
	assert.Equal(t, 2, streak)
}

func TestCurrentStreakUnscheduledTodayUsesPreviousScheduledDay(t *testing.T) {
	weekdays := map[int]bool{1: true, 3: true, 5: true}
	days := map[string]models.DayCompletion{
		"2025-01-10": {Date: "2025-01-10", IsStreakEligible: true},
	}

	// Saturday Jan 11 is not scheduled; Friday anchors the streak.
	streak := currentStreak(days, weekdays, date(2025, time.January, 11))
	assert.Equal(t, 1, streak)
}

func TestCurrentStreakZeroCases(t *testing.T) {
	weekdays := map[int]bool{1: true}
	assert.Equal(t, 0, currentStreak(nil, weekdays, date(2025, time.January, 6)))
	assert.Equal(t, 0, currentStreak(map[string]models.DayCompletion{}, map[int]bool{}, date(2025, time.January, 6)))

	// Previous scheduled day exists but was ineligible.
	days := map[string]models.DayCompletion{
		"2025-01-06": {Date: "2025-01-06", IsStreakEligible: false},
	}
	assert.Equal(t, 0, currentStreak(days, weekdays, date(2025, time.January, 7)))
}

func TestStreakServiceSummary(t *testing.T) {
	day := date(2025, time.January, 6)
	project := weekdayProject(
		[]models.TimeSlot{{Start: "09:00", End: "10:00"}},
		[]int{1},
		day, day,
	)
	repo := &streakProjectRepoStub{project: project}
	source := &eventSourceStub{events: []models.ScheduledEvent{eventOn(day, 0, true)}}
	service := NewStreakService(repo, source, &videoReaderStub{}, nil)

	resp, err := service.Summary(context.Background(), "p1", day)
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.ProjectID)
	assert.Equal(t, 1, resp.CurrentStreak)
	assert.True(t, resp.Days["2025-01-06"].IsStreakEligible)
}

func TestStreakServiceSummaryProjectNotFound(t *testing.T) {
	service := NewStreakService(&streakProjectRepoStub{err: sql.ErrNoRows}, &eventSourceStub{}, &videoReaderStub{}, nil)

	_, err := service.Summary(context.Background(), "missing", time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStreakServiceSetCompletion(t *testing.T) {
	day := date(2025, time.January, 6)
	project := weekdayProject(
		[]models.TimeSlot{{Start: "09:00", End: "10:00"}},
		[]int{1},
		day, day,
	)
	repo := &streakProjectRepoStub{project: project}
	source := &eventSourceStub{}
	videos := &videoReaderStub{videos: []models.Video{{Title: "A", DurationMinutes: 30}, {Title: "B", DurationMinutes: 30}}}
	service := NewStreakService(repo, source, videos, nil)

	at := day.Add(21 * time.Hour)
	err := service.SetCompletion(context.Background(), "p1", 1, true, at)
	require.NoError(t, err)
	assert.True(t, repo.updatedFlags[1])
	assert.Equal(t, at.UTC(), repo.updatedTimes[1])
	assert.Equal(t, []string{"p1"}, source.invalidated)

	// Clearing removes both flag and timestamp.
	project.CompletionFlags = map[int]bool{1: true}
	project.CompletionTimestamps = map[int]time.Time{1: at}
	err = service.SetCompletion(context.Background(), "p1", 1, false, at)
	require.NoError(t, err)
	_, hasFlag := repo.updatedFlags[1]
	assert.False(t, hasFlag)
	_, hasTime := repo.updatedTimes[1]
	assert.False(t, hasTime)
}

func TestStreakServiceSetCompletionIndexOutOfRange(t *testing.T) {
	day := date(2025, time.January, 6)
	project := weekdayProject(
		[]models.TimeSlot{{Start: "09:00", End: "10:00"}},
		[]int{1},
		day, day,
	)
	repo := &streakProjectRepoStub{project: project}
	videos := &videoReaderStub{videos: []models.Video{{Title: "A", DurationMinutes: 30}}}
	service := NewStreakService(repo, &eventSourceStub{}, videos, nil)

	err := service.SetCompletion(context.Background(), "p1", 5, true, time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
