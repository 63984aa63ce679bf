package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aadishkansal/stream-calendar-api/internal/models"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
)

const (
	// maxDayIterations bounds the calendar walk so malformed or multi-year
	// ranges terminate instead of looping; hitting it truncates silently.
	maxDayIterations = 1000

	// minFitRatio is the fraction of a video's remaining runtime that must
	// fit in a slot's leftover capacity before a split part is emitted.
	// Smaller leftovers are abandoned and the video carries to the next slot.
	minFitRatio = 0.8
)

type scheduleProjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type scheduleVideoReader interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Video, error)
}

// ScheduleService generates the calendar event list for a project.
type ScheduleService struct {
	projects scheduleProjectReader
	videos   scheduleVideoReader
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewScheduleService constructs a schedule service.
func NewScheduleService(projects scheduleProjectReader, videos scheduleVideoReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{projects: projects, videos: videos, cache: cache, metrics: metrics, logger: logger}
}

// Events returns the generated schedule for a project. The boolean indicates
// whether the result originated from cache.
func (s *ScheduleService) Events(ctx context.Context, projectID string) ([]models.ScheduledEvent, bool, error) {
	cacheKey := scheduleCacheKey(projectID)
	var cached []models.ScheduledEvent
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get schedule cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	start := time.Now()
	videos, err := s.videos.ListByProject(ctx, projectID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project videos")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("schedule_videos", time.Since(start))
	}

	events := buildScheduleEvents(project, videos)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, events, 0); err != nil {
			s.logger.Warn("cache schedule", zap.Error(err))
		}
	}
	return events, false, nil
}

// Invalidate drops the cached schedule for a project. Best effort.
func (s *ScheduleService) Invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scheduleCacheKey(projectID)); err != nil {
		s.logger.Warn("invalidate schedule cache", zap.String("project_id", projectID), zap.Error(err))
	}
}

func scheduleCacheKey(projectID string) string {
	return "schedule:" + projectID
}

// --- Schedule generation ---

// buildScheduleEvents walks the project's date range day by day and packs the
// ordered video list into the configured time slots. Videos that do not fit a
// slot's remaining capacity are split into numbered parts carried across
// slots and days. The walk is a pure function of its inputs: identical
// project and video data always yield an identical event list.
func buildScheduleEvents(project *models.Project, videos []models.Video) []models.ScheduledEvent {
	events := make([]models.ScheduledEvent, 0)
	if project == nil || len(project.TimeSlots) == 0 || len(videos) == 0 {
		return events
	}

	selected := project.SelectedWeekdaySet()
	if len(selected) == 0 {
		return events
	}

	cursor := newPlaybackCursor(videos)
	day := dateOnly(project.StartDate)
	last := dateOnly(project.EndDate)

	for iter := 0; iter < maxDayIterations && !day.After(last); iter++ {
		if cursor.done() {
			break
		}
		if selected[int(day.Weekday())] {
			for _, slot := range project.TimeSlots {
				if cursor.done() {
					break
				}
				events = cursor.fillSlot(events, project, day, slot)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return events
}

// playbackCursor tracks scheduling progress through the video list, including
// the single in-flight video that may be carried across slot boundaries.
type playbackCursor struct {
	videos    []models.Video
	index     int
	remaining int
	part      int
}

func newPlaybackCursor(videos []models.Video) *playbackCursor {
	return &playbackCursor{videos: videos}
}

// advance pulls the next schedulable video, skipping zero-duration entries
// without consuming slot time.
func (c *playbackCursor) advance() bool {
	for c.index < len(c.videos) {
		if c.videos[c.index].DurationMinutes > 0 {
			c.remaining = c.videos[c.index].DurationMinutes
			c.part = 1
			return true
		}
		c.index++
	}
	return false
}

// done reports whether no schedulable content remains.
func (c *playbackCursor) done() bool {
	if c.remaining > 0 {
		return false
	}
	for i := c.index; i < len(c.videos); i++ {
		if c.videos[i].DurationMinutes > 0 {
			return false
		}
	}
	return true
}

// fillSlot schedules video content into one slot window on the given day and
// returns the extended event list.
func (c *playbackCursor) fillSlot(events []models.ScheduledEvent, project *models.Project, day time.Time, slot models.TimeSlot) []models.ScheduledEvent {
	start, end, ok := slot.Window(day)
	if !ok {
		return events
	}

	slotRemaining := int(end.Sub(start) / time.Minute)
	current := start

	for slotRemaining > 0 {
		if c.remaining == 0 && !c.advance() {
			return events
		}

		if slotRemaining < c.remaining && float64(slotRemaining) < minFitRatio*float64(c.remaining) {
			// Leftover capacity is below the fit threshold: leave the slot
			// unused rather than emit a sliver.
			return events
		}

		chunk := c.remaining
		if slotRemaining < chunk {
			chunk = slotRemaining
		}

		video := c.videos[c.index]
		title := video.Title
		if !(c.part == 1 && chunk == c.remaining) {
			title = fmt.Sprintf("%s (Part %d)", video.Title, c.part)
		}

		events = append(events, models.ScheduledEvent{
			ID:               fmt.Sprintf("%s-%d-%d-%d", project.ID, c.index, c.part, current.Unix()),
			Title:            title,
			DurationMinutes:  chunk,
			ScheduledStart:   current,
			Completed:        project.CompletionFlags[c.index],
			SourceVideoIndex: c.index,
			PartNumber:       c.part,
		})

		current = current.Add(time.Duration(chunk) * time.Minute)
		slotRemaining -= chunk
		c.remaining -= chunk

		if c.remaining == 0 {
			c.index++
			c.part = 0
			continue
		}

		// The video continues into the next slot or day. Any capacity left in
		// this slot is not handed to a different video.
		c.part++
		return events
	}
	return events
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
