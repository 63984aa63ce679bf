package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/aadishkansal/stream-calendar-api/internal/dto"
	"github.com/aadishkansal/stream-calendar-api/internal/models"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type projectRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	ListByUser(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type projectVideoRepository interface {
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, videos []models.Video) error
	ListByProject(ctx context.Context, projectID string) ([]models.Video, error)
	DeleteByProject(ctx context.Context, exec sqlx.ExtContext, projectID string) error
}

type scheduleInvalidator interface {
	Invalidate(ctx context.Context, projectID string)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ProjectService manages playlist-project lifecycle.
type ProjectService struct {
	projects  projectRepository
	videos    projectVideoRepository
	schedule  scheduleInvalidator
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(projects projectRepository, videos projectVideoRepository, schedule scheduleInvalidator, tx txProvider, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{projects: projects, videos: videos, schedule: schedule, tx: tx, validator: validate, logger: logger}
}

// Create stores a project together with its ordered video list.
func (s *ProjectService) Create(ctx context.Context, userID string, req dto.CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	slots, err := parseTimeSlots(req.TimeSlots)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		ID:                   uuid.NewString(),
		UserID:               userID,
		Title:                req.Title,
		PlaylistURL:          req.PlaylistURL,
		StartDate:            startDate,
		EndDate:              endDate,
		DaysSelected:         normalizeWeekdays(req.DaysSelected),
		TimeSlots:            slots,
		CompletionFlags:      map[int]bool{},
		CompletionTimestamps: map[int]time.Time{},
	}

	videos := make([]models.Video, 0, len(req.Videos))
	for i, item := range req.Videos {
		duration := item.DurationMinutes
		if duration == 0 && item.Duration != "" {
			duration = models.ParseDurationMinutes(item.Duration)
		}
		videos = append(videos, models.Video{
			ID:              uuid.NewString(),
			ProjectID:       project.ID,
			Position:        i,
			Title:           item.Title,
			URL:             item.URL,
			DurationMinutes: duration,
		})
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.projects.Create(ctx, tx, project); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
		return nil, err
	}
	if err = s.videos.BulkCreate(ctx, tx, videos); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store playlist videos")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit project transaction")
		return nil, err
	}

	return project, nil
}

// Get loads a project owned by the given user.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := s.loadOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return project, nil
}

// List returns the user's projects with pagination metadata.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	projects, total, err := s.projects.ListByUser(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return projects, pagination, nil
}

// Update replaces the schedule configuration of an existing project.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, req dto.UpdateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	project, err := s.loadOwned(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	slots, err := parseTimeSlots(req.TimeSlots)
	if err != nil {
		return nil, err
	}

	project.Title = req.Title
	project.StartDate = startDate
	project.EndDate = endDate
	project.DaysSelected = normalizeWeekdays(req.DaysSelected)
	project.TimeSlots = slots

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	if s.schedule != nil {
		s.schedule.Invalidate(ctx, projectID)
	}
	return project, nil
}

// Delete removes a project and its derived cache entries.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	if _, err := s.loadOwned(ctx, userID, projectID); err != nil {
		return err
	}
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.videos.DeleteByProject(ctx, tx, projectID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete playlist videos")
		return err
	}
	if err = s.projects.Delete(ctx, tx, projectID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit project transaction")
		return err
	}
	if s.schedule != nil {
		s.schedule.Invalidate(ctx, projectID)
	}
	return nil
}

// Videos returns the ordered playlist of a project owned by the user.
func (s *ProjectService) Videos(ctx context.Context, userID, projectID string) ([]models.Video, error) {
	if _, err := s.loadOwned(ctx, userID, projectID); err != nil {
		return nil, err
	}
	videos, err := s.videos.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list project videos")
	}
	return videos, nil
}

func (s *ProjectService) loadOwned(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if project.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "project belongs to another user")
	}
	return project, nil
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.ParseInLocation(dateLayout, start, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	endDate, err := time.ParseInLocation(dateLayout, end, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	return startDate, endDate, nil
}

func parseTimeSlots(items []dto.TimeSlotRequest) ([]models.TimeSlot, error) {
	slots := make([]models.TimeSlot, 0, len(items))
	for _, item := range items {
		slot := models.TimeSlot{Start: item.Start, End: item.End}
		if _, _, ok := slot.Window(time.Now()); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time slot %s-%s", item.Start, item.End))
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func normalizeWeekdays(days []int) []int {
	unique := make(map[int]struct{})
	for _, day := range days {
		if day < 0 || day > 6 {
			continue
		}
		unique[day] = struct{}{}
	}
	result := make([]int, 0, len(unique))
	for day := range unique {
		result = append(result, day)
	}
	sort.Ints(result)
	return result
}
