package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadishkansal/stream-calendar-api/internal/dto"
	"github.com/aadishkansal/stream-calendar-api/internal/models"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
)

type projectRepoStub struct {
	project *models.Project
	created *models.Project
	updated *models.Project
	deleted []string
	findErr error
}

func (s *projectRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, project *models.Project) error {
	s.created = project
	return nil
}

func (s *projectRepoStub) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.project, nil
}

func (s *projectRepoStub) ListByUser(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	if s.project == nil {
		return nil, 0, nil
	}
	return []models.Project{*s.project}, 1, nil
}

func (s *projectRepoStub) Update(ctx context.Context, project *models.Project) error {
	s.updated = project
	return nil
}

func (s *projectRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type videoRepoStub struct {
	videos  []models.Video
	created []models.Video
	cleared []string
}

func (s *videoRepoStub) BulkCreate(ctx context.Context, exec sqlx.ExtContext, videos []models.Video) error {
	s.created = videos
	return nil
}

func (s *videoRepoStub) ListByProject(ctx context.Context, projectID string) ([]models.Video, error) {
	return s.videos, nil
}

func (s *videoRepoStub) DeleteByProject(ctx context.Context, exec sqlx.ExtContext, projectID string) error {
	s.cleared = append(s.cleared, projectID)
	return nil
}

type invalidatorStub struct {
	calls []string
}

func (s *invalidatorStub) Invalidate(ctx context.Context, projectID string) {
	s.calls = append(s.calls, projectID)
}

type txProviderMock struct {
	db *sqlx.DB
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func validCreateRequest() dto.CreateProjectRequest {
	return dto.CreateProjectRequest{
		Title:        "Go course",
		PlaylistURL:  "https://example.com/list",
		StartDate:    "2025-01-06",
		EndDate:      "2025-02-28",
		DaysSelected: []int{5, 1, 3, 3},
		TimeSlots:    []dto.TimeSlotRequest{{Start: "18:00", End: "20:00"}},
		Videos: []dto.VideoRequest{
			{Title: "Intro", URL: "https://example.com/v1", DurationMinutes: 30},
			{Title: "Basics", URL: "https://example.com/v2", Duration: "1:05:30"},
		},
	}
}

func TestProjectServiceCreate(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	projects := &projectRepoStub{}
	videos := &videoRepoStub{}
	service := NewProjectService(projects, videos, nil, tx, nil, nil)

	project, err := service.Create(context.Background(), "u1", validCreateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, "u1", project.UserID)
	assert.Equal(t, []int{1, 3, 5}, project.DaysSelected, "weekdays are deduplicated and sorted")

	require.Len(t, videos.created, 2)
	assert.Equal(t, 0, videos.created[0].Position)
	assert.Equal(t, 30, videos.created[0].DurationMinutes)
	assert.Equal(t, 66, videos.created[1].DurationMinutes, "1:05:30 rounds up to 66 minutes")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectServiceCreateInvalidDates(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	service := NewProjectService(&projectRepoStub{}, &videoRepoStub{}, nil, tx, nil, nil)

	req := validCreateRequest()
	req.StartDate = "2025-02-28"
	req.EndDate = "2025-01-06"

	_, err := service.Create(context.Background(), "u1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProjectServiceCreateInvalidSlot(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	service := NewProjectService(&projectRepoStub{}, &videoRepoStub{}, nil, tx, nil, nil)

	req := validCreateRequest()
	req.TimeSlots = []dto.TimeSlotRequest{{Start: "25:99", End: "26:00"}}

	_, err := service.Create(context.Background(), "u1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProjectServiceGetEnforcesOwnership(t *testing.T) {
	owned := &models.Project{ID: "p1", UserID: "u1"}
	service := NewProjectService(&projectRepoStub{project: owned}, &videoRepoStub{}, nil, nil, nil, nil)

	project, err := service.Get(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", project.ID)

	_, err = service.Get(context.Background(), "intruder", "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestProjectServiceGetNotFound(t *testing.T) {
	service := NewProjectService(&projectRepoStub{findErr: sql.ErrNoRows}, &videoRepoStub{}, nil, nil, nil, nil)

	_, err := service.Get(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProjectServiceUpdateInvalidatesSchedule(t *testing.T) {
	owned := &models.Project{ID: "p1", UserID: "u1"}
	projects := &projectRepoStub{project: owned}
	invalidator := &invalidatorStub{}
	service := NewProjectService(projects, &videoRepoStub{}, invalidator, nil, nil, nil)

	req := dto.UpdateProjectRequest{
		Title:        "Renamed",
		StartDate:    "2025-01-06",
		EndDate:      "2025-01-31",
		DaysSelected: []int{2},
		TimeSlots:    []dto.TimeSlotRequest{{Start: "07:00", End: "08:00"}},
	}
	project, err := service.Update(context.Background(), "u1", "p1", req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", project.Title)
	assert.Equal(t, []int{2}, project.DaysSelected)
	assert.Equal(t, []string{"p1"}, invalidator.calls)
	require.NotNil(t, projects.updated)
}

func TestProjectServiceDelete(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	owned := &models.Project{ID: "p1", UserID: "u1"}
	projects := &projectRepoStub{project: owned}
	videos := &videoRepoStub{}
	invalidator := &invalidatorStub{}
	service := NewProjectService(projects, videos, invalidator, tx, nil, nil)

	err := service.Delete(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, videos.cleared)
	assert.Equal(t, []string{"p1"}, projects.deleted)
	assert.Equal(t, []string{"p1"}, invalidator.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectServiceList(t *testing.T) {
	owned := &models.Project{ID: "p1", UserID: "u1", CreatedAt: time.Now()}
	service := NewProjectService(&projectRepoStub{project: owned}, &videoRepoStub{}, nil, nil, nil, nil)

	projects, pagination, err := service.List(context.Background(), models.ProjectFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}
