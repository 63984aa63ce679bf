package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadishkansal/stream-calendar-api/internal/models"
)

func TestProjectFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "playlist_url", "start_date", "end_date", "days_selected", "time_slots", "completion_flags", "completion_timestamps", "created_at", "updated_at"}).
		AddRow("p1", "u1", "Go course", "https://example.com/list", now, now.AddDate(0, 1, 0),
			types.JSONText(`[1,3,5]`),
			types.JSONText(`[{"start":"18:00","end":"20:00"}]`),
			types.JSONText(`{"0":true}`),
			types.JSONText(`{}`),
			now, now)
	mock.ExpectQuery("SELECT (.+) FROM projects WHERE id = \\$1 LIMIT 1").
		WithArgs("p1").
		WillReturnRows(rows)

	project, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Go course", project.Title)
	assert.Equal(t, []int{1, 3, 5}, project.DaysSelected)
	require.Len(t, project.TimeSlots, 1)
	assert.Equal(t, "18:00", project.TimeSlots[0].Start)
	assert.True(t, project.CompletionFlags[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(1, 1))

	project := &models.Project{
		ID:           "p1",
		UserID:       "u1",
		Title:        "Go course",
		PlaylistURL:  "https://example.com/list",
		StartDate:    time.Now(),
		EndDate:      time.Now().AddDate(0, 1, 0),
		DaysSelected: []int{1, 3},
		TimeSlots:    []models.TimeSlot{{Start: "18:00", End: "20:00"}},
	}
	err := repo.Create(context.Background(), nil, project)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectUpdateCompletion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET completion_flags = $2, completion_timestamps = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("p1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCompletion(context.Background(), "p1", map[int]bool{2: true}, map[int]time.Time{2: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectListByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "user_id", "title", "playlist_url", "start_date", "end_date", "days_selected", "time_slots", "completion_flags", "completion_timestamps", "created_at", "updated_at"}).
		AddRow("p1", "u1", "Go course", "https://example.com/list", now, now,
			types.JSONText(`[0]`), types.JSONText(`[]`), types.JSONText(`{}`), types.JSONText(`{}`), now, now)
	mock.ExpectQuery("SELECT (.+) FROM projects WHERE user_id = \\$1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WithArgs("u1").
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(countRows)

	projects, total, err := repo.ListByUser(context.Background(), models.ProjectFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), nil, "p1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
