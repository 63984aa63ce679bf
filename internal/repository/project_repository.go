package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/aadishkansal/stream-calendar-api/internal/models"
)

// projectRow mirrors the projects table where schedule configuration is
// stored in JSONB columns.
type projectRow struct {
	ID                   string         `db:"id"`
	UserID               string         `db:"user_id"`
	Title                string         `db:"title"`
	PlaylistURL          string         `db:"playlist_url"`
	StartDate            time.Time      `db:"start_date"`
	EndDate              time.Time      `db:"end_date"`
	DaysSelected         types.JSONText `db:"days_selected"`
	TimeSlots            types.JSONText `db:"time_slots"`
	CompletionFlags      types.JSONText `db:"completion_flags"`
	CompletionTimestamps types.JSONText `db:"completion_timestamps"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (row *projectRow) toModel() (*models.Project, error) {
	project := &models.Project{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		PlaylistURL: row.PlaylistURL,
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if len(row.DaysSelected) > 0 {
		if err := json.Unmarshal(row.DaysSelected, &project.DaysSelected); err != nil {
			return nil, fmt.Errorf("decode days_selected for %s: %w", row.ID, err)
		}
	}
	if len(row.TimeSlots) > 0 {
		if err := json.Unmarshal(row.TimeSlots, &project.TimeSlots); err != nil {
			return nil, fmt.Errorf("decode time_slots for %s: %w", row.ID, err)
		}
	}
	if len(row.CompletionFlags) > 0 {
		if err := json.Unmarshal(row.CompletionFlags, &project.CompletionFlags); err != nil {
			return nil, fmt.Errorf("decode completion_flags for %s: %w", row.ID, err)
		}
	}
	if len(row.CompletionTimestamps) > 0 {
		if err := json.Unmarshal(row.CompletionTimestamps, &project.CompletionTimestamps); err != nil {
			return nil, fmt.Errorf("decode completion_timestamps for %s: %w", row.ID, err)
		}
	}
	return project, nil
}

func newProjectRow(project *models.Project) (*projectRow, error) {
	days, err := json.Marshal(project.DaysSelected)
	if err != nil {
		return nil, fmt.Errorf("encode days_selected: %w", err)
	}
	slots, err := json.Marshal(project.TimeSlots)
	if err != nil {
		return nil, fmt.Errorf("encode time_slots: %w", err)
	}
	flags := project.CompletionFlags
	if flags == nil {
		flags = map[int]bool{}
	}
	flagBytes, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("encode completion_flags: %w", err)
	}
	timestamps := project.CompletionTimestamps
	if timestamps == nil {
		timestamps = map[int]time.Time{}
	}
	tsBytes, err := json.Marshal(timestamps)
	if err != nil {
		return nil, fmt.Errorf("encode completion_timestamps: %w", err)
	}
	return &projectRow{
		ID:                   project.ID,
		UserID:               project.UserID,
		Title:                project.Title,
		PlaylistURL:          project.PlaylistURL,
		StartDate:            project.StartDate,
		EndDate:              project.EndDate,
		DaysSelected:         types.JSONText(days),
		TimeSlots:            types.JSONText(slots),
		CompletionFlags:      types.JSONText(flagBytes),
		CompletionTimestamps: types.JSONText(tsBytes),
		CreatedAt:            project.CreatedAt,
		UpdatedAt:            project.UpdatedAt,
	}, nil
}

const projectColumns = `id, user_id, title, playlist_url, start_date, end_date, days_selected, time_slots, completion_flags, completion_timestamps, created_at, updated_at`

// ProjectRepository provides database access for schedule projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new instance of ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// BeginTxx opens a transaction on the underlying connection pool.
func (r *ProjectRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// Create inserts a project using the provided executor so callers can
// batch it with video inserts inside one transaction.
func (r *ProjectRepository) Create(ctx context.Context, exec sqlx.ExtContext, project *models.Project) error {
	if exec == nil {
		exec = r.db
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	row, err := newProjectRow(project)
	if err != nil {
		return err
	}
	const query = `INSERT INTO projects (id, user_id, title, playlist_url, start_date, end_date, days_selected, time_slots, completion_flags, completion_timestamps, created_at, updated_at) VALUES (:id, :user_id, :title, :playlist_url, :start_date, :end_date, :days_selected, :time_slots, :completion_flags, :completion_timestamps, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// FindByID returns a project by identifier.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1 LIMIT 1`, projectColumns)
	var row projectRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	return row.toModel()
}

// ListByUser returns a user's projects ordered by creation time with total count.
func (r *ProjectRepository) ListByUser(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT %s FROM projects WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, projectColumns, pageSize, offset)
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, query, filter.UserID); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM projects WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, filter.UserID); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	projects := make([]models.Project, 0, len(rows))
	for i := range rows {
		project, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *project)
	}
	return projects, total, nil
}

// Update persists mutable project fields.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()
	row, err := newProjectRow(project)
	if err != nil {
		return err
	}
	const query = `UPDATE projects SET title = :title, start_date = :start_date, end_date = :end_date, days_selected = :days_selected, time_slots = :time_slots, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// UpdateCompletion replaces the completion state columns of a project.
func (r *ProjectRepository) UpdateCompletion(ctx context.Context, id string, flags map[int]bool, timestamps map[int]time.Time) error {
	if flags == nil {
		flags = map[int]bool{}
	}
	if timestamps == nil {
		timestamps = map[int]time.Time{}
	}
	flagBytes, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("encode completion_flags: %w", err)
	}
	tsBytes, err := json.Marshal(timestamps)
	if err != nil {
		return fmt.Errorf("encode completion_timestamps: %w", err)
	}
	const query = `UPDATE projects SET completion_flags = $2, completion_timestamps = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, types.JSONText(flagBytes), types.JSONText(tsBytes), time.Now().UTC()); err != nil {
		return fmt.Errorf("update project completion: %w", err)
	}
	return nil
}

// Delete removes a project row. Callers delete the videos in the same
// transaction; ON DELETE CASCADE covers out-of-band removals.
func (r *ProjectRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if exec == nil {
		exec = r.db
	}
	const query = `DELETE FROM projects WHERE id = $1`
	if _, err := exec.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
