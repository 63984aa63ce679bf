package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aadishkansal/stream-calendar-api/internal/models"
)

// VideoRepository manages the playlist videos attached to a project.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository builds repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BulkCreate inserts videos preserving their playlist positions.
func (r *VideoRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO videos (id, project_id, position, title, url, duration_minutes, created_at) VALUES (:id, :project_id, :position, :title, :url, :duration_minutes, :created_at)`

	for i := range videos {
		video := &videos[i]
		if video.ID == "" {
			video.ID = uuid.NewString()
		}
		if video.CreatedAt.IsZero() {
			video.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, video); err != nil {
			return fmt.Errorf("create video: %w", err)
		}
	}
	return nil
}

// ListByProject returns a project's videos in playlist order.
func (r *VideoRepository) ListByProject(ctx context.Context, projectID string) ([]models.Video, error) {
	const query = `SELECT id, project_id, position, title, url, duration_minutes, created_at FROM videos WHERE project_id = $1 ORDER BY position ASC`
	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, query, projectID); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

// DeleteByProject removes all videos for a project.
func (r *VideoRepository) DeleteByProject(ctx context.Context, exec sqlx.ExtContext, projectID string) error {
	target := r.exec(exec)
	const query = `DELETE FROM videos WHERE project_id = $1`
	if _, err := target.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("delete videos: %w", err)
	}
	return nil
}
