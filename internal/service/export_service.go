package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aadishkansal/stream-calendar-api/pkg/export"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type scheduleRenderer interface {
	Render(schedule export.Schedule) ([]byte, error)
}

// ExportResult carries a rendered schedule document.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// ExportService renders a project's generated schedule as a downloadable file.
type ExportService struct {
	projects scheduleProjectReader
	schedule scheduleEventSource
	csv      scheduleRenderer
	pdf      scheduleRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(projects scheduleProjectReader, schedule scheduleEventSource, csv, pdf scheduleRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{projects: projects, schedule: schedule, csv: csv, pdf: pdf, logger: logger}
}

// Schedule renders the schedule of a project owned by userID.
func (s *ExportService) Schedule(ctx context.Context, userID, projectID string, format ExportFormat) (*ExportResult, error) {
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

	events, _, err := s.schedule.Events(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	schedule := export.Schedule{
		ProjectTitle: project.Title,
		GeneratedAt:  now,
	}
	for _, ev := range events {
		schedule.Entries = append(schedule.Entries, export.Entry{
			Date:            ev.ScheduledStart.Format("2006-01-02"),
			Start:           ev.ScheduledStart.Format("15:04"),
			Title:           ev.Title,
			DurationMinutes: ev.DurationMinutes,
			Part:            ev.PartNumber,
			Completed:       ev.Completed,
		})
	}

	stamp := now.Format("20060102")
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(schedule)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("schedule-%s-%s.csv", projectID, stamp),
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(schedule)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("schedule-%s-%s.pdf", projectID, stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
