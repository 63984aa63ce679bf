package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadishkansal/stream-calendar-api/internal/models"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
)

func newExportFixture() (*ExportService, *eventSourceStub) {
	project := &models.Project{ID: "p1", UserID: "u1", Title: "Go course"}
	source := &eventSourceStub{events: []models.ScheduledEvent{
		{
			Title:            "Intro",
			DurationMinutes:  45,
			ScheduledStart:   date(2025, time.January, 6).Add(9 * time.Hour),
			SourceVideoIndex: 0,
			PartNumber:       1,
			Completed:        true,
		},
	}}
	return NewExportService(&projectReaderStub{project: project}, source, nil, nil, nil), source
}

func TestExportServiceScheduleCSV(t *testing.T) {
	service, _ := newExportFixture()

	result, err := service.Schedule(context.Background(), "u1", "p1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "schedule-p1-"))

	body := string(result.Payload)
	assert.Contains(t, body, "Date,Start,Title")
	assert.Contains(t, body, "2025-01-06,09:00,Intro,45,1,yes")
}

func TestExportServiceSchedulePDF(t *testing.T) {
	service, _ := newExportFixture()

	result, err := service.Schedule(context.Background(), "u1", "p1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Payload)
}

func TestExportServiceScheduleForbidden(t *testing.T) {
	service, _ := newExportFixture()

	_, err := service.Schedule(context.Background(), "intruder", "p1", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceScheduleUnsupportedFormat(t *testing.T) {
	service, _ := newExportFixture()

	_, err := service.Schedule(context.Background(), "u1", "p1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
