package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aadishkansal/stream-calendar-api/internal/dto"
	"github.com/aadishkansal/stream-calendar-api/internal/service"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
	"github.com/aadishkansal/stream-calendar-api/pkg/response"
)

// ScheduleHandler serves the generated calendar of a project.
type ScheduleHandler struct {
	projects *service.ProjectService
	schedule *service.ScheduleService
	export   *service.ExportService
}

// NewScheduleHandler creates a new handler.
func NewScheduleHandler(projects *service.ProjectService, schedule *service.ScheduleService, export *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{projects: projects, schedule: schedule, export: export}
}

// Events godoc
// @Summary Generated schedule
// @Description Return the generated calendar events for a project
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/schedule [get]
func (h *ScheduleHandler) Events(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	projectID := c.Param("id")

	if _, err := h.projects.Get(c.Request.Context(), claims.UserID, projectID); err != nil {
		response.Error(c, err)
		return
	}

	events, fromCache, err := h.schedule.Events(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := map[string]interface{}{"from_cache": fromCache}
	response.JSON(c, http.StatusOK, dto.ScheduleResponse{ProjectID: projectID, Events: events}, nil, meta)
}

// Export godoc
// @Summary Export schedule
// @Description Download the generated schedule as CSV or PDF
// @Tags Schedule
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.Schedule(c.Request.Context(), claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
