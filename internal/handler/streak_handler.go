package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aadishkansal/stream-calendar-api/internal/dto"
	"github.com/aadishkansal/stream-calendar-api/internal/service"
	appErrors "github.com/aadishkansal/stream-calendar-api/pkg/errors"
	"github.com/aadishkansal/stream-calendar-api/pkg/response"
)

// StreakHandler serves completion tracking endpoints.
type StreakHandler struct {
	projects *service.ProjectService
	streak   *service.StreakService
}

// NewStreakHandler creates a new handler.
func NewStreakHandler(projects *service.ProjectService, streak *service.StreakService) *StreakHandler {
	return &StreakHandler{projects: projects, streak: streak}
}

// Summary godoc
// @Summary Streak summary
// @Description Return per-day completion verdicts and the current streak
// @Tags Streak
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/streak [get]
func (h *StreakHandler) Summary(c *gin.Context) {
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

	summary, err := h.streak.Summary(c.Request.Context(), projectID, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// SetCompletion godoc
// @Summary Toggle video completion
// @Description Mark one source video as completed or clear its completion
// @Tags Streak
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param index path int true "Video index"
// @Param payload body dto.SetCompletionRequest true "Completion payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/videos/{index}/completion [put]
func (h *StreakHandler) SetCompletion(c *gin.Context) {
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

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "video index must be an integer"))
		return
	}

	var req dto.SetCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}

	if err := h.streak.SetCompletion(c.Request.Context(), projectID, index, req.Completed, time.Now()); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
