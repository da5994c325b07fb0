package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelanceflow/internal/services"
	"freelanceflow/internal/utils"
)

// RestTimeLogHandler handles REST requests for time logs.
type RestTimeLogHandler struct {
	timeLogService services.ITimeLogService
}

// NewRestTimeLogHandler creates a new RestTimeLogHandler.
func NewRestTimeLogHandler(timeLogService services.ITimeLogService) *RestTimeLogHandler {
	return &RestTimeLogHandler{timeLogService: timeLogService}
}

type createTimeLogRequest struct {
	ProjectID   string    `json:"project_id" binding:"required"`
	Description string    `json:"description" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

type updateTimeLogRequest struct {
	Description string    `json:"description" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

// CreateTimeLog handles POST /v1/timelogs
func (h *RestTimeLogHandler) CreateTimeLog(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}

	var req createTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	projectID, err := utils.ParseSixID(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	tlog, err := h.timeLogService.CreateTimeLog(c.Request.Context(), callerID, projectID, req.Description, req.StartTime, req.EndTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tlog)
}

// ListProjectTimeLogs handles GET /v1/projects/:id/timelogs
func (h *RestTimeLogHandler) ListProjectTimeLogs(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	projectID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	logs, err := h.timeLogService.FindTimeLogsByProject(c.Request.Context(), projectID, callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// ListUnbilled handles GET /v1/timelogs/unbilled. Returns the caller's
// unbilled logs across all projects.
func (h *RestTimeLogHandler) ListUnbilled(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}

	logs, err := h.timeLogService.FindUnbilledByUser(c.Request.Context(), callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// UpdateTimeLog handles PUT /v1/timelogs/:id
func (h *RestTimeLogHandler) UpdateTimeLog(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	logID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time log ID format"})
		return
	}

	var req updateTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tlog, err := h.timeLogService.UpdateTimeLog(c.Request.Context(), logID, callerID, req.Description, req.StartTime, req.EndTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tlog)
}

// DeleteTimeLog handles DELETE /v1/timelogs/:id
func (h *RestTimeLogHandler) DeleteTimeLog(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	logID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time log ID format"})
		return
	}

	if err := h.timeLogService.DeleteTimeLog(c.Request.Context(), logID, callerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
