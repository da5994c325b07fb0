package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelanceflow/internal/models"
	"freelanceflow/internal/services"
	"freelanceflow/internal/utils"
)

// RestTaskHandler handles REST requests for tasks.
type RestTaskHandler struct {
	taskService services.ITaskService
}

// NewRestTaskHandler creates a new RestTaskHandler.
func NewRestTaskHandler(taskService services.ITaskService) *RestTaskHandler {
	return &RestTaskHandler{taskService: taskService}
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

type updateTaskRequest struct {
	Status string `json:"status" binding:"required,oneof=todo in_progress done"`
}

// CreateTask handles POST /v1/projects/:id/tasks
func (h *RestTaskHandler) CreateTask(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	projectID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), projectID, callerID, req.Title, req.Description, req.DueDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks handles GET /v1/projects/:id/tasks
func (h *RestTaskHandler) ListTasks(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	projectID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	tasks, err := h.taskService.FindTasksByProject(c.Request.Context(), projectID, callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

// UpdateTask handles PUT /v1/tasks/:id
func (h *RestTaskHandler) UpdateTask(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	taskID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request.Context(), taskID, callerID, models.TaskStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /v1/tasks/:id
func (h *RestTaskHandler) DeleteTask(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	taskID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID, callerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
