package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freelanceflow/internal/services"
	"freelanceflow/internal/utils"
)

// RestProjectHandler handles REST requests for projects.
type RestProjectHandler struct {
	projectService services.IProjectService
}

// NewRestProjectHandler creates a new RestProjectHandler.
func NewRestProjectHandler(projectService services.IProjectService) *RestProjectHandler {
	return &RestProjectHandler{projectService: projectService}
}

type createProjectRequest struct {
	ClientID    string  `json:"client_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	HourlyRate  float64 `json:"hourly_rate" binding:"required,gt=0"`
}

type updateProjectRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	HourlyRate  *float64 `json:"hourly_rate"`
	Status      *string  `json:"status"`
}

// CreateProject handles POST /v1/projects
func (h *RestProjectHandler) CreateProject(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	clientID, err := utils.ParseSixID(req.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID format"})
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), callerID, clientID, req.Name, req.Description, req.HourlyRate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ListProjects handles GET /v1/projects
func (h *RestProjectHandler) ListProjects(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.FindProjectsForUser(c.Request.Context(), callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

// GetProjectByID handles GET /v1/projects/:id
func (h *RestProjectHandler) GetProjectByID(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	projectID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	project, err := h.projectService.FindProjectByID(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !project.IsParty(callerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a party to this project"})
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject handles PUT /v1/projects/:id
func (h *RestProjectHandler) UpdateProject(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	projectID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.HourlyRate != nil {
		updates["hourly_rate"] = *req.HourlyRate
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), projectID, callerID, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /v1/projects/:id
func (h *RestProjectHandler) DeleteProject(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	projectID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), projectID, callerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
