package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freelanceflow/internal/models"
	"freelanceflow/internal/services"
	"freelanceflow/internal/utils"
)

// RestInvoiceHandler handles REST requests for invoices.
type RestInvoiceHandler struct {
	invoiceService services.IInvoiceService
	timeLogService services.ITimeLogService
}

// NewRestInvoiceHandler creates a new RestInvoiceHandler.
func NewRestInvoiceHandler(invoiceService services.IInvoiceService, timeLogService services.ITimeLogService) *RestInvoiceHandler {
	return &RestInvoiceHandler{
		invoiceService: invoiceService,
		timeLogService: timeLogService,
	}
}

type createInvoiceRequest struct {
	ProjectID     string     `json:"project_id" binding:"required"`
	TimeLogIDs    []string   `json:"time_log_ids" binding:"required"`
	HourlyRate    float64    `json:"hourly_rate"`
	TaxPercentage float64    `json:"tax_percentage"`
	DueDate       *time.Time `json:"due_date"`
	Notes         string     `json:"notes"`
	Status        string     `json:"status" binding:"omitempty,oneof=draft sent paid"`
}

type transitionInvoiceRequest struct {
	Status        string     `json:"status" binding:"required,oneof=sent paid overdue"`
	PaymentMethod string     `json:"payment_method"`
	PaidDate      *time.Time `json:"paid_date"`
}

// ListInvoices handles GET /v1/invoices. Returns invoices where the
// caller is client or freelancer.
func (h *RestInvoiceHandler) ListInvoices(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}

	invoices, err := h.invoiceService.FindInvoicesForUser(c.Request.Context(), callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

// GetInvoiceByID handles GET /v1/invoices/:id
func (h *RestInvoiceHandler) GetInvoiceByID(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	invoiceID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	invoice, err := h.invoiceService.FindInvoiceByID(c.Request.Context(), invoiceID, callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// CreateInvoice handles POST /v1/invoices
func (h *RestInvoiceHandler) CreateInvoice(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID, err := utils.ParseSixID(req.ProjectID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}
	logIDs := make([]utils.SixID, 0, len(req.TimeLogIDs))
	for _, raw := range req.TimeLogIDs {
		id, err := utils.ParseSixID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time log ID format"})
			return
		}
		logIDs = append(logIDs, id)
	}

	input := services.CreateInvoiceInput{
		ProjectID:     projectID,
		TimeLogIDs:    logIDs,
		HourlyRate:    req.HourlyRate,
		TaxPercentage: req.TaxPercentage,
		Notes:         req.Notes,
		Status:        models.InvoiceStatus(req.Status),
	}
	if req.DueDate != nil {
		input.DueDate = *req.DueDate
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), callerID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// TransitionInvoice handles PUT /v1/invoices/:id
func (h *RestInvoiceHandler) TransitionInvoice(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	invoiceID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	var req transitionInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.TransitionStatus(c.Request.Context(), invoiceID, callerID, models.InvoiceStatus(req.Status), req.PaymentMethod, req.PaidDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice handles DELETE /v1/invoices/:id
func (h *RestInvoiceHandler) DeleteInvoice(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	invoiceID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID format"})
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), invoiceID, callerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProjectUnbilled handles GET /v1/invoices/project/:projectId/unbilled.
// Returns the project's logs available for invoicing.
func (h *RestInvoiceHandler) ListProjectUnbilled(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	projectID, err := utils.ParseSixID(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	logs, err := h.timeLogService.FindUnbilledByProject(c.Request.Context(), projectID, callerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
