package http

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/gst-billing/internal/billing"
	"github.com/garyjia/gst-billing/internal/container"
	"github.com/garyjia/gst-billing/internal/gst"
	"github.com/garyjia/gst-billing/internal/models"
	"github.com/garyjia/gst-billing/internal/service"
	"github.com/garyjia/gst-billing/internal/storage"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	bills  *service.BillService
	health HealthChecker
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(bills *service.BillService, health HealthChecker, logger *zap.Logger) *Handlers {
	return &Handlers{
		bills:  bills,
		health: health,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                               `json:"status"`
	Timestamp  string                               `json:"timestamp"`
	Version    string                               `json:"version"`
	Components map[string]container.ComponentHealth `json:"components,omitempty"`
}

// WordsResponse is the amount-in-words lookup result
type WordsResponse struct {
	Amount string `json:"amount"`
	Words  string `json:"words"`
}

// TotalsResponse carries the GST breakdown and its rupee rendering
type TotalsResponse struct {
	Totals  gst.Totals    `json:"totals"`
	Display TotalsDisplay `json:"display"`
}

// TotalsDisplay is TotalsResponse formatted with Indian digit grouping
type TotalsDisplay struct {
	Base       string `json:"base"`
	CGST       string `json:"cgst"`
	SGST       string `json:"sgst"`
	IGST       string `json:"igst"`
	GrandTotal string `json:"grand_total"`
}

// ListHistoryRequest represents query parameters for the ledger
type ListHistoryRequest struct {
	Limit   int    `form:"limit"`
	Invoice string `form:"invoice"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.health != nil {
		status := h.health.Health(c.Request.Context())
		response.Components = status.Components
		if !status.Overall {
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data:    response,
				Error:   "one or more components are unhealthy",
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	names, err := h.bills.Templates()
	if err != nil {
		h.logger.Error("Failed to list templates", zap.Error(err))
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: names})
}

// ListBills handles GET /api/bills
func (h *Handlers) ListBills(c *gin.Context) {
	bills, err := h.bills.Bills()
	if err != nil {
		h.logger.Error("Failed to list bills", zap.Error(err))
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: bills})
}

// GenerateBill handles POST /api/bills
func (h *Handlers) GenerateBill(c *gin.Context) {
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid generate request", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	result, err := h.bills.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// DownloadBill handles GET /api/bills/:name
func (h *Handlers) DownloadBill(c *gin.Context) {
	name := c.Param("name")

	path, err := h.bills.BillPath(name)
	if err != nil {
		h.logger.Warn("Bill not available for download",
			zap.String("name", name),
			zap.Error(err))
		h.fail(c, err)
		return
	}

	c.FileAttachment(path, name)
}

// ListHistory handles GET /api/history
func (h *Handlers) ListHistory(c *gin.Context) {
	var req ListHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	var (
		records []*models.GenerationRecord
		err     error
	)
	if req.Invoice != "" {
		records, err = h.bills.InvoiceHistory(c.Request.Context(), req.Invoice)
	} else {
		records, err = h.bills.History(c.Request.Context(), req.Limit)
	}
	if err != nil {
		h.logger.Error("Failed to load history", zap.Error(err))
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// AmountInWords handles GET /api/words?amount=
func (h *Handlers) AmountInWords(c *gin.Context) {
	amount := c.Query("amount")

	phrase, err := h.bills.AmountInWords(amount)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    WordsResponse{Amount: amount, Words: phrase},
	})
}

// ComputeTotals handles POST /api/totals
func (h *Handlers) ComputeTotals(c *gin.Context) {
	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	totals := h.bills.Totals(fields)

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: TotalsResponse{
			Totals: totals,
			Display: TotalsDisplay{
				Base:       gst.FormatINR(totals.Base),
				CGST:       gst.FormatINR(totals.CGST),
				SGST:       gst.FormatINR(totals.SGST),
				IGST:       gst.FormatINR(totals.IGST),
				GrandTotal: gst.FormatINR(totals.GrandTotal),
			},
		},
	})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), Response{
		Success: false,
		Error:   err.Error(),
	})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case service.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, billing.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
