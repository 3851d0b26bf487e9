package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/camerpulse/sentinel/internal/alerts"
	"github.com/camerpulse/sentinel/internal/analyzer"
	"github.com/camerpulse/sentinel/internal/signal"
	"github.com/camerpulse/sentinel/pkg/logging"
)

const maxBulkItems = 100

// Service is the analysis surface the HTTP layer exposes.
type Service interface {
	Analyze(ctx context.Context, req signal.AnalyzeRequest) (signal.Result, error)
	AnalyzeBulk(ctx context.Context, reqs []signal.AnalyzeRequest) analyzer.BulkSummary
	Stats(ctx context.Context) analyzer.Stats
	AcknowledgeAlert(ctx context.Context, id string) error
}

// Handlers serves the sentiment analysis API.
type Handlers struct {
	service Service
	logger  logging.Logger
}

func NewHandlers(service Service, logger logging.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes mounts the API on the router.
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1")
	api.POST("/analyze", h.Analyze)
	api.POST("/analyze/bulk", h.AnalyzeBulk)
	api.GET("/stats", h.Stats)
	api.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
}

// Analyze classifies one piece of content.
func (h *Handlers) Analyze(c *gin.Context) {
	var req signal.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, analyzer.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

type bulkRequest struct {
	Items []signal.AnalyzeRequest `json:"items"`
}

// AnalyzeBulk classifies a batch with per-item isolation; the response
// carries every item's result or error plus a tally.
func (h *Handlers) AnalyzeBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items are required"})
		return
	}
	if len(req.Items) > maxBulkItems {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many items, limit is 100"})
		return
	}

	c.JSON(http.StatusOK, h.service.AnalyzeBulk(c.Request.Context(), req.Items))
}

// Stats serves read-only aggregate counters.
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Stats(c.Request.Context()))
}

// AcknowledgeAlert marks a threat alert as handled.
func (h *Handlers) AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.AcknowledgeAlert(c.Request.Context(), id); err != nil {
		if errors.Is(err, alerts.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		h.logger.WithError(err).WithField("alert_id", id).Error("Failed to acknowledge alert")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "acknowledge failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}
