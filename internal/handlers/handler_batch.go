package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
	"github.com/coopfin/sacco_core_app/internal/middleware"
)

// batchHandler handles HTTP requests for batch jobs.
type batchHandler struct {
	batchService portssvc.BatchSvcFacade
}

// newBatchHandler creates a new batchHandler.
func newBatchHandler(batchService portssvc.BatchSvcFacade) *batchHandler {
	return &batchHandler{batchService: batchService}
}

// postSavingsInterest godoc
// @Summary Post periodic interest to savings accounts
// @Description Credits rate * balance to every active savings account; member failures are collected, not fatal
// @Tags batches
// @Accept  json
// @Produce  json
// @Param   batch body dto.InterestBatchRequest true "Interest rate per period"
// @Success 200 {object} dto.BatchResult "Batch summary"
// @Router /batches/interest [post]
func (h *batchHandler) postSavingsInterest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.InterestBatchRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostSavingsInterest", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.batchService.PostSavingsInterest(c.Request.Context(), saccoID, req, actorID)
	if err != nil {
		respondServiceError(c, err, "Failed to run interest batch")
		return
	}

	logger.Info("Interest batch finished",
		slog.Int("processed", result.Processed),
		slog.Int("succeeded", result.Succeeded))
	c.JSON(http.StatusOK, result)
}

// payDividends godoc
// @Summary Pay dividends to share accounts
// @Description Credits amountPerShare * shares held to every active share account
// @Tags batches
// @Accept  json
// @Produce  json
// @Param   batch body dto.DividendBatchRequest true "Dividend per share"
// @Success 200 {object} dto.BatchResult "Batch summary"
// @Router /batches/dividends [post]
func (h *batchHandler) payDividends(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.DividendBatchRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PayDividends", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.batchService.PayDividends(c.Request.Context(), saccoID, req, actorID)
	if err != nil {
		respondServiceError(c, err, "Failed to run dividend batch")
		return
	}

	logger.Info("Dividend batch finished",
		slog.Int("processed", result.Processed),
		slog.Int("succeeded", result.Succeeded))
	c.JSON(http.StatusOK, result)
}

// registerBatchRoutes registers batch specific routes
func registerBatchRoutes(group *gin.RouterGroup, batchService portssvc.BatchSvcFacade) {
	h := newBatchHandler(batchService)

	batches := group.Group("/batches")
	{
		batches.POST("/interest", h.postSavingsInterest)
		batches.POST("/dividends", h.payDividends)
	}
}
