package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/middleware"
)

// ledgerHandler handles HTTP requests for ledger reports.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

// getTrialBalance godoc
// @Summary Trial balance report
// @Description Aggregates debits and credits per chart code; total debits must equal total credits
// @Tags ledger
// @Produce  json
// @Param   asOf query string false "Report cutoff (RFC3339), defaults to now"
// @Success 200 {object} domain.TrialBalance "Trial balance"
// @Router /ledger/trial-balance [get]
func (h *ledgerHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	saccoID, _, ok := requireTenant(c)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			logger.Warn("Invalid asOf parameter", slog.String("asOf", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "asOf must be RFC3339"})
			return
		}
		asOf = parsed
	}

	report, err := h.ledgerService.GetTrialBalance(c.Request.Context(), saccoID, asOf)
	if err != nil {
		respondServiceError(c, err, "Failed to build trial balance")
		return
	}
	c.JSON(http.StatusOK, report)
}

// listLedgerEntries godoc
// @Summary List ledger entries for a chart code
// @Tags ledger
// @Produce  json
// @Param   accountCode path string true "Chart code"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination cursor"
// @Success 200 {object} map[string]any "Entries page"
// @Router /ledger/accounts/{accountCode}/entries [get]
func (h *ledgerHandler) listLedgerEntries(c *gin.Context) {
	accountCode := c.Param("accountCode")

	saccoID, _, ok := requireTenant(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	var nextToken *string
	if raw := c.Query("nextToken"); raw != "" {
		nextToken = &raw
	}

	entries, next, err := h.ledgerService.ListEntriesByAccountCode(c.Request.Context(), saccoID, accountCode, limit, nextToken)
	if err != nil {
		respondServiceError(c, err, "Failed to list ledger entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "nextToken": next})
}

// registerLedgerRoutes registers ledger specific routes
func registerLedgerRoutes(group *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := group.Group("/ledger")
	{
		ledger.GET("/trial-balance", h.getTrialBalance)
		ledger.GET("/accounts/:accountCode/entries", h.listLedgerEntries)
	}
}
