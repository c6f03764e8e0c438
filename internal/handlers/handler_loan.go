package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
	"github.com/coopfin/sacco_core_app/internal/middleware"
)

// loanHandler handles HTTP requests related to loans.
type loanHandler struct {
	loanService portssvc.LoanSvcFacade
}

// newLoanHandler creates a new loanHandler.
func newLoanHandler(loanService portssvc.LoanSvcFacade) *loanHandler {
	return &loanHandler{loanService: loanService}
}

// getLoan godoc
// @Summary Get a loan
// @Description Retrieves one loan with its balance breakdown
// @Tags loans
// @Produce  json
// @Param   loanID path string true "Loan ID"
// @Success 200 {object} dto.LoanResponse "Loan"
// @Failure 404 {object} map[string]string "Loan not found"
// @Router /loans/{loanID} [get]
func (h *loanHandler) getLoan(c *gin.Context) {
	loanID := c.Param("loanID")

	saccoID, _, ok := requireTenant(c)
	if !ok {
		return
	}

	resp, err := h.loanService.GetLoanByID(c.Request.Context(), saccoID, loanID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve loan")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// approveLoan godoc
// @Summary Approve a pending loan
// @Tags loans
// @Produce  json
// @Param   loanID path string true "Loan ID"
// @Success 200 {object} map[string]string "Approved"
// @Failure 400 {object} map[string]string "Illegal status transition"
// @Router /loans/{loanID}/approve [post]
func (h *loanHandler) approveLoan(c *gin.Context) {
	h.transition(c, h.loanService.ApproveLoan, "approved")
}

// rejectLoan godoc
// @Summary Reject a pending loan
// @Tags loans
// @Produce  json
// @Param   loanID path string true "Loan ID"
// @Success 200 {object} map[string]string "Rejected"
// @Failure 400 {object} map[string]string "Illegal status transition"
// @Router /loans/{loanID}/reject [post]
func (h *loanHandler) rejectLoan(c *gin.Context) {
	h.transition(c, h.loanService.RejectLoan, "rejected")
}

func (h *loanHandler) transition(c *gin.Context, op func(ctx context.Context, saccoID, loanID, actorID string) error, verb string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	if err := op(c.Request.Context(), saccoID, loanID, actorID); err != nil {
		respondServiceError(c, err, "Failed to update loan status")
		return
	}

	logger.Info("Loan "+verb, slog.String("loan_id", loanID))
	c.JSON(http.StatusOK, gin.H{"loanID": loanID, "status": verb})
}

// disburseLoan godoc
// @Summary Disburse an approved loan
// @Description Releases funds, activates the loan, and posts ledger entries atomically
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   loanID path string true "Loan ID"
// @Param   disbursement body dto.DisburseLoanRequest true "Disbursement details"
// @Success 201 {object} dto.ProcessTransactionResult "Disbursement transaction"
// @Failure 400 {object} map[string]string "Loan not approved"
// @Router /loans/{loanID}/disburse [post]
func (h *loanHandler) disburseLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	req := dto.DisburseLoanRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DisburseLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.loanService.DisburseLoan(c.Request.Context(), saccoID, loanID, req, actorID)
	if err != nil {
		respondServiceError(c, err, "Failed to disburse loan")
		return
	}

	logger.Info("Loan disbursed successfully", slog.String("loan_id", loanID))
	c.JSON(http.StatusCreated, result)
}

// repayLoan godoc
// @Summary Repay a loan
// @Description Applies a payment through the penalty, interest, principal waterfall
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   loanID path string true "Loan ID"
// @Param   payment body dto.RepayLoanRequest true "Payment details"
// @Success 201 {object} dto.RepayLoanResult "Allocation breakdown and receipt"
// @Failure 400 {object} map[string]string "Loan not active or payment rejected"
// @Router /loans/{loanID}/repayments [post]
func (h *loanHandler) repayLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	req := dto.RepayLoanRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RepayLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.loanService.RepayLoan(c.Request.Context(), saccoID, loanID, req, actorID)
	if err != nil {
		respondServiceError(c, err, "Failed to repay loan")
		return
	}

	logger.Info("Loan repayment applied",
		slog.String("loan_id", loanID),
		slog.String("receipt_number", result.ReceiptNumber))
	c.JSON(http.StatusCreated, result)
}

// registerLoanRoutes registers loan specific routes
func registerLoanRoutes(group *gin.RouterGroup, loanService portssvc.LoanSvcFacade) {
	h := newLoanHandler(loanService)

	loans := group.Group("/loans")
	{
		loans.GET("/:loanID", h.getLoan)
		loans.POST("/:loanID/approve", h.approveLoan)
		loans.POST("/:loanID/reject", h.rejectLoan)
		loans.POST("/:loanID/disburse", h.disburseLoan)
		loans.POST("/:loanID/repayments", h.repayLoan)
	}
}
