package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
	"github.com/coopfin/sacco_core_app/internal/middleware"
)

// transactionHandler handles HTTP requests related to transactions.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
	reversalService    portssvc.ReversalSvcFacade
}

// newTransactionHandler creates a new transactionHandler.
func newTransactionHandler(transactionService portssvc.TransactionSvcFacade, reversalService portssvc.ReversalSvcFacade) *transactionHandler {
	return &transactionHandler{
		transactionService: transactionService,
		reversalService:    reversalService,
	}
}

// processTransaction godoc
// @Summary Process a financial transaction
// @Description Validates, mutates the account balance, and posts ledger entries atomically
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.ProcessTransactionRequest true "Transaction details"
// @Success 201 {object} dto.ProcessTransactionResult "Completed transaction"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 422 {object} map[string]string "Domain rule rejection"
// @Router /transactions [post]
func (h *transactionHandler) processTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.ProcessTransactionRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ProcessTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.transactionService.ProcessTransaction(c.Request.Context(), saccoID, req, actorID)
	if err != nil {
		respondServiceError(c, err, "Failed to process transaction")
		return
	}

	logger.Info("Transaction processed successfully", slog.String("transaction_number", result.TransactionNumber))
	c.JSON(http.StatusCreated, result)
}

// reverseTransaction godoc
// @Summary Reverse a completed transaction
// @Description Posts a compensating transaction; the original record is preserved
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   reversal body dto.ReverseTransactionRequest true "Reversal reason"
// @Success 201 {object} dto.ProcessTransactionResult "Compensating transaction"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Transaction not reversible"
// @Router /transactions/{transactionID}/reverse [post]
func (h *transactionHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	req := dto.ReverseTransactionRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.reversalService.ReverseTransaction(c.Request.Context(), saccoID, transactionID, req.Reason, actorID)
	if err != nil {
		respondServiceError(c, err, "Failed to reverse transaction")
		return
	}

	logger.Info("Transaction reversed successfully",
		slog.String("original_id", transactionID),
		slog.String("reversal_number", result.TransactionNumber))
	c.JSON(http.StatusCreated, result)
}

// getTransaction godoc
// @Summary Get a transaction
// @Description Retrieves one transaction by ID
// @Tags transactions
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse "Transaction"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Router /transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	transactionID := c.Param("transactionID")

	saccoID, _, ok := requireTenant(c)
	if !ok {
		return
	}

	resp, err := h.transactionService.GetTransactionByID(c.Request.Context(), saccoID, transactionID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listAccountTransactions godoc
// @Summary List transactions for an account
// @Description Retrieves a paginated account statement, newest first
// @Tags transactions
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Pagination cursor"
// @Success 200 {object} dto.ListTransactionsResponse "Transaction page"
// @Router /accounts/{accountID}/transactions [get]
func (h *transactionHandler) listAccountTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	params := dto.ListTransactionsParams{}
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListAccountTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	saccoID, _, ok := requireTenant(c)
	if !ok {
		return
	}

	resp, err := h.transactionService.ListTransactionsByAccount(c.Request.Context(), saccoID, accountID, params)
	if err != nil {
		respondServiceError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// transfer godoc
// @Summary Transfer between member accounts
// @Description Debits one account and credits another in one atomic unit
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Transfer details"
// @Success 201 {object} dto.TransferResult "Both halves of the transfer"
// @Failure 422 {object} map[string]string "Insufficient funds or inactive account"
// @Router /transfers [post]
func (h *transactionHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.TransferRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	saccoID, actorID, ok := requireTenant(c)
	if !ok {
		return
	}

	result, err := h.transactionService.Transfer(c.Request.Context(), saccoID, req, actorID)
	if err != nil {
		respondServiceError(c, err, "Failed to transfer")
		return
	}

	logger.Info("Transfer completed successfully",
		slog.String("out_number", result.OutTransaction.TransactionNumber),
		slog.String("in_number", result.InTransaction.TransactionNumber))
	c.JSON(http.StatusCreated, result)
}

// registerTransactionRoutes registers transaction specific routes
func registerTransactionRoutes(group *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade, reversalService portssvc.ReversalSvcFacade) {
	h := newTransactionHandler(transactionService, reversalService)

	transactions := group.Group("/transactions")
	{
		transactions.POST("", h.processTransaction)
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.POST("/:transactionID/reverse", h.reverseTransaction)
	}
	group.POST("/transfers", h.transfer)
	group.GET("/accounts/:accountID/transactions", h.listAccountTransactions)
}
