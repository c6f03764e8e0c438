package dto

import (
	"time"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ProcessTransactionRequest is the validated input for one money movement.
// The presentation layer binds and validates it; authorization has already
// happened by the time the engine sees it.
type ProcessTransactionRequest struct {
	MemberID      string                 `json:"memberID" binding:"required"`
	AccountID     string                 `json:"accountID" binding:"required"`
	Type          domain.TransactionType `json:"type" binding:"required"`
	Amount        decimal.Decimal        `json:"amount" binding:"required"`
	FeeAmount     decimal.Decimal        `json:"feeAmount"`
	RelatedLoanID *string                `json:"relatedLoanID,omitempty"`
	Metadata      map[string]string      `json:"metadata,omitempty"`

	// Reversal linkage, set only by the reversal engine. Never bound from
	// client input.
	ReversalOfID   *string `json:"-"`
	ReversalReason string  `json:"-"`

	// SourceAccountID funds a loan repayment from the member's savings
	// account instead of cash, debiting it in the same atomic unit. Set only
	// by the loan service.
	SourceAccountID *string `json:"-"`
}

// ProcessTransactionResult is returned to the caller after a completed
// transaction.
type ProcessTransactionResult struct {
	TransactionID     string                    `json:"transactionID"`
	TransactionNumber string                    `json:"transactionNumber"`
	Status            domain.TransactionStatus  `json:"status"`
	BalanceAfter      decimal.Decimal           `json:"balanceAfter"`
	Allocation        *domain.PaymentAllocation `json:"allocation,omitempty"`
	ReceiptNumber     string                    `json:"receiptNumber,omitempty"`
}

// ReverseTransactionRequest carries the reversal reason from the caller.
type ReverseTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TransferRequest moves funds between two member savings accounts in one
// atomic unit (a transfer_out and a transfer_in posting pair).
type TransferRequest struct {
	FromMemberID  string            `json:"fromMemberID" binding:"required"`
	FromAccountID string            `json:"fromAccountID" binding:"required"`
	ToMemberID    string            `json:"toMemberID" binding:"required"`
	ToAccountID   string            `json:"toAccountID" binding:"required"`
	Amount        decimal.Decimal   `json:"amount" binding:"required"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TransferResult reports both halves of a completed transfer.
type TransferResult struct {
	OutTransaction ProcessTransactionResult `json:"outTransaction"`
	InTransaction  ProcessTransactionResult `json:"inTransaction"`
}

// ListTransactionsParams holds pagination parameters for account listings.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// TransactionResponse is the read-model shape of a transaction.
type TransactionResponse struct {
	TransactionID     string                   `json:"transactionID"`
	TransactionNumber string                   `json:"transactionNumber"`
	MemberID          string                   `json:"memberID"`
	AccountID         string                   `json:"accountID"`
	Type              domain.TransactionType   `json:"type"`
	Amount            decimal.Decimal          `json:"amount"`
	FeeAmount         decimal.Decimal          `json:"feeAmount"`
	NetAmount         decimal.Decimal          `json:"netAmount"`
	BalanceBefore     decimal.Decimal          `json:"balanceBefore"`
	BalanceAfter      decimal.Decimal          `json:"balanceAfter"`
	Status            domain.TransactionStatus `json:"status"`
	ReversalOfID      *string                  `json:"reversalOfID,omitempty"`
	ReversedByID      *string                  `json:"reversedByID,omitempty"`
	ProcessedBy       string                   `json:"processedBy"`
	CreatedAt         time.Time                `json:"createdAt"`
}

// ListTransactionsResponse is a paginated transaction listing.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse maps a domain transaction to its read model.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:     t.TransactionID,
		TransactionNumber: t.TransactionNumber,
		MemberID:          t.MemberID,
		AccountID:         t.AccountID,
		Type:              t.Type,
		Amount:            t.Amount,
		FeeAmount:         t.FeeAmount,
		NetAmount:         t.NetAmount,
		BalanceBefore:     t.BalanceBefore,
		BalanceAfter:      t.BalanceAfter,
		Status:            t.Status,
		ReversalOfID:      t.ReversalOfID,
		ReversedByID:      t.ReversedByID,
		ProcessedBy:       t.ProcessedBy,
		CreatedAt:         t.CreatedAt,
	}
}

// ToTransactionResponses maps a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txns))
	for i := range txns {
		out[i] = ToTransactionResponse(&txns[i])
	}
	return out
}
