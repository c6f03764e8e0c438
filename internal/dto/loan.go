package dto

import (
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RepayLoanRequest is the input for a loan payment.
type RepayLoanRequest struct {
	MemberID      string            `json:"memberID" binding:"required"`
	Amount        decimal.Decimal   `json:"amount" binding:"required"`
	FromSavings   bool              `json:"fromSavings"` // debit the member's savings account instead of taking cash
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RepayLoanResult reports the allocation breakdown and receipt.
type RepayLoanResult struct {
	Transaction   ProcessTransactionResult `json:"transaction"`
	Allocation    domain.PaymentAllocation `json:"allocation"`
	ReceiptNumber string                   `json:"receiptNumber"`
	LoanStatus    domain.LoanStatus        `json:"loanStatus"`
	Outstanding   decimal.Decimal          `json:"outstanding"`
}

// DisburseLoanRequest activates an approved loan and releases the funds.
type DisburseLoanRequest struct {
	MemberID string            `json:"memberID" binding:"required"`
	Amount   decimal.Decimal   `json:"amount" binding:"required"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// LoanResponse is the read-model shape of a loan.
type LoanResponse struct {
	LoanID             string            `json:"loanID"`
	MemberID           string            `json:"memberID"`
	AccountID          string            `json:"accountID"`
	PrincipalBalance   decimal.Decimal   `json:"principalBalance"`
	InterestBalance    decimal.Decimal   `json:"interestBalance"`
	PenaltyBalance     decimal.Decimal   `json:"penaltyBalance"`
	OutstandingBalance decimal.Decimal   `json:"outstandingBalance"`
	TotalPaid          decimal.Decimal   `json:"totalPaid"`
	Status             domain.LoanStatus `json:"status"`
}

// ToLoanResponse maps a domain loan to its read model.
func ToLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:             l.LoanID,
		MemberID:           l.MemberID,
		AccountID:          l.AccountID,
		PrincipalBalance:   l.PrincipalBalance,
		InterestBalance:    l.InterestBalance,
		PenaltyBalance:     l.PenaltyBalance,
		OutstandingBalance: l.OutstandingBalance,
		TotalPaid:          l.TotalPaid,
		Status:             l.Status,
	}
}
