package services

import (
	"context"

	"github.com/coopfin/sacco_core_app/internal/dto"
)

// LoanSvcFacade drives the loan lifecycle. Disbursement and repayment are
// real money movements and run through the transaction engine; approval and
// rejection are pure status moves.
type LoanSvcFacade interface {
	ApproveLoan(ctx context.Context, saccoID, loanID, actorID string) error
	RejectLoan(ctx context.Context, saccoID, loanID, actorID string) error

	// DisburseLoan releases funds on an approved loan and activates it.
	DisburseLoan(ctx context.Context, saccoID, loanID string, req dto.DisburseLoanRequest, actorID string) (*dto.ProcessTransactionResult, error)

	// RepayLoan applies a payment through the penalty -> interest ->
	// principal waterfall and records the repayment with a receipt number.
	RepayLoan(ctx context.Context, saccoID, loanID string, req dto.RepayLoanRequest, actorID string) (*dto.RepayLoanResult, error)

	GetLoanByID(ctx context.Context, saccoID, loanID string) (*dto.LoanResponse, error)
}
