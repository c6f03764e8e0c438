package repositories

import (
	"context"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
)

// LoanReader defines read operations for loan data.
type LoanReader interface {
	// FindLoanByID retrieves a loan by its unique identifier.
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// FindRepaymentByTransactionID retrieves the repayment row recorded for
	// a repayment transaction, if any.
	FindRepaymentByTransactionID(ctx context.Context, transactionID string) (*domain.LoanRepayment, error)

	// ListRepaymentsByLoanID retrieves all payment events for a loan.
	ListRepaymentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanRepayment, error)
}

// LoanWriter defines write operations for loan data outside the posting
// path (application-stage status moves that touch no balances).
type LoanWriter interface {
	// SaveLoan persists a new loan.
	SaveLoan(ctx context.Context, loan domain.Loan) error

	// UpdateLoanStatus updates the loan's status only. Balance-affecting
	// changes go through PostingExecutor.
	UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, updatedBy string) error
}

// LoanRepositoryFacade combines all loan-related repository interfaces.
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
}
