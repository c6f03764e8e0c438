package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
)

type PgxLoanRepository struct {
	BaseRepository
}

// newPgxLoanRepository creates a new repository for loan data.
func newPgxLoanRepository(pool *pgxpool.Pool) *PgxLoanRepository {
	return &PgxLoanRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

const loanColumns = `
	loan_id, sacco_id, member_id, account_id,
	principal_balance, interest_balance, penalty_balance, outstanding_balance, total_paid,
	status, disbursed_at,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanLoan(row pgxRow) (*domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(
		&l.LoanID, &l.SaccoID, &l.MemberID, &l.AccountID,
		&l.PrincipalBalance, &l.InterestBalance, &l.PenaltyBalance, &l.OutstandingBalance, &l.TotalPaid,
		&l.Status, &l.DisbursedAt,
		&l.CreatedAt, &l.CreatedBy, &l.LastUpdatedAt, &l.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindLoanByID retrieves a loan by its unique identifier.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1;`
	loan, err := scanLoan(r.Pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find loan by ID "+loanID, err)
	}
	return loan, nil
}

const repaymentColumns = `
	repayment_id, loan_id, transaction_id, receipt_number,
	amount, penalty_applied, interest_applied, principal_applied, outstanding_after,
	paid_at, created_at, created_by, last_updated_at, last_updated_by
`

func scanRepayment(row pgxRow) (*domain.LoanRepayment, error) {
	var p domain.LoanRepayment
	err := row.Scan(
		&p.RepaymentID, &p.LoanID, &p.TransactionID, &p.ReceiptNumber,
		&p.Amount, &p.PenaltyApplied, &p.InterestApplied, &p.PrincipalApplied, &p.OutstandingAfter,
		&p.PaidAt, &p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindRepaymentByTransactionID retrieves the repayment row recorded for a
// repayment transaction, if any.
func (r *PgxLoanRepository) FindRepaymentByTransactionID(ctx context.Context, transactionID string) (*domain.LoanRepayment, error) {
	query := `SELECT ` + repaymentColumns + ` FROM loan_repayments WHERE transaction_id = $1;`
	repayment, err := scanRepayment(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find repayment for transaction "+transactionID, err)
	}
	return repayment, nil
}

// ListRepaymentsByLoanID retrieves all payment events for a loan.
func (r *PgxLoanRepository) ListRepaymentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanRepayment, error) {
	query := `SELECT ` + repaymentColumns + ` FROM loan_repayments WHERE loan_id = $1 ORDER BY paid_at;`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query repayments for loan "+loanID, err)
	}
	defer rows.Close()

	var repayments []domain.LoanRepayment
	for rows.Next() {
		p, err := scanRepayment(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan repayment row", err)
		}
		repayments = append(repayments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating repayment rows", err)
	}
	return repayments, nil
}

// SaveLoan persists a new loan.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertLoanInTx(ctx, tx, loan); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateLoanStatus updates the loan's status only. Balance-affecting changes
// go through the posting path.
func (r *PgxLoanRepository) UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, updatedBy string) error {
	query := `
		UPDATE loans
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE loan_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, loanID, status, time.Now().UTC(), updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status for loan "+loanID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func insertLoanInTx(ctx context.Context, tx pgx.Tx, loan domain.Loan) error {
	query := `
		INSERT INTO loans (
			loan_id, sacco_id, member_id, account_id,
			principal_balance, interest_balance, penalty_balance, outstanding_balance, total_paid,
			status, disbursed_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := tx.Exec(ctx, query,
		loan.LoanID, loan.SaccoID, loan.MemberID, loan.AccountID,
		loan.PrincipalBalance, loan.InterestBalance, loan.PenaltyBalance, loan.OutstandingBalance, loan.TotalPaid,
		loan.Status, loan.DisbursedAt,
		loan.CreatedAt, loan.CreatedBy, loan.LastUpdatedAt, loan.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert loan "+loan.LoanID, err)
	}
	return nil
}

func insertRepaymentInTx(ctx context.Context, tx pgx.Tx, p domain.LoanRepayment) error {
	query := `
		INSERT INTO loan_repayments (
			repayment_id, loan_id, transaction_id, receipt_number,
			amount, penalty_applied, interest_applied, principal_applied, outstanding_after,
			paid_at, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		p.RepaymentID, p.LoanID, p.TransactionID, p.ReceiptNumber,
		p.Amount, p.PenaltyApplied, p.InterestApplied, p.PrincipalApplied, p.OutstandingAfter,
		p.PaidAt, p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert repayment "+p.RepaymentID, err)
	}
	return nil
}
