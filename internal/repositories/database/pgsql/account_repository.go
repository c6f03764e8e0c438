package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// accountColumns selects the account row joined with its loan, if any.
// Loan accounts carry their balances on the loans row; savings and share
// balances live on the accounts row itself.
const accountColumns = `
	a.account_id, a.sacco_id, a.member_id, a.account_number, a.kind, a.status,
	a.balance, a.available_balance, a.minimum_balance, a.share_count, a.share_value,
	a.created_at, a.created_by, a.last_updated_at, a.last_updated_by,
	l.loan_id, l.principal_balance, l.interest_balance, l.penalty_balance,
	l.outstanding_balance, l.total_paid, l.status, l.disbursed_at,
	l.created_at, l.created_by, l.last_updated_at, l.last_updated_by
`

const accountFrom = `
	FROM accounts a
	LEFT JOIN loans l ON l.account_id = a.account_id
`

type pgxRow interface {
	Scan(dest ...any) error
}

func scanAccount(row pgxRow) (*domain.Account, error) {
	var a domain.Account
	var balance, available, minimum, shareCount, shareValue decimal.NullDecimal
	var loanID, loanStatus, loanCreatedBy, loanUpdatedBy sql.NullString
	var principal, interest, penalty, outstanding, totalPaid decimal.NullDecimal
	var disbursedAt, loanCreatedAt, loanUpdatedAt sql.NullTime

	err := row.Scan(
		&a.AccountID, &a.SaccoID, &a.MemberID, &a.AccountNumber, &a.Kind, &a.Status,
		&balance, &available, &minimum, &shareCount, &shareValue,
		&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy,
		&loanID, &principal, &interest, &penalty,
		&outstanding, &totalPaid, &loanStatus, &disbursedAt,
		&loanCreatedAt, &loanCreatedBy, &loanUpdatedAt, &loanUpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	switch a.Kind {
	case domain.KindSavings:
		a.Savings = &domain.SavingsBalance{
			Balance:          balance.Decimal,
			AvailableBalance: available.Decimal,
			MinimumBalance:   minimum.Decimal,
		}
	case domain.KindShare:
		a.Share = &domain.ShareBalance{
			ShareCount: shareCount.Decimal,
			ShareValue: shareValue.Decimal,
		}
	case domain.KindLoan:
		if !loanID.Valid {
			return nil, apperrors.NewAppError(500, "loan account "+a.AccountID+" has no loan row", nil)
		}
		loan := &domain.Loan{
			LoanID:             loanID.String,
			SaccoID:            a.SaccoID,
			MemberID:           a.MemberID,
			AccountID:          a.AccountID,
			PrincipalBalance:   principal.Decimal,
			InterestBalance:    interest.Decimal,
			PenaltyBalance:     penalty.Decimal,
			OutstandingBalance: outstanding.Decimal,
			TotalPaid:          totalPaid.Decimal,
			Status:             domain.LoanStatus(loanStatus.String),
			AuditFields: domain.AuditFields{
				CreatedAt:     loanCreatedAt.Time,
				CreatedBy:     loanCreatedBy.String,
				LastUpdatedAt: loanUpdatedAt.Time,
				LastUpdatedBy: loanUpdatedBy.String,
			},
		}
		if disbursedAt.Valid {
			t := disbursedAt.Time
			loan.DisbursedAt = &t
		}
		a.Loan = loan
	}
	return &a, nil
}

// FindAccountByID retrieves a specific account by its unique identifier.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + accountFrom + ` WHERE a.account_id = $1;`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account by ID "+accountID, err)
	}
	return account, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountColumns + accountFrom + ` WHERE a.account_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by IDs", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts[account.AccountID] = *account
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// FindAccountByMember retrieves a member's account of the given kind within
// a SACCO.
func (r *PgxAccountRepository) FindAccountByMember(ctx context.Context, saccoID, memberID string, kind domain.AccountKind) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + accountFrom + `
		WHERE a.sacco_id = $1 AND a.member_id = $2 AND a.kind = $3
		ORDER BY a.created_at
		LIMIT 1;`
	account, err := scanAccount(r.Pool.QueryRow(ctx, query, saccoID, memberID, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account for member "+memberID, err)
	}
	return account, nil
}

// ListAccountsByKind retrieves all accounts of one kind for a SACCO.
func (r *PgxAccountRepository) ListAccountsByKind(ctx context.Context, saccoID string, kind domain.AccountKind) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + accountFrom + `
		WHERE a.sacco_id = $1 AND a.kind = $2
		ORDER BY a.created_at;`
	rows, err := r.Pool.Query(ctx, query, saccoID, kind)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by kind", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// SaveAccount persists a new account with its accountable entity. A loan
// account writes its loans row in the same database transaction.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var balance, available, minimum, shareCount, shareValue decimal.NullDecimal
	switch account.Kind {
	case domain.KindSavings:
		if account.Savings == nil {
			return apperrors.NewAppError(400, "savings account requires a savings balance", nil)
		}
		balance = decimal.NewNullDecimal(account.Savings.Balance)
		available = decimal.NewNullDecimal(account.Savings.AvailableBalance)
		minimum = decimal.NewNullDecimal(account.Savings.MinimumBalance)
	case domain.KindShare:
		if account.Share == nil {
			return apperrors.NewAppError(400, "share account requires a share balance", nil)
		}
		shareCount = decimal.NewNullDecimal(account.Share.ShareCount)
		shareValue = decimal.NewNullDecimal(account.Share.ShareValue)
	case domain.KindLoan:
		if account.Loan == nil {
			return apperrors.NewAppError(400, "loan account requires a loan", nil)
		}
	}

	accountQuery := `
		INSERT INTO accounts (
			account_id, sacco_id, member_id, account_number, kind, status,
			balance, available_balance, minimum_balance, share_count, share_value,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, accountQuery,
		account.AccountID, account.SaccoID, account.MemberID, account.AccountNumber,
		account.Kind, account.Status,
		balance, available, minimum, shareCount, shareValue,
		account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert account "+account.AccountID, err)
	}

	if account.Kind == domain.KindLoan {
		if err := insertLoanInTx(ctx, tx, *account.Loan); err != nil {
			return err
		}
	}

	return r.Commit(ctx, tx)
}

// findAccountsForUpdate locks the account rows (and joined loan rows) in ID
// order and returns fresh copies. Every requested ID must exist.
func (r *PgxAccountRepository) findAccountsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]*domain.Account, error) {
	sorted := make([]string, len(accountIDs))
	copy(sorted, accountIDs)
	sort.Strings(sorted)

	accounts := make(map[string]*domain.Account, len(sorted))
	query := `SELECT ` + accountColumns + accountFrom + ` WHERE a.account_id = $1 FOR UPDATE OF a;`
	// One row at a time in sorted order so concurrent postings acquire
	// locks in the same sequence and cannot deadlock.
	for _, id := range sorted {
		if _, seen := accounts[id]; seen {
			continue
		}
		account, err := scanAccount(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.ErrNotFound
			}
			return nil, apperrors.NewAppError(500, "failed to lock account "+id, err)
		}
		accounts[id] = account
	}
	return accounts, nil
}

// updateAccountsInTx persists mutated balances for the locked accounts.
func (r *PgxAccountRepository) updateAccountsInTx(ctx context.Context, tx pgx.Tx, accounts []*domain.Account) error {
	accountQuery := `
		UPDATE accounts
		SET balance = $2, available_balance = $3, minimum_balance = $4,
		    share_count = $5, share_value = $6, status = $7,
		    last_updated_at = $8, last_updated_by = $9
		WHERE account_id = $1;
	`
	loanQuery := `
		UPDATE loans
		SET principal_balance = $2, interest_balance = $3, penalty_balance = $4,
		    outstanding_balance = $5, total_paid = $6, status = $7, disbursed_at = $8,
		    last_updated_at = $9, last_updated_by = $10
		WHERE loan_id = $1;
	`
	for _, account := range accounts {
		var balance, available, minimum, shareCount, shareValue decimal.NullDecimal
		if account.Savings != nil {
			balance = decimal.NewNullDecimal(account.Savings.Balance)
			available = decimal.NewNullDecimal(account.Savings.AvailableBalance)
			minimum = decimal.NewNullDecimal(account.Savings.MinimumBalance)
		}
		if account.Share != nil {
			shareCount = decimal.NewNullDecimal(account.Share.ShareCount)
			shareValue = decimal.NewNullDecimal(account.Share.ShareValue)
		}
		_, err := tx.Exec(ctx, accountQuery,
			account.AccountID, balance, available, minimum, shareCount, shareValue,
			account.Status, account.LastUpdatedAt, account.LastUpdatedBy,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to update account "+account.AccountID, err)
		}

		if account.Loan != nil {
			loan := account.Loan
			_, err := tx.Exec(ctx, loanQuery,
				loan.LoanID, loan.PrincipalBalance, loan.InterestBalance, loan.PenaltyBalance,
				loan.OutstandingBalance, loan.TotalPaid, loan.Status, loan.DisbursedAt,
				account.LastUpdatedAt, account.LastUpdatedBy,
			)
			if err != nil {
				return apperrors.NewAppError(500, "failed to update loan "+loan.LoanID, err)
			}
		}
	}
	return nil
}
