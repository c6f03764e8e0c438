package pgsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	"github.com/coopfin/sacco_core_app/internal/utils/pagination"
)

type PgxTransactionRepository struct {
	BaseRepository
	accountRepo *PgxAccountRepository
}

// newPgxTransactionRepository creates a new repository for transaction data
// and the atomic posting path.
func newPgxTransactionRepository(pool *pgxpool.Pool, accountRepo *PgxAccountRepository) *PgxTransactionRepository {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// ExecutePosting locks the given accounts in ID order, loads fresh copies,
// invokes build under the lock, and persists the returned posting in one
// database transaction. A build error rolls back with zero observable state.
func (r *PgxTransactionRepository) ExecutePosting(ctx context.Context, saccoID string, accountIDs []string, build func(accounts map[string]*domain.Account) (*portsrepo.Posting, error)) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	accounts, err := r.accountRepo.findAccountsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		if account.SaccoID != saccoID {
			return apperrors.ErrNotFound
		}
	}

	posting, err := build(accounts)
	if err != nil {
		return err
	}

	for i := range posting.Transactions {
		if err := insertTransactionInTx(ctx, tx, posting.Transactions[i]); err != nil {
			return err
		}
	}
	if err := insertEntriesInTx(ctx, tx, posting.Entries); err != nil {
		return err
	}
	if posting.Repayment != nil {
		if err := insertRepaymentInTx(ctx, tx, *posting.Repayment); err != nil {
			return err
		}
	}
	if err := r.accountRepo.updateAccountsInTx(ctx, tx, posting.Accounts); err != nil {
		return err
	}
	if posting.MarkReversed != nil {
		if err := markReversedInTx(ctx, tx, *posting.MarkReversed); err != nil {
			return err
		}
	}

	return r.Commit(ctx, tx)
}

func insertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	var metadata []byte
	if txn.Metadata != nil {
		var err error
		metadata, err = json.Marshal(txn.Metadata)
		if err != nil {
			return apperrors.NewAppError(500, "failed to marshal transaction metadata", err)
		}
	}

	query := `
		INSERT INTO transactions (
			transaction_id, transaction_number, sacco_id, member_id, account_id,
			type, amount, fee_amount, net_amount, balance_before, balance_after,
			status, related_loan_id, processed_by, metadata,
			reversal_of_id, reversal_reason,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	_, err := tx.Exec(ctx, query,
		txn.TransactionID, txn.TransactionNumber, txn.SaccoID, txn.MemberID, txn.AccountID,
		txn.Type, txn.Amount, txn.FeeAmount, txn.NetAmount, txn.BalanceBefore, txn.BalanceAfter,
		txn.Status, txn.RelatedLoanID, txn.ProcessedBy, metadata,
		txn.ReversalOfID, nullIfEmpty(txn.ReversalReason),
		txn.CreatedAt, txn.CreatedBy, txn.LastUpdatedAt, txn.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert transaction "+txn.TransactionID, err)
	}
	return nil
}

func insertEntriesInTx(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_entries (
			entry_id, sacco_id, transaction_id, account_code,
			debit_amount, credit_amount, status, posted_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for i := range entries {
		e := entries[i]
		batch.Queue(query,
			e.EntryID, e.SaccoID, e.TransactionID, e.AccountCode,
			e.DebitAmount, e.CreditAmount, e.Status, e.PostedAt,
			e.CreatedAt, e.CreatedBy, e.LastUpdatedAt, e.LastUpdatedBy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger entries", err)
	}
	return nil
}

// markReversedInTx flags the original transaction and its ledger entries as
// reversed. The guard on reversed_by_id makes a concurrent double reversal
// lose cleanly instead of flagging twice.
func markReversedInTx(ctx context.Context, tx pgx.Tx, mark portsrepo.ReversalMark) error {
	txnQuery := `
		UPDATE transactions
		SET status = $2, reversed_by_id = $3, reversed_at = $4, reversal_reason = $5,
		    last_updated_at = $4, last_updated_by = $6
		WHERE transaction_id = $1 AND status = $7 AND reversed_by_id IS NULL;
	`
	tag, err := tx.Exec(ctx, txnQuery,
		mark.TransactionID, domain.TxnReversed, mark.ReversedByTransactionID,
		mark.ReversedAt, mark.Reason, mark.ReversedBy, domain.TxnCompleted,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to flag transaction "+mark.TransactionID+" reversed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotReversible
	}

	entryQuery := `
		UPDATE ledger_entries
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1;
	`
	if _, err := tx.Exec(ctx, entryQuery, mark.TransactionID, domain.EntryReversed, mark.ReversedAt, mark.ReversedBy); err != nil {
		return apperrors.NewAppError(500, "failed to flag ledger entries reversed for "+mark.TransactionID, err)
	}
	return nil
}

const transactionColumns = `
	transaction_id, transaction_number, sacco_id, member_id, account_id,
	type, amount, fee_amount, net_amount, balance_before, balance_after,
	status, related_loan_id, processed_by, metadata,
	reversal_of_id, reversed_by_id, reversed_at, reversal_reason,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanTransaction(row pgxRow) (*domain.Transaction, error) {
	var t domain.Transaction
	var metadata []byte
	var reversedAt sql.NullTime
	var reversalReason sql.NullString

	err := row.Scan(
		&t.TransactionID, &t.TransactionNumber, &t.SaccoID, &t.MemberID, &t.AccountID,
		&t.Type, &t.Amount, &t.FeeAmount, &t.NetAmount, &t.BalanceBefore, &t.BalanceAfter,
		&t.Status, &t.RelatedLoanID, &t.ProcessedBy, &metadata,
		&t.ReversalOfID, &t.ReversedByID, &reversedAt, &reversalReason,
		&t.CreatedAt, &t.CreatedBy, &t.LastUpdatedAt, &t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, apperrors.NewAppError(500, "failed to unmarshal transaction metadata", err)
		}
	}
	if reversedAt.Valid {
		at := reversedAt.Time
		t.ReversedAt = &at
	}
	t.ReversalReason = reversalReason.String
	return &t, nil
}

// FindTransactionByID retrieves a transaction by its unique identifier.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by ID "+transactionID, err)
	}
	return txn, nil
}

// ListTransactionsByAccountID retrieves a paginated list of transactions for
// a specific account using token-based pagination.
func (r *PgxTransactionRepository) ListTransactionsByAccountID(ctx context.Context, saccoID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE sacco_id = $1 AND account_id = $2
	`
	orderByClause := `ORDER BY created_at DESC, transaction_id DESC`

	args := []any{saccoID, accountID}
	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (created_at, transaction_id) < ($3, $4) `
		args = append(args, lastCreatedAt, lastID)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for account "+accountID, err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	var next *string
	if len(transactions) > limit {
		transactions = transactions[:limit]
		last := transactions[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		next = &token
	}
	return transactions, next, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
