package pgsql

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	"github.com/coopfin/sacco_core_app/internal/utils/pagination"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger entry reads.
// Entries are written only through the posting path.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const entryColumns = `
	entry_id, sacco_id, transaction_id, account_code,
	debit_amount, credit_amount, status, posted_at,
	created_at, created_by, last_updated_at, last_updated_by
`

func scanEntry(row pgxRow) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(
		&e.EntryID, &e.SaccoID, &e.TransactionID, &e.AccountCode,
		&e.DebitAmount, &e.CreditAmount, &e.Status, &e.PostedAt,
		&e.CreatedAt, &e.CreatedBy, &e.LastUpdatedAt, &e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindEntriesByTransactionID retrieves the ledger legs of one transaction.
func (r *PgxLedgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY entry_id;`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for transaction "+transactionID, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger entry rows", err)
	}
	return entries, nil
}

// ListEntriesByAccountCode retrieves a paginated list of entries posted to
// one chart code.
func (r *PgxLedgerRepository) ListEntriesByAccountCode(ctx context.Context, saccoID, accountCode string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := `SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE sacco_id = $1 AND account_code = $2
	`
	args := []any{saccoID, accountCode}
	if nextToken != nil && *nextToken != "" {
		lastPostedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND (posted_at, entry_id) < ($3, $4) `
		args = append(args, lastPostedAt, lastID)
	}
	query += ` ORDER BY posted_at DESC, entry_id DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for code "+accountCode, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating ledger entry rows", err)
	}

	var next *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeToken(last.PostedAt, last.EntryID)
		next = &token
	}
	return entries, next, nil
}

// GetTrialBalanceData aggregates debit/credit sums per chart code over
// posted, non-reversed entries up to asOf. Reversed pairs drop out of the
// report entirely rather than inflating both columns.
func (r *PgxLedgerRepository) GetTrialBalanceData(ctx context.Context, saccoID string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT account_code,
		       COALESCE(SUM(debit_amount), 0) AS debit_total,
		       COALESCE(SUM(credit_amount), 0) AS credit_total
		FROM ledger_entries
		WHERE sacco_id = $1 AND status = $2 AND posted_at <= $3
		GROUP BY account_code
		ORDER BY account_code;
	`
	rows, err := r.Pool.Query(ctx, query, saccoID, domain.EntryPosted, asOf)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query trial balance data", err)
	}
	defer rows.Close()

	var result []domain.TrialBalanceRow
	for rows.Next() {
		var row domain.TrialBalanceRow
		if err := rows.Scan(&row.AccountCode, &row.DebitTotal, &row.CreditTotal); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan trial balance row", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating trial balance rows", err)
	}
	return result, nil
}
