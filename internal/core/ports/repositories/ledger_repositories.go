package repositories

import (
	"context"
	"time"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
)

// LedgerReader defines read operations over general ledger entries.
type LedgerReader interface {
	// FindEntriesByTransactionID retrieves the ledger legs of one transaction.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccountCode retrieves a paginated list of entries posted
	// to one chart code.
	ListEntriesByAccountCode(ctx context.Context, saccoID, accountCode string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// GetTrialBalanceData aggregates debit/credit sums per chart code over
	// posted, non-reversed entries up to asOf.
	GetTrialBalanceData(ctx context.Context, saccoID string, asOf time.Time) ([]domain.TrialBalanceRow, error)
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces.
// Entries are written only through PostingExecutor.
type LedgerRepositoryFacade interface {
	LedgerReader
}
