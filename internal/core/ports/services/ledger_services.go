package services

import (
	"context"
	"time"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
)

// LedgerSvcFacade exposes read-side ledger operations. Posting is internal
// to the transaction path.
type LedgerSvcFacade interface {
	// GetTrialBalance aggregates debits and credits per chart code over all
	// posted, non-reversed entries up to asOf.
	GetTrialBalance(ctx context.Context, saccoID string, asOf time.Time) (*domain.TrialBalance, error)

	// ListEntriesByAccountCode retrieves a paginated ledger listing for one
	// chart code.
	ListEntriesByAccountCode(ctx context.Context, saccoID, accountCode string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}
