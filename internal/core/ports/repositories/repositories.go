package repositories

import (
	"context"
	"time"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
)

// ReversalMark flags an original transaction (and its ledger entries) as
// reversed within the same atomic unit that persists the compensating
// transaction.
type ReversalMark struct {
	TransactionID           string
	ReversedByTransactionID string
	ReversedBy              string
	ReversedAt              time.Time
	Reason                  string
}

// Posting is the atomic unit produced by the service layer: transactions,
// their ledger legs, the mutated account balances, and optional riders.
// Everything in one Posting commits or fails together.
type Posting struct {
	Transactions []domain.Transaction
	Entries      []domain.LedgerEntry
	Accounts     []*domain.Account // mutated state to persist, loan included
	Repayment    *domain.LoanRepayment
	MarkReversed *ReversalMark
}

// RepositoryProvider holds all repository interfaces needed by services.
// This provides a single point of access for all data storage operations.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
	LedgerRepo      LedgerRepositoryFacade
	LoanRepo        LoanRepositoryFacade
	SequenceRepo    SequenceSource
}

// PostingExecutor serializes concurrent operations against the same
// accounts. ExecutePosting locks the given account rows (in ID order, to
// avoid deadlocks), loads fresh copies, invokes build under the lock, and
// persists the returned posting atomically. A build error aborts with zero
// observable state. Missing accounts surface apperrors.ErrNotFound.
type PostingExecutor interface {
	ExecutePosting(ctx context.Context, saccoID string, accountIDs []string,
		build func(accounts map[string]*domain.Account) (*Posting, error)) error
}
