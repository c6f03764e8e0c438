package repositories

import (
	"context"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
)

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its unique identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccountID retrieves a paginated list of transactions
	// for a specific account using token-based pagination.
	ListTransactionsByAccountID(ctx context.Context, saccoID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// TransactionRepositoryFacade combines transaction reads with the atomic
// posting path. All transaction writes go through ExecutePosting; there is
// deliberately no standalone transaction writer.
type TransactionRepositoryFacade interface {
	TransactionReader
	PostingExecutor
}
