package services

import (
	"context"

	"github.com/coopfin/sacco_core_app/internal/dto"
)

// TransactionSvcFacade is the engine's main entry point. One call is one
// atomic unit: balance mutation, transaction insert, and ledger posting
// commit or fail together.
type TransactionSvcFacade interface {
	// ProcessTransaction validates, mutates the balance, persists the
	// transaction, and posts its ledger legs atomically.
	ProcessTransaction(ctx context.Context, saccoID string, req dto.ProcessTransactionRequest, actorID string) (*dto.ProcessTransactionResult, error)

	// Transfer moves funds between two member accounts in one atomic unit.
	Transfer(ctx context.Context, saccoID string, req dto.TransferRequest, actorID string) (*dto.TransferResult, error)

	// GetTransactionByID retrieves a transaction.
	GetTransactionByID(ctx context.Context, saccoID, transactionID string) (*dto.TransactionResponse, error)

	// ListTransactionsByAccount retrieves a paginated account statement.
	ListTransactionsByAccount(ctx context.Context, saccoID, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// ReversalSvcFacade creates compensating transactions. History is never
// mutated; restoration of balances happens exclusively through the new
// transaction.
type ReversalSvcFacade interface {
	ReverseTransaction(ctx context.Context, saccoID, transactionID, reason, actorID string) (*dto.ProcessTransactionResult, error)
}
