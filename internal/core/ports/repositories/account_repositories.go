package repositories

import (
	"context"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// FindAccountByMember retrieves a member's account of the given kind
	// within a SACCO.
	FindAccountByMember(ctx context.Context, saccoID, memberID string, kind domain.AccountKind) (*domain.Account, error)

	// ListAccountsByKind retrieves all accounts of one kind for a SACCO.
	// Batch jobs iterate this to post interest or dividends per member.
	ListAccountsByKind(ctx context.Context, saccoID string, kind domain.AccountKind) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account with its accountable entity.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
