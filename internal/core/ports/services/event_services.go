package services

import (
	"context"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
)

// TransactionEventPublisher emits domain events after a posting commits.
// Delivery is best effort; implementations must not affect the outcome of
// the transaction that produced the event.
type TransactionEventPublisher interface {
	PublishTransactionCompleted(ctx context.Context, txn domain.Transaction) error
	Close() error
}
