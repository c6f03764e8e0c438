package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
)

const (
	transactionSequence = "transaction"
	receiptSequence     = "receipt"

	transactionPrefix = "TXN"
	receiptPrefix     = "RCP"

	// maxSequenceRetries bounds retry-on-conflict for sequence issuance.
	maxSequenceRetries = 3
)

// TransactionNumberGenerator issues SACCO-scoped, collision-free
// transaction and receipt numbers from a persisted atomic counter.
type TransactionNumberGenerator struct {
	seq portsrepo.SequenceSource
}

// NewTransactionNumberGenerator creates a generator over the given source.
func NewTransactionNumberGenerator(seq portsrepo.SequenceSource) *TransactionNumberGenerator {
	return &TransactionNumberGenerator{seq: seq}
}

// NextTransactionNumber returns the next transaction number, e.g. TXN-000042.
func (g *TransactionNumberGenerator) NextTransactionNumber(ctx context.Context, saccoID string) (string, error) {
	return g.next(ctx, saccoID, transactionSequence, transactionPrefix)
}

// NextReceiptNumber returns the next repayment receipt number, e.g. RCP-000007.
func (g *TransactionNumberGenerator) NextReceiptNumber(ctx context.Context, saccoID string) (string, error) {
	return g.next(ctx, saccoID, receiptSequence, receiptPrefix)
}

func (g *TransactionNumberGenerator) next(ctx context.Context, saccoID, name, prefix string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxSequenceRetries; attempt++ {
		n, err := g.seq.Next(ctx, saccoID, name)
		if err == nil {
			return fmt.Sprintf("%s-%06d", prefix, n), nil
		}
		if !errors.Is(err, apperrors.ErrTransient) && !errors.Is(err, apperrors.ErrDuplicate) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: sequence %s/%s exhausted %d attempts: %v",
		apperrors.ErrTransient, saccoID, name, maxSequenceRetries, lastErr)
}
