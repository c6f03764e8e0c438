package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
)

// ReversalService creates compensating transactions. The original record is
// never mutated beyond its reversal linkage; all balance restoration flows
// through a new transaction processed by the engine.
type ReversalService struct {
	BaseService
	txnRepo portsrepo.TransactionReader
	txnSvc  portssvc.TransactionSvcFacade
}

// NewReversalService creates the reversal engine on top of the transaction
// processor.
func NewReversalService(txnRepo portsrepo.TransactionReader, txnSvc portssvc.TransactionSvcFacade, clock Clock) *ReversalService {
	return &ReversalService{
		BaseService: BaseService{Clock: clock},
		txnRepo:     txnRepo,
		txnSvc:      txnSvc,
	}
}

var _ portssvc.ReversalSvcFacade = (*ReversalService)(nil)

// ReverseTransaction posts a compensating transaction for the original. The
// compensating transaction keeps the original's type with its monetary
// direction flipped, carries the original's net amount with no fee, and is
// linked to the original in both directions. Fees are not refunded.
func (s *ReversalService) ReverseTransaction(ctx context.Context, saccoID, transactionID, reason, actorID string) (*dto.ProcessTransactionResult, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: reversal reason is required", apperrors.ErrValidation)
	}

	original, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.SaccoID != saccoID {
		return nil, apperrors.ErrNotFound // obscure existence across tenants
	}
	if !original.IsReversible() {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotReversible, transactionID)
	}

	req := dto.ProcessTransactionRequest{
		MemberID:       original.MemberID,
		AccountID:      original.AccountID,
		Type:           original.Type,
		Amount:         original.NetAmount,
		FeeAmount:      decimal.Zero,
		RelatedLoanID:  original.RelatedLoanID,
		Metadata:       map[string]string{"reversal_of_number": original.TransactionNumber},
		ReversalOfID:   &original.TransactionID,
		ReversalReason: reason,
	}

	result, err := s.txnSvc.ProcessTransaction(ctx, saccoID, req, actorID)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Transaction reversed",
		slog.String("original_id", transactionID),
		slog.String("reversal_id", result.TransactionID),
		slog.String("reason", reason))
	return result, nil
}
