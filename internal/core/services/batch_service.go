package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
)

// BatchService runs periodic fan-out jobs. Each member is one ordinary call
// into the transaction engine, so per-member atomicity and ledger posting
// come for free. A member-level failure is recorded and the batch continues;
// one bad account never blocks the rest of the SACCO.
type BatchService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	txnSvc      portssvc.TransactionSvcFacade
}

// NewBatchService creates the batch job runner.
func NewBatchService(accountRepo portsrepo.AccountRepositoryFacade, txnSvc portssvc.TransactionSvcFacade, clock Clock) *BatchService {
	return &BatchService{
		BaseService: BaseService{Clock: clock},
		accountRepo: accountRepo,
		txnSvc:      txnSvc,
	}
}

var _ portssvc.BatchSvcFacade = (*BatchService)(nil)

// PostSavingsInterest credits rate * balance to every active savings account.
// Interest is rounded to two decimal places; accounts whose computed
// interest rounds to zero are skipped.
func (s *BatchService) PostSavingsInterest(ctx context.Context, saccoID string, req dto.InterestBatchRequest, actorID string) (*dto.BatchResult, error) {
	if req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: interest rate must be positive", apperrors.ErrValidation)
	}
	return s.run(ctx, saccoID, domain.KindSavings, actorID, func(account *domain.Account) (decimal.Decimal, domain.TransactionType) {
		if account.Savings == nil {
			return decimal.Zero, domain.TypeInterest
		}
		return account.Savings.Balance.Mul(req.Rate).Round(2), domain.TypeInterest
	})
}

// PayDividends credits amountPerShare * shares held to every active share
// account.
func (s *BatchService) PayDividends(ctx context.Context, saccoID string, req dto.DividendBatchRequest, actorID string) (*dto.BatchResult, error) {
	if req.AmountPerShare.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: dividend per share must be positive", apperrors.ErrValidation)
	}
	return s.run(ctx, saccoID, domain.KindShare, actorID, func(account *domain.Account) (decimal.Decimal, domain.TransactionType) {
		if account.Share == nil {
			return decimal.Zero, domain.TypeDividend
		}
		return account.Share.ShareCount.Mul(req.AmountPerShare).Round(2), domain.TypeDividend
	})
}

func (s *BatchService) run(ctx context.Context, saccoID string, kind domain.AccountKind, actorID string, compute func(*domain.Account) (decimal.Decimal, domain.TransactionType)) (*dto.BatchResult, error) {
	accounts, err := s.accountRepo.ListAccountsByKind(ctx, saccoID, kind)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for batch", slog.String("kind", string(kind)))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	result := &dto.BatchResult{}
	for i := range accounts {
		account := &accounts[i]
		if !account.IsActive() {
			continue
		}
		amount, txnType := compute(account)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		result.Processed++

		_, err := s.txnSvc.ProcessTransaction(ctx, saccoID, dto.ProcessTransactionRequest{
			MemberID:  account.MemberID,
			AccountID: account.AccountID,
			Type:      txnType,
			Amount:    amount,
			Metadata:  map[string]string{"batch": string(txnType)},
		}, actorID)
		if err != nil {
			s.LogWarn(ctx, "Batch member failed",
				slog.String("account_id", account.AccountID),
				slog.String("error", err.Error()))
			result.Failures = append(result.Failures, dto.BatchFailure{
				AccountID: account.AccountID,
				MemberID:  account.MemberID,
				Error:     err.Error(),
			})
			continue
		}
		result.Succeeded++
	}

	s.LogInfo(ctx, "Batch run finished",
		slog.String("kind", string(kind)),
		slog.Int("processed", result.Processed),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", len(result.Failures)))
	return result, nil
}
