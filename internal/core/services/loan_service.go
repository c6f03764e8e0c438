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

// LoanService drives the loan lifecycle. Approval and rejection are pure
// status moves; disbursement and repayment are money movements delegated to
// the transaction engine, which runs the waterfall under the account lock.
type LoanService struct {
	BaseService
	loanRepo    portsrepo.LoanRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	txnSvc      portssvc.TransactionSvcFacade
}

// NewLoanService creates the loan lifecycle service.
func NewLoanService(loanRepo portsrepo.LoanRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, txnSvc portssvc.TransactionSvcFacade, clock Clock) *LoanService {
	return &LoanService{
		BaseService: BaseService{Clock: clock},
		loanRepo:    loanRepo,
		accountRepo: accountRepo,
		txnSvc:      txnSvc,
	}
}

var _ portssvc.LoanSvcFacade = (*LoanService)(nil)

// ApproveLoan moves a pending loan to approved.
func (s *LoanService) ApproveLoan(ctx context.Context, saccoID, loanID, actorID string) error {
	return s.transitionLoan(ctx, saccoID, loanID, domain.LoanApproved, actorID)
}

// RejectLoan moves a pending loan to rejected.
func (s *LoanService) RejectLoan(ctx context.Context, saccoID, loanID, actorID string) error {
	return s.transitionLoan(ctx, saccoID, loanID, domain.LoanRejected, actorID)
}

func (s *LoanService) transitionLoan(ctx context.Context, saccoID, loanID string, target domain.LoanStatus, actorID string) error {
	loan, err := s.findLoan(ctx, saccoID, loanID)
	if err != nil {
		return err
	}
	if err := loan.Transition(target); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if err := s.loanRepo.UpdateLoanStatus(ctx, loanID, target, actorID); err != nil {
		s.LogError(ctx, err, "Failed to update loan status", slog.String("loan_id", loanID))
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	s.LogInfo(ctx, "Loan status changed",
		slog.String("loan_id", loanID),
		slog.String("status", string(target)))
	return nil
}

// DisburseLoan releases funds on an approved loan. The disbursement
// transaction activates the loan and seeds its principal inside the same
// atomic unit.
func (s *LoanService) DisburseLoan(ctx context.Context, saccoID, loanID string, req dto.DisburseLoanRequest, actorID string) (*dto.ProcessTransactionResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: disbursement amount must be positive", apperrors.ErrValidation)
	}
	loan, err := s.findLoan(ctx, saccoID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.MemberID != req.MemberID {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrAccountMismatch, loanID)
	}
	if !loan.Status.CanTransitionTo(domain.LoanActive) {
		return nil, fmt.Errorf("%w: loan %s is %s, disbursement requires an approved loan",
			apperrors.ErrValidation, loanID, loan.Status)
	}

	txnReq := dto.ProcessTransactionRequest{
		MemberID:      req.MemberID,
		AccountID:     loan.AccountID,
		Type:          domain.TypeLoanDisbursement,
		Amount:        req.Amount,
		RelatedLoanID: &loan.LoanID,
		Metadata:      req.Metadata,
	}
	result, err := s.txnSvc.ProcessTransaction(ctx, saccoID, txnReq, actorID)
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Loan disbursed",
		slog.String("loan_id", loanID),
		slog.String("transaction_number", result.TransactionNumber))
	return result, nil
}

// RepayLoan applies a payment through the waterfall. With FromSavings set
// the payment is funded by debiting the member's savings account in the same
// atomic unit instead of taking cash.
func (s *LoanService) RepayLoan(ctx context.Context, saccoID, loanID string, req dto.RepayLoanRequest, actorID string) (*dto.RepayLoanResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrValidation)
	}
	loan, err := s.findLoan(ctx, saccoID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.MemberID != req.MemberID {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrAccountMismatch, loanID)
	}

	txnReq := dto.ProcessTransactionRequest{
		MemberID:      req.MemberID,
		AccountID:     loan.AccountID,
		Type:          domain.TypeLoanRepayment,
		Amount:        req.Amount,
		RelatedLoanID: &loan.LoanID,
		Metadata:      req.Metadata,
	}
	if req.FromSavings {
		savings, err := s.accountRepo.FindAccountByMember(ctx, saccoID, req.MemberID, domain.KindSavings)
		if err != nil {
			return nil, fmt.Errorf("repayment from savings needs a savings account for member %s: %w", req.MemberID, err)
		}
		txnReq.SourceAccountID = &savings.AccountID
	}

	result, err := s.txnSvc.ProcessTransaction(ctx, saccoID, txnReq, actorID)
	if err != nil {
		return nil, err
	}

	// Re-read for the post-payment status and outstanding balance.
	updated, err := s.findLoan(ctx, saccoID, loanID)
	if err != nil {
		return nil, err
	}

	out := &dto.RepayLoanResult{
		Transaction:   *result,
		ReceiptNumber: result.ReceiptNumber,
		LoanStatus:    updated.Status,
		Outstanding:   updated.OutstandingBalance,
	}
	if result.Allocation != nil {
		out.Allocation = *result.Allocation
	}
	return out, nil
}

// GetLoanByID retrieves one loan scoped to the SACCO.
func (s *LoanService) GetLoanByID(ctx context.Context, saccoID, loanID string) (*dto.LoanResponse, error) {
	loan, err := s.findLoan(ctx, saccoID, loanID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToLoanResponse(loan)
	return &resp, nil
}

func (s *LoanService) findLoan(ctx context.Context, saccoID, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.SaccoID != saccoID {
		return nil, apperrors.ErrNotFound // obscure existence across tenants
	}
	return loan, nil
}
