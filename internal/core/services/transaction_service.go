package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
)

// TransactionService orchestrates validation, balance mutation, transaction
// persistence, and ledger posting into one atomic unit. All validation and
// mutation runs inside the posting callback, under the account locks, so a
// sufficiency check can never pass against a stale balance.
type TransactionService struct {
	BaseService
	txnRepo     portsrepo.TransactionRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	loanRepo    portsrepo.LoanRepositoryFacade
	balanceSvc  *BalanceService
	ledgerSvc   *LedgerService
	numbers     *TransactionNumberGenerator
	publisher   portssvc.TransactionEventPublisher
	overpayment domain.OverpaymentPolicy
}

// NewTransactionService wires the engine's orchestrator.
func NewTransactionService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	loanRepo portsrepo.LoanRepositoryFacade,
	balanceSvc *BalanceService,
	ledgerSvc *LedgerService,
	numbers *TransactionNumberGenerator,
	publisher portssvc.TransactionEventPublisher,
	overpayment domain.OverpaymentPolicy,
	clock Clock,
) *TransactionService {
	return &TransactionService{
		BaseService: BaseService{Clock: clock},
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		loanRepo:    loanRepo,
		balanceSvc:  balanceSvc,
		ledgerSvc:   ledgerSvc,
		numbers:     numbers,
		publisher:   publisher,
		overpayment: overpayment,
	}
}

var _ portssvc.TransactionSvcFacade = (*TransactionService)(nil)

// ProcessTransaction validates the request, mutates the account balance,
// persists the transaction as completed, and posts its ledger legs. Any
// failure aborts the whole operation with zero observable state; a failed
// transaction is never durably recorded.
func (s *TransactionService) ProcessTransaction(ctx context.Context, saccoID string, req dto.ProcessTransactionRequest, actorID string) (*dto.ProcessTransactionResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	// Load reversal context up front; the original is immutable so this is
	// safe outside the lock. Concurrent double-reversal is caught by the
	// repository when it flags the original.
	var original *domain.Transaction
	var originalAlloc *domain.PaymentAllocation
	if req.ReversalOfID != nil {
		var err error
		original, originalAlloc, err = s.loadReversalContext(ctx, saccoID, *req.ReversalOfID)
		if err != nil {
			return nil, err
		}
	}

	number, err := s.numbers.NextTransactionNumber(ctx, saccoID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue transaction number: %w", err)
	}

	accountIDs := []string{req.AccountID}

	// Pre-resolve the overflow target so the overpayment remainder can be
	// credited inside the same atomic unit.
	var overflow *overflowTarget
	if req.Type == domain.TypeLoanRepayment && s.overpayment == domain.OverpaymentCreditSavings {
		overflow, err = s.resolveOverflowTarget(ctx, saccoID, req.MemberID)
		if err != nil {
			return nil, err
		}
		accountIDs = append(accountIDs, overflow.accountID)
	}

	// Pre-issue the number for the funding withdrawal when the repayment is
	// drawn from savings.
	var sourceNumber string
	if req.SourceAccountID != nil {
		accountIDs = append(accountIDs, *req.SourceAccountID)
		sourceNumber, err = s.numbers.NextTransactionNumber(ctx, saccoID)
		if err != nil {
			return nil, fmt.Errorf("failed to issue transaction number: %w", err)
		}
	}

	var result *dto.ProcessTransactionResult
	var completed []domain.Transaction

	err = s.txnRepo.ExecutePosting(ctx, saccoID, accountIDs, func(accounts map[string]*domain.Account) (*portsrepo.Posting, error) {
		account, ok := accounts[req.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, req.AccountID)
		}
		if err := s.checkOwnership(account, saccoID, req.MemberID); err != nil {
			return nil, err
		}
		if !account.IsActive() {
			return nil, fmt.Errorf("%w: account %s is %s", apperrors.ErrInactiveAccount, account.AccountID, account.Status)
		}

		netAmount := req.Amount.Sub(req.FeeAmount)
		now := s.Now()

		txn := domain.Transaction{
			TransactionID:     uuid.NewString(),
			TransactionNumber: number,
			SaccoID:           saccoID,
			MemberID:          req.MemberID,
			AccountID:         req.AccountID,
			Type:              req.Type,
			Amount:            req.Amount,
			FeeAmount:         req.FeeAmount,
			NetAmount:         netAmount,
			Status:            domain.TxnCompleted,
			RelatedLoanID:     req.RelatedLoanID,
			ProcessedBy:       actorID,
			Metadata:          cloneMetadata(req.Metadata),
			ReversalOfID:      req.ReversalOfID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}

		posting := &portsrepo.Posting{Accounts: []*domain.Account{account}}
		var alloc *domain.PaymentAllocation

		switch {
		case original != nil:
			before, after, err := s.applyReversal(account, original, originalAlloc)
			if err != nil {
				return nil, err
			}
			txn.BalanceBefore, txn.BalanceAfter = before, after
			alloc = originalAlloc
			if txn.Metadata == nil {
				txn.Metadata = map[string]string{}
			}
			txn.Metadata["reversal_of"] = original.TransactionID
			posting.MarkReversed = &portsrepo.ReversalMark{
				TransactionID:           original.TransactionID,
				ReversedByTransactionID: txn.TransactionID,
				ReversedBy:              actorID,
				ReversedAt:              now,
				Reason:                  req.ReversalReason,
			}

		case req.Type == domain.TypeLoanRepayment:
			repayment, a, err := s.applyRepayment(ctx, account, &txn, netAmount, overflow, accounts, posting)
			if err != nil {
				return nil, err
			}
			alloc = a
			posting.Repayment = repayment
			if req.SourceAccountID != nil {
				if err := s.debitFundingSource(accounts, *req.SourceAccountID, sourceNumber, &txn, posting); err != nil {
					return nil, err
				}
			}

		case req.Type == domain.TypeLoanDisbursement:
			if account.Kind != domain.KindLoan || account.Loan == nil {
				return nil, fmt.Errorf("%w: account %s is not a loan account", apperrors.ErrValidation, account.AccountID)
			}
			if err := account.Loan.Transition(domain.LoanActive); err != nil {
				return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
			}
			disbursedAt := now
			account.Loan.DisbursedAt = &disbursedAt
			before, after, err := s.balanceSvc.Apply(account, req.Type, netAmount, false)
			if err != nil {
				return nil, err
			}
			txn.BalanceBefore, txn.BalanceAfter = before, after

		default:
			before, after, err := s.balanceSvc.Apply(account, req.Type, netAmount, false)
			if err != nil {
				return nil, err
			}
			txn.BalanceBefore, txn.BalanceAfter = before, after
		}

		entries, err := s.ledgerSvc.BuildEntries(txn, alloc)
		if err != nil {
			return nil, err
		}

		posting.Transactions = append([]domain.Transaction{txn}, posting.Transactions...)
		posting.Entries = append(entries, posting.Entries...)

		result = &dto.ProcessTransactionResult{
			TransactionID:     txn.TransactionID,
			TransactionNumber: txn.TransactionNumber,
			Status:            txn.Status,
			BalanceAfter:      txn.BalanceAfter,
			Allocation:        alloc,
		}
		if posting.Repayment != nil {
			result.ReceiptNumber = posting.Repayment.ReceiptNumber
		}
		completed = posting.Transactions
		return posting, nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Transaction processed",
		slog.String("transaction_number", result.TransactionNumber),
		slog.String("type", string(req.Type)),
		slog.String("account_id", req.AccountID))
	s.publishCompleted(ctx, completed)
	return result, nil
}

// Transfer debits one member savings account and credits another in one
// atomic unit. Both legs post together or not at all.
func (s *TransactionService) Transfer(ctx context.Context, saccoID string, req dto.TransferRequest, actorID string) (*dto.TransferResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: transfer amount must be positive", apperrors.ErrValidation)
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("%w: cannot transfer to the same account", apperrors.ErrValidation)
	}

	outNumber, err := s.numbers.NextTransactionNumber(ctx, saccoID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue transaction number: %w", err)
	}
	inNumber, err := s.numbers.NextTransactionNumber(ctx, saccoID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue transaction number: %w", err)
	}

	var result *dto.TransferResult
	var completed []domain.Transaction

	err = s.txnRepo.ExecutePosting(ctx, saccoID, []string{req.FromAccountID, req.ToAccountID}, func(accounts map[string]*domain.Account) (*portsrepo.Posting, error) {
		from, to := accounts[req.FromAccountID], accounts[req.ToAccountID]
		if from == nil || to == nil {
			return nil, fmt.Errorf("%w: transfer account", apperrors.ErrNotFound)
		}
		if err := s.checkOwnership(from, saccoID, req.FromMemberID); err != nil {
			return nil, err
		}
		if err := s.checkOwnership(to, saccoID, req.ToMemberID); err != nil {
			return nil, err
		}
		if !from.IsActive() || !to.IsActive() {
			return nil, fmt.Errorf("%w: both transfer accounts must be active", apperrors.ErrInactiveAccount)
		}

		now := s.Now()
		audit := domain.AuditFields{CreatedAt: now, CreatedBy: actorID, LastUpdatedAt: now, LastUpdatedBy: actorID}

		outBefore, outAfter, err := s.balanceSvc.Apply(from, domain.TypeTransferOut, req.Amount, false)
		if err != nil {
			return nil, err
		}
		inBefore, inAfter, err := s.balanceSvc.Apply(to, domain.TypeTransferIn, req.Amount, false)
		if err != nil {
			return nil, err
		}

		outTxn := domain.Transaction{
			TransactionID:     uuid.NewString(),
			TransactionNumber: outNumber,
			SaccoID:           saccoID,
			MemberID:          req.FromMemberID,
			AccountID:         req.FromAccountID,
			Type:              domain.TypeTransferOut,
			Amount:            req.Amount,
			NetAmount:         req.Amount,
			BalanceBefore:     outBefore,
			BalanceAfter:      outAfter,
			Status:            domain.TxnCompleted,
			ProcessedBy:       actorID,
			Metadata:          cloneMetadata(req.Metadata),
			AuditFields:       audit,
		}
		inTxn := domain.Transaction{
			TransactionID:     uuid.NewString(),
			TransactionNumber: inNumber,
			SaccoID:           saccoID,
			MemberID:          req.ToMemberID,
			AccountID:         req.ToAccountID,
			Type:              domain.TypeTransferIn,
			Amount:            req.Amount,
			NetAmount:         req.Amount,
			BalanceBefore:     inBefore,
			BalanceAfter:      inAfter,
			Status:            domain.TxnCompleted,
			ProcessedBy:       actorID,
			Metadata:          map[string]string{"counterpart": outTxn.TransactionID},
			AuditFields:       audit,
		}
		if outTxn.Metadata == nil {
			outTxn.Metadata = map[string]string{}
		}
		outTxn.Metadata["counterpart"] = inTxn.TransactionID

		outEntries, err := s.ledgerSvc.BuildEntries(outTxn, nil)
		if err != nil {
			return nil, err
		}
		inEntries, err := s.ledgerSvc.BuildEntries(inTxn, nil)
		if err != nil {
			return nil, err
		}

		posting := &portsrepo.Posting{
			Transactions: []domain.Transaction{outTxn, inTxn},
			Entries:      append(outEntries, inEntries...),
			Accounts:     []*domain.Account{from, to},
		}
		result = &dto.TransferResult{
			OutTransaction: dto.ProcessTransactionResult{
				TransactionID:     outTxn.TransactionID,
				TransactionNumber: outTxn.TransactionNumber,
				Status:            outTxn.Status,
				BalanceAfter:      outAfter,
			},
			InTransaction: dto.ProcessTransactionResult{
				TransactionID:     inTxn.TransactionID,
				TransactionNumber: inTxn.TransactionNumber,
				Status:            inTxn.Status,
				BalanceAfter:      inAfter,
			},
		}
		completed = posting.Transactions
		return posting, nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Transfer completed",
		slog.String("from_account", req.FromAccountID),
		slog.String("to_account", req.ToAccountID))
	s.publishCompleted(ctx, completed)
	return result, nil
}

// GetTransactionByID retrieves one transaction scoped to the SACCO.
func (s *TransactionService) GetTransactionByID(ctx context.Context, saccoID, transactionID string) (*dto.TransactionResponse, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.SaccoID != saccoID {
		return nil, apperrors.ErrNotFound // obscure existence across tenants
	}
	resp := dto.ToTransactionResponse(txn)
	return &resp, nil
}

// ListTransactionsByAccount retrieves a paginated account statement.
func (s *TransactionService) ListTransactionsByAccount(ctx context.Context, saccoID, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	txns, next, err := s.txnRepo.ListTransactionsByAccountID(ctx, saccoID, accountID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions by account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    next,
	}, nil
}

func (s *TransactionService) validateRequest(req dto.ProcessTransactionRequest) error {
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, req.Type)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if req.FeeAmount.IsNegative() {
		return fmt.Errorf("%w: fee amount cannot be negative", apperrors.ErrValidation)
	}
	if req.FeeAmount.GreaterThanOrEqual(req.Amount) {
		return fmt.Errorf("%w: fee amount must be less than amount", apperrors.ErrValidation)
	}
	return nil
}

func (s *TransactionService) checkOwnership(account *domain.Account, saccoID, memberID string) error {
	if account.SaccoID != saccoID {
		return apperrors.ErrNotFound // obscure existence across tenants
	}
	if account.MemberID != memberID {
		return fmt.Errorf("%w: account %s", apperrors.ErrAccountMismatch, account.AccountID)
	}
	return nil
}

// loadReversalContext fetches the original transaction and, for repayments,
// its recorded allocation so the waterfall can be restored tier by tier.
func (s *TransactionService) loadReversalContext(ctx context.Context, saccoID, originalID string) (*domain.Transaction, *domain.PaymentAllocation, error) {
	original, err := s.txnRepo.FindTransactionByID(ctx, originalID)
	if err != nil {
		return nil, nil, err
	}
	if original.SaccoID != saccoID {
		return nil, nil, apperrors.ErrNotFound
	}
	if !original.IsReversible() {
		return nil, nil, fmt.Errorf("%w: transaction %s has status %s", apperrors.ErrNotReversible, originalID, original.Status)
	}

	var alloc *domain.PaymentAllocation
	if original.Type == domain.TypeLoanRepayment {
		repayment, err := s.loanRepo.FindRepaymentByTransactionID(ctx, originalID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load repayment breakdown for reversal: %w", err)
		}
		alloc = &domain.PaymentAllocation{
			Penalty:   repayment.PenaltyApplied,
			Interest:  repayment.InterestApplied,
			Principal: repayment.PrincipalApplied,
		}
	}
	return original, alloc, nil
}

// applyReversal restores the balance effect of the original transaction.
func (s *TransactionService) applyReversal(account *domain.Account, original *domain.Transaction, alloc *domain.PaymentAllocation) (before, after decimal.Decimal, err error) {
	switch {
	case original.Type == domain.TypeLoanRepayment:
		if account.Loan == nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: account %s has no loan to restore", apperrors.ErrValidation, account.AccountID)
		}
		before = account.Loan.CurrentBalance()
		account.Loan.UnapplyPayment(*alloc)
		return before, account.Loan.CurrentBalance(), nil

	case original.Type == domain.TypeLoanDisbursement:
		if account.Loan == nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: account %s has no loan to restore", apperrors.ErrValidation, account.AccountID)
		}
		before = account.Loan.CurrentBalance()
		account.Loan.ReverseDisbursement(original.NetAmount)
		return before, account.Loan.CurrentBalance(), nil

	default:
		return s.balanceSvc.Apply(account, original.Type, original.NetAmount, true)
	}
}

// applyRepayment runs the waterfall under the account lock, records the
// repayment event, and handles the configured overpayment policy.
func (s *TransactionService) applyRepayment(ctx context.Context, account *domain.Account, txn *domain.Transaction, netAmount decimal.Decimal, overflow *overflowTarget, accounts map[string]*domain.Account, posting *portsrepo.Posting) (*domain.LoanRepayment, *domain.PaymentAllocation, error) {
	loan := account.Loan
	if account.Kind != domain.KindLoan || loan == nil {
		return nil, nil, fmt.Errorf("%w: account %s is not a loan account", apperrors.ErrValidation, account.AccountID)
	}
	if loan.Status != domain.LoanActive {
		return nil, nil, fmt.Errorf("%w: loan %s is %s, payments require an active loan", apperrors.ErrValidation, loan.LoanID, loan.Status)
	}
	if s.overpayment == domain.OverpaymentReject && netAmount.GreaterThan(loan.OutstandingBalance) {
		return nil, nil, fmt.Errorf("%w: payment %s exceeds outstanding balance %s",
			apperrors.ErrValidation, netAmount, loan.OutstandingBalance)
	}

	txn.BalanceBefore = loan.CurrentBalance()
	alloc := loan.ApplyPayment(netAmount)
	txn.BalanceAfter = loan.CurrentBalance()

	receipt, err := s.numbers.NextReceiptNumber(ctx, txn.SaccoID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue receipt number: %w", err)
	}

	now := s.Now()
	repayment := &domain.LoanRepayment{
		RepaymentID:      uuid.NewString(),
		LoanID:           loan.LoanID,
		TransactionID:    txn.TransactionID,
		ReceiptNumber:    receipt,
		Amount:           netAmount,
		PenaltyApplied:   alloc.Penalty,
		InterestApplied:  alloc.Interest,
		PrincipalApplied: alloc.Principal,
		OutstandingAfter: loan.OutstandingBalance,
		PaidAt:           now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     txn.ProcessedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: txn.ProcessedBy,
		},
	}

	if alloc.Remaining.GreaterThan(decimal.Zero) && s.overpayment == domain.OverpaymentCreditSavings && overflow != nil {
		if err := s.creditOverflow(accounts, overflow, txn, alloc.Remaining, posting); err != nil {
			return nil, nil, err
		}
	}
	return repayment, &alloc, nil
}

// overflowTarget identifies the member savings account that receives an
// overpayment remainder, with a pre-issued transaction number.
type overflowTarget struct {
	accountID string
	memberID  string
	number    string
}

func (s *TransactionService) resolveOverflowTarget(ctx context.Context, saccoID, memberID string) (*overflowTarget, error) {
	savings, err := s.accountRepo.FindAccountByMember(ctx, saccoID, memberID, domain.KindSavings)
	if err != nil {
		return nil, fmt.Errorf("overpayment policy needs a savings account for member %s: %w", memberID, err)
	}
	number, err := s.numbers.NextTransactionNumber(ctx, saccoID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue transaction number: %w", err)
	}
	return &overflowTarget{accountID: savings.AccountID, memberID: memberID, number: number}, nil
}

// creditOverflow adds a deposit of the overpayment remainder to the posting.
func (s *TransactionService) creditOverflow(accounts map[string]*domain.Account, overflow *overflowTarget, repaymentTxn *domain.Transaction, remaining decimal.Decimal, posting *portsrepo.Posting) error {
	savings, ok := accounts[overflow.accountID]
	if !ok {
		return fmt.Errorf("%w: savings account %s", apperrors.ErrNotFound, overflow.accountID)
	}
	before, after, err := s.balanceSvc.Apply(savings, domain.TypeDeposit, remaining, false)
	if err != nil {
		return err
	}

	now := s.Now()
	overflowTxn := domain.Transaction{
		TransactionID:     uuid.NewString(),
		TransactionNumber: overflow.number,
		SaccoID:           repaymentTxn.SaccoID,
		MemberID:          overflow.memberID,
		AccountID:         overflow.accountID,
		Type:              domain.TypeDeposit,
		Amount:            remaining,
		NetAmount:         remaining,
		BalanceBefore:     before,
		BalanceAfter:      after,
		Status:            domain.TxnCompleted,
		ProcessedBy:       repaymentTxn.ProcessedBy,
		Metadata:          map[string]string{"overpayment_of": repaymentTxn.TransactionID},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     repaymentTxn.ProcessedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: repaymentTxn.ProcessedBy,
		},
	}
	entries, err := s.ledgerSvc.BuildEntries(overflowTxn, nil)
	if err != nil {
		return err
	}

	posting.Transactions = append(posting.Transactions, overflowTxn)
	posting.Entries = append(posting.Entries, entries...)
	posting.Accounts = append(posting.Accounts, savings)
	return nil
}

// debitFundingSource withdraws the repayment amount from the member's
// savings account in the same posting. The withdrawal's cash leg cancels
// against the repayment's, leaving a net savings-to-loan movement.
func (s *TransactionService) debitFundingSource(accounts map[string]*domain.Account, sourceID, number string, repaymentTxn *domain.Transaction, posting *portsrepo.Posting) error {
	source, ok := accounts[sourceID]
	if !ok {
		return fmt.Errorf("%w: funding account %s", apperrors.ErrNotFound, sourceID)
	}
	if source.SaccoID != repaymentTxn.SaccoID || source.MemberID != repaymentTxn.MemberID {
		return fmt.Errorf("%w: funding account %s", apperrors.ErrAccountMismatch, sourceID)
	}
	if !source.IsActive() {
		return fmt.Errorf("%w: funding account %s is %s", apperrors.ErrInactiveAccount, sourceID, source.Status)
	}

	before, after, err := s.balanceSvc.Apply(source, domain.TypeWithdrawal, repaymentTxn.Amount, false)
	if err != nil {
		return err
	}

	now := s.Now()
	withdrawal := domain.Transaction{
		TransactionID:     uuid.NewString(),
		TransactionNumber: number,
		SaccoID:           repaymentTxn.SaccoID,
		MemberID:          repaymentTxn.MemberID,
		AccountID:         sourceID,
		Type:              domain.TypeWithdrawal,
		Amount:            repaymentTxn.Amount,
		NetAmount:         repaymentTxn.Amount,
		BalanceBefore:     before,
		BalanceAfter:      after,
		Status:            domain.TxnCompleted,
		ProcessedBy:       repaymentTxn.ProcessedBy,
		Metadata:          map[string]string{"funds_repayment": repaymentTxn.TransactionID},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     repaymentTxn.ProcessedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: repaymentTxn.ProcessedBy,
		},
	}
	entries, err := s.ledgerSvc.BuildEntries(withdrawal, nil)
	if err != nil {
		return err
	}

	posting.Transactions = append(posting.Transactions, withdrawal)
	posting.Entries = append(posting.Entries, entries...)
	posting.Accounts = append(posting.Accounts, source)
	return nil
}

func (s *TransactionService) publishCompleted(ctx context.Context, txns []domain.Transaction) {
	if s.publisher == nil {
		return
	}
	for i := range txns {
		if err := s.publisher.PublishTransactionCompleted(ctx, txns[i]); err != nil {
			// Event delivery is best effort; the ledger is the source of truth.
			s.LogWarn(ctx, "Failed to publish transaction event",
				slog.String("transaction_id", txns[i].TransactionID),
				slog.String("error", err.Error()))
		}
	}
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
