package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/utils/accounting"
)

// postingRule names the debit and credit chart codes for one transaction
// type. Loan repayments are special-cased because their credit side splits
// across the waterfall allocation.
type postingRule struct {
	debitCode  string
	creditCode string
}

// postingRules is the fixed mapping from transaction type to ledger legs.
var postingRules = map[domain.TransactionType]postingRule{
	domain.TypeDeposit:          {domain.CodeCash, domain.CodeMemberDeposits},
	domain.TypeWithdrawal:       {domain.CodeMemberDeposits, domain.CodeCash},
	domain.TypeTransferOut:      {domain.CodeMemberDeposits, domain.CodeMemberDeposits},
	domain.TypeTransferIn:       {domain.CodeMemberDeposits, domain.CodeMemberDeposits},
	domain.TypeLoanDisbursement: {domain.CodeLoansReceivable, domain.CodeCash},
	domain.TypeFee:              {domain.CodeMemberDeposits, domain.CodeFeeIncome},
	domain.TypeInterest:         {domain.CodeInterestExpense, domain.CodeMemberDeposits},
	domain.TypeDividend:         {domain.CodeDividendExpense, domain.CodeMemberDeposits},
	domain.TypeSharePurchase:    {domain.CodeCash, domain.CodeShareCapital},
	domain.TypeShareRedemption:  {domain.CodeShareCapital, domain.CodeCash},
	domain.TypeWalletDeposit:    {domain.CodeCash, domain.CodeMemberWallets},
	domain.TypeWalletWithdrawal: {domain.CodeMemberWallets, domain.CodeCash},
}

// LedgerService maps transactions to chart codes and posts balanced legs,
// and serves the read-side reports.
type LedgerService struct {
	BaseService
	ledgerRepo portsrepo.LedgerRepositoryFacade
	chart      map[string]domain.ChartOfAccount
}

// NewLedgerService creates a LedgerService over the static chart registry.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryFacade, clock Clock) *LedgerService {
	return &LedgerService{
		BaseService: BaseService{Clock: clock},
		ledgerRepo:  ledgerRepo,
		chart:       domain.DefaultChartOfAccounts(),
	}
}

var _ portssvc.LedgerSvcFacade = (*LedgerService)(nil)

// BuildEntries produces the balanced debit/credit legs for a transaction.
// The legs sum to NetAmount on each side; the optional fee adds a collection
// pair on top. For a compensating transaction the legs are swapped and
// flagged reversed so reports skip the annulled pair. An unbalanced result
// aborts the whole operation rather than persist a broken ledger.
func (s *LedgerService) BuildEntries(txn domain.Transaction, alloc *domain.PaymentAllocation) ([]domain.LedgerEntry, error) {
	var legs []legSpec

	if txn.Type == domain.TypeLoanRepayment {
		legs = s.repaymentLegs(txn, alloc)
	} else {
		rule, ok := postingRules[txn.Type]
		if !ok {
			return nil, fmt.Errorf("%w: no posting rule for transaction type %s", apperrors.ErrValidation, txn.Type)
		}
		legs = []legSpec{
			{code: rule.debitCode, amount: txn.NetAmount, debit: true},
			{code: rule.creditCode, amount: txn.NetAmount, debit: false},
		}
	}

	if txn.FeeAmount.GreaterThan(decimal.Zero) {
		// Fee is collected in cash on top of the net movement.
		legs = append(legs,
			legSpec{code: domain.CodeCash, amount: txn.FeeAmount, debit: true},
			legSpec{code: domain.CodeFeeIncome, amount: txn.FeeAmount, debit: false},
		)
	}

	status := domain.EntryPosted
	if txn.IsReversal() {
		// Swap the legs; both sides of the annulled pair carry the
		// reversed status.
		for i := range legs {
			legs[i].debit = !legs[i].debit
		}
		status = domain.EntryReversed
	}

	now := s.Now()
	entries := make([]domain.LedgerEntry, 0, len(legs))
	for _, leg := range legs {
		if leg.amount.LessThanOrEqual(decimal.Zero) {
			continue // zero allocation tiers produce no leg
		}
		if _, known := s.chart[leg.code]; !known {
			return nil, fmt.Errorf("%w: unknown chart code %s", apperrors.ErrValidation, leg.code)
		}
		entry := domain.LedgerEntry{
			EntryID:       uuid.NewString(),
			SaccoID:       txn.SaccoID,
			TransactionID: txn.TransactionID,
			AccountCode:   leg.code,
			Status:        status,
			PostedAt:      now,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     txn.ProcessedBy,
				LastUpdatedAt: now,
				LastUpdatedBy: txn.ProcessedBy,
			},
		}
		if leg.debit {
			entry.DebitAmount = leg.amount
		} else {
			entry.CreditAmount = leg.amount
		}
		entries = append(entries, entry)
	}

	if !accounting.EntriesBalanced(entries) {
		debits, credits := accounting.SumEntries(entries)
		return nil, fmt.Errorf("%w: transaction %s debits %s credits %s",
			apperrors.ErrUnbalanced, txn.TransactionID, debits, credits)
	}
	return entries, nil
}

type legSpec struct {
	code   string
	amount decimal.Decimal
	debit  bool
}

// repaymentLegs splits an applied repayment: cash in, credited against the
// loan receivable plus interest and penalty income per the allocation.
func (s *LedgerService) repaymentLegs(txn domain.Transaction, alloc *domain.PaymentAllocation) []legSpec {
	if alloc == nil {
		return []legSpec{
			{code: domain.CodeCash, amount: txn.NetAmount, debit: true},
			{code: domain.CodeLoansReceivable, amount: txn.NetAmount, debit: false},
		}
	}
	applied := alloc.Applied()
	return []legSpec{
		{code: domain.CodeCash, amount: applied, debit: true},
		{code: domain.CodePenaltyIncome, amount: alloc.Penalty, debit: false},
		{code: domain.CodeInterestIncome, amount: alloc.Interest, debit: false},
		{code: domain.CodeLoansReceivable, amount: alloc.Principal, debit: false},
	}
}

// GetTrialBalance aggregates per-code totals over posted, non-reversed
// entries up to asOf and checks the ledger balances within epsilon.
func (s *LedgerService) GetTrialBalance(ctx context.Context, saccoID string, asOf time.Time) (*domain.TrialBalance, error) {
	rows, err := s.ledgerRepo.GetTrialBalanceData(ctx, saccoID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve trial balance data",
			slog.String("sacco_id", saccoID),
			slog.String("as_of", asOf.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
	}

	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	for i := range rows {
		if coa, ok := s.chart[rows[i].AccountCode]; ok {
			rows[i].AccountName = coa.Name
			rows[i].AccountType = coa.Type
		}
		totalDebits = totalDebits.Add(rows[i].DebitTotal)
		totalCredits = totalCredits.Add(rows[i].CreditTotal)
	}

	report := &domain.TrialBalance{
		AsOf:         asOf,
		Rows:         rows,
		TotalDebits:  totalDebits,
		TotalCredits: totalCredits,
		Balanced:     totalDebits.Sub(totalCredits).Abs().LessThan(domain.CurrencyEpsilon),
	}

	s.LogInfo(ctx, "Trial balance generated",
		slog.String("sacco_id", saccoID),
		slog.Int("row_count", len(rows)),
		slog.Bool("balanced", report.Balanced))
	return report, nil
}

// ListEntriesByAccountCode retrieves a paginated ledger listing for a code.
func (s *LedgerService) ListEntriesByAccountCode(ctx context.Context, saccoID, accountCode string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	entries, next, err := s.ledgerRepo.ListEntriesByAccountCode(ctx, saccoID, accountCode, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger entries", slog.String("account_code", accountCode))
		return nil, nil, fmt.Errorf("failed to retrieve ledger entries: %w", err)
	}
	return entries, next, nil
}
