package services

import (
	"fmt"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceService mutates an account's underlying balance fields through the
// Accountable capability interface and enforces debit eligibility. It is the
// only mutation path for balances; callers invoke it while holding the
// account's posting lock.
type BalanceService struct{}

// NewBalanceService creates a BalanceService.
func NewBalanceService() *BalanceService {
	return &BalanceService{}
}

// Apply mutates the account balance for one transaction. The direction
// follows the transaction type (credit for deposit/disbursement/dividend
// style types, debit otherwise) and is flipped when reversal is set. It
// returns the balance snapshots taken around the mutation.
func (s *BalanceService) Apply(account *domain.Account, txnType domain.TransactionType, netAmount decimal.Decimal, reversal bool) (before, after decimal.Decimal, err error) {
	holder, err := account.Accountable()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	credit := txnType.IsCredit()
	if reversal {
		credit = !credit
	}

	before = holder.CurrentBalance()

	if credit {
		holder.Credit(netAmount)
	} else {
		if !account.IsActive() {
			return before, before, fmt.Errorf("%w: account %s is %s", apperrors.ErrInactiveAccount, account.AccountID, account.Status)
		}
		if !holder.CanDebit(netAmount) {
			return before, before, fmt.Errorf("%w: account %s cannot cover %s", apperrors.ErrInsufficientFunds, account.AccountID, netAmount)
		}
		if err := holder.Debit(netAmount); err != nil {
			return before, before, fmt.Errorf("debit failed on account %s: %w", account.AccountID, err)
		}
	}

	return before, holder.CurrentBalance(), nil
}
