package domain

import "github.com/shopspring/decimal"

// SavingsBalance is the accountable entity behind a savings account.
// AvailableBalance excludes amounts held against loans or pending clearance;
// MinimumBalance is the floor the account may not be drawn below.
type SavingsBalance struct {
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	MinimumBalance   decimal.Decimal `json:"minimumBalance"`
}

var _ Accountable = (*SavingsBalance)(nil)

func (s *SavingsBalance) Credit(amount decimal.Decimal) {
	s.Balance = s.Balance.Add(amount)
	s.AvailableBalance = s.AvailableBalance.Add(amount)
}

func (s *SavingsBalance) Debit(amount decimal.Decimal) error {
	if !s.CanDebit(amount) {
		return ErrDebitNotAllowed
	}
	s.Balance = s.Balance.Sub(amount)
	s.AvailableBalance = s.AvailableBalance.Sub(amount)
	return nil
}

// CanDebit requires the available balance to cover the amount and the
// resulting balance to stay at or above the minimum balance.
func (s *SavingsBalance) CanDebit(amount decimal.Decimal) bool {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if s.AvailableBalance.LessThan(amount) {
		return false
	}
	return s.Balance.Sub(amount).GreaterThanOrEqual(s.MinimumBalance)
}

func (s *SavingsBalance) CurrentBalance() decimal.Decimal {
	return s.Balance
}
