package domain

import "github.com/shopspring/decimal"

// ShareBalance is the accountable entity behind a share account. ShareCount
// is denominated in whole or fractional shares; monetary values are derived
// from ShareValue (the fixed unit price).
type ShareBalance struct {
	ShareCount decimal.Decimal `json:"shareCount"`
	ShareValue decimal.Decimal `json:"shareValue"` // unit price per share
}

var _ Accountable = (*ShareBalance)(nil)

// Credit converts the monetary amount into shares at the unit price.
func (s *ShareBalance) Credit(amount decimal.Decimal) {
	s.ShareCount = s.ShareCount.Add(s.toShares(amount))
}

// Debit redeems shares worth the monetary amount.
func (s *ShareBalance) Debit(amount decimal.Decimal) error {
	if !s.CanDebit(amount) {
		return ErrDebitNotAllowed
	}
	s.ShareCount = s.ShareCount.Sub(s.toShares(amount))
	return nil
}

func (s *ShareBalance) CanDebit(amount decimal.Decimal) bool {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return s.CurrentBalance().GreaterThanOrEqual(amount)
}

// CurrentBalance is the monetary value of the held shares.
func (s *ShareBalance) CurrentBalance() decimal.Decimal {
	return s.ShareCount.Mul(s.ShareValue)
}

func (s *ShareBalance) toShares(amount decimal.Decimal) decimal.Decimal {
	if s.ShareValue.IsZero() {
		return decimal.Zero
	}
	return amount.DivRound(s.ShareValue, 4)
}
