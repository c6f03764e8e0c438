package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountStatus indicates the lifecycle state of a member account.
type AccountStatus string

const (
	AccountActive  AccountStatus = "ACTIVE"
	AccountDormant AccountStatus = "DORMANT"
	AccountClosed  AccountStatus = "CLOSED"
)

// AccountKind discriminates which accountable entity an account points at.
type AccountKind string

const (
	KindSavings AccountKind = "SAVINGS"
	KindLoan    AccountKind = "LOAN"
	KindShare   AccountKind = "SHARE"
)

// Accountable is the capability interface implemented by each concrete
// balance holder (savings, loan, share). All balance mutation in the engine
// goes through this interface; callers never inspect the variant directly.
type Accountable interface {
	// Credit increases the holder's balance by amount.
	Credit(amount decimal.Decimal)

	// Debit decreases the holder's balance by amount. It returns
	// apperrors.ErrInsufficientFunds semantics via CanDebit; callers must
	// check CanDebit first, Debit returns an error only as a backstop.
	Debit(amount decimal.Decimal) error

	// CanDebit reports whether a debit of amount is permitted by the
	// holder's balance rules.
	CanDebit(amount decimal.Decimal) bool

	// CurrentBalance returns the headline balance used for transaction
	// before/after snapshots.
	CurrentBalance() decimal.Decimal
}

// Account is the hub entity linking a member to exactly one accountable
// entity. The Kind discriminant selects which of the three pointers is set;
// the other two are always nil.
type Account struct {
	AccountID     string        `json:"accountID"`
	SaccoID       string        `json:"saccoID"`
	MemberID      string        `json:"memberID"`
	AccountNumber string        `json:"accountNumber"`
	Kind          AccountKind   `json:"kind"`
	Status        AccountStatus `json:"status"`

	Savings *SavingsBalance `json:"savings,omitempty"`
	Loan    *Loan           `json:"loan,omitempty"`
	Share   *ShareBalance   `json:"share,omitempty"`

	AuditFields
}

// Accountable resolves the account's concrete balance holder. It returns an
// error if the discriminant and the populated variant disagree.
func (a *Account) Accountable() (Accountable, error) {
	switch a.Kind {
	case KindSavings:
		if a.Savings == nil {
			return nil, fmt.Errorf("account %s has kind %s but no savings balance", a.AccountID, a.Kind)
		}
		return a.Savings, nil
	case KindLoan:
		if a.Loan == nil {
			return nil, fmt.Errorf("account %s has kind %s but no loan balance", a.AccountID, a.Kind)
		}
		return a.Loan, nil
	case KindShare:
		if a.Share == nil {
			return nil, fmt.Errorf("account %s has kind %s but no share balance", a.AccountID, a.Kind)
		}
		return a.Share, nil
	default:
		return nil, fmt.Errorf("account %s has unknown kind %q", a.AccountID, a.Kind)
	}
}

// IsActive reports whether the account may participate in transactions.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

// Clone returns a deep copy of the account including its balance holder.
// Repositories hand out clones so callers cannot mutate stored state.
func (a *Account) Clone() *Account {
	cp := *a
	if a.Savings != nil {
		s := *a.Savings
		cp.Savings = &s
	}
	if a.Loan != nil {
		cp.Loan = a.Loan.Clone()
	}
	if a.Share != nil {
		sh := *a.Share
		cp.Share = &sh
	}
	return &cp
}
