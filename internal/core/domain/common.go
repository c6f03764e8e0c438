package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDebitNotAllowed is returned by an Accountable when a debit violates its
// balance rules. Callers normally gate on CanDebit before calling Debit.
var ErrDebitNotAllowed = errors.New("debit not allowed by balance rules")

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID Reference
}

// CurrencyEpsilon is the smallest meaningful currency unit. Balances within
// this epsilon of zero are treated as settled.
var CurrencyEpsilon = decimal.NewFromFloat(0.01)
