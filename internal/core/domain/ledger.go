package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates whether a ledger entry counts toward reports.
// Entries of a reversed transaction and its compensating transaction are both
// flagged reversed so reports can skip the annulled pair.
type EntryStatus string

const (
	EntryPosted   EntryStatus = "POSTED"
	EntryReversed EntryStatus = "REVERSED"
)

// LedgerEntry is one debit OR credit leg of a transaction's posting.
// Exactly one of DebitAmount/CreditAmount is non-zero.
type LedgerEntry struct {
	EntryID       string          `json:"entryID"`
	SaccoID       string          `json:"saccoID"`
	TransactionID string          `json:"transactionID"`
	AccountCode   string          `json:"accountCode"`
	DebitAmount   decimal.Decimal `json:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	Status        EntryStatus     `json:"status"`
	PostedAt      time.Time       `json:"postedAt"`
	AuditFields
}

// IsDebit reports whether the entry is a debit leg.
func (e *LedgerEntry) IsDebit() bool {
	return e.DebitAmount.GreaterThan(decimal.Zero)
}

// TrialBalanceRow aggregates debit and credit totals for one chart code.
type TrialBalanceRow struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
}

// TrialBalance is the full report: per-code rows plus totals and the
// balanced flag (|total debits - total credits| < epsilon).
type TrialBalance struct {
	AsOf         time.Time         `json:"asOf"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"totalDebits"`
	TotalCredits decimal.Decimal   `json:"totalCredits"`
	Balanced     bool              `json:"balanced"`
}
