package dto

import "github.com/shopspring/decimal"

// InterestBatchRequest posts periodic interest to every active savings
// account at the given rate (e.g. 0.01 for 1% per period).
type InterestBatchRequest struct {
	Rate decimal.Decimal `json:"rate" binding:"required"`
}

// DividendBatchRequest pays a dividend per share held to every active share
// account.
type DividendBatchRequest struct {
	AmountPerShare decimal.Decimal `json:"amountPerShare" binding:"required"`
}

// BatchFailure records one member-level failure inside a batch run.
type BatchFailure struct {
	AccountID string `json:"accountID"`
	MemberID  string `json:"memberID"`
	Error     string `json:"error"`
}

// BatchResult summarizes a batch run. A failed member never aborts the
// batch; failures are collected and reported.
type BatchResult struct {
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}
