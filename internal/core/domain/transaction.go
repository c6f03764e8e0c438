package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a money movement.
type TransactionType string

const (
	TypeDeposit          TransactionType = "DEPOSIT"
	TypeWithdrawal       TransactionType = "WITHDRAWAL"
	TypeTransferIn       TransactionType = "TRANSFER_IN"
	TypeTransferOut      TransactionType = "TRANSFER_OUT"
	TypeLoanDisbursement TransactionType = "LOAN_DISBURSEMENT"
	TypeLoanRepayment    TransactionType = "LOAN_REPAYMENT"
	TypeFee              TransactionType = "FEE"
	TypeInterest         TransactionType = "INTEREST"
	TypeDividend         TransactionType = "DIVIDEND"
	TypeSharePurchase    TransactionType = "SHARE_PURCHASE"
	TypeShareRedemption  TransactionType = "SHARE_REDEMPTION"
	TypeWalletDeposit    TransactionType = "WALLET_DEPOSIT"
	TypeWalletWithdrawal TransactionType = "WALLET_WITHDRAWAL"
)

// creditTypes increase the target account's balance; every other type is a
// debit against it.
var creditTypes = map[TransactionType]bool{
	TypeDeposit:          true,
	TypeTransferIn:       true,
	TypeLoanDisbursement: true,
	TypeInterest:         true,
	TypeDividend:         true,
	TypeSharePurchase:    true,
	TypeWalletDeposit:    true,
}

// IsCredit reports whether the type credits the member account.
func (t TransactionType) IsCredit() bool {
	return creditTypes[t]
}

// IsDebit reports whether the type debits the member account.
func (t TransactionType) IsDebit() bool {
	return !creditTypes[t]
}

// IsValid reports whether the type is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransferIn, TypeTransferOut,
		TypeLoanDisbursement, TypeLoanRepayment, TypeFee, TypeInterest,
		TypeDividend, TypeSharePurchase, TypeShareRedemption,
		TypeWalletDeposit, TypeWalletWithdrawal:
		return true
	}
	return false
}

// TransactionStatus indicates the lifecycle state of a transaction.
// pending -> completed -> reversed, or pending -> failed. Failed
// transactions are never durably recorded; the status exists for in-flight
// representation only.
type TransactionStatus string

const (
	TxnPending   TransactionStatus = "PENDING"
	TxnCompleted TransactionStatus = "COMPLETED"
	TxnReversed  TransactionStatus = "REVERSED"
	TxnFailed    TransactionStatus = "FAILED"
)

// Transaction is the immutable record of one movement of money. Once
// completed, financial fields are never edited; reversal adds a new
// transaction and flips the status flag plus reversal linkage on this one.
type Transaction struct {
	TransactionID     string            `json:"transactionID"`
	TransactionNumber string            `json:"transactionNumber"`
	SaccoID           string            `json:"saccoID"`
	MemberID          string            `json:"memberID"`
	AccountID         string            `json:"accountID"`
	Type              TransactionType   `json:"type"`
	Amount            decimal.Decimal   `json:"amount"`
	FeeAmount         decimal.Decimal   `json:"feeAmount"`
	NetAmount         decimal.Decimal   `json:"netAmount"`
	BalanceBefore     decimal.Decimal   `json:"balanceBefore"`
	BalanceAfter      decimal.Decimal   `json:"balanceAfter"`
	Status            TransactionStatus `json:"status"`
	RelatedLoanID     *string           `json:"relatedLoanID,omitempty"`
	ProcessedBy       string            `json:"processedBy"`
	Metadata          map[string]string `json:"metadata,omitempty"`

	// Reversal linkage. ReversalOfID is set on the compensating
	// transaction; the reversed fields are set on the original.
	ReversalOfID   *string    `json:"reversalOfID,omitempty"`
	ReversedByID   *string    `json:"reversedByID,omitempty"`
	ReversedAt     *time.Time `json:"reversedAt,omitempty"`
	ReversalReason string     `json:"reversalReason,omitempty"`

	AuditFields
}

// IsReversal reports whether this transaction compensates another.
func (t *Transaction) IsReversal() bool {
	return t.ReversalOfID != nil
}

// IsReversible reports whether the transaction can still be reversed.
func (t *Transaction) IsReversible() bool {
	return t.Status == TxnCompleted && t.ReversedByID == nil && !t.IsReversal()
}
