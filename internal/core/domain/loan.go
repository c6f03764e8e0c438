package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus indicates the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending    LoanStatus = "PENDING"
	LoanApproved   LoanStatus = "APPROVED"
	LoanRejected   LoanStatus = "REJECTED"
	LoanActive     LoanStatus = "ACTIVE" // disbursed
	LoanCompleted  LoanStatus = "COMPLETED"
	LoanDefaulted  LoanStatus = "DEFAULTED"
	LoanWrittenOff LoanStatus = "WRITTEN_OFF"
)

// loanTransitions is the allowed state machine:
// pending -> approved | rejected; approved -> active;
// active -> completed | defaulted | written_off. All others are terminal.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:  {LoanApproved, LoanRejected},
	LoanApproved: {LoanActive},
	LoanActive:   {LoanCompleted, LoanDefaulted, LoanWrittenOff},
}

// CanTransitionTo reports whether the status may move to target.
func (s LoanStatus) CanTransitionTo(target LoanStatus) bool {
	for _, t := range loanTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s LoanStatus) IsTerminal() bool {
	return len(loanTransitions[s]) == 0
}

// PaymentAllocation is the result of applying a payment to a loan via the
// penalty -> interest -> principal waterfall. Remaining is any unapplied
// overpayment left after principal is exhausted.
type PaymentAllocation struct {
	Penalty   decimal.Decimal `json:"penalty"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Applied is the portion of the payment actually absorbed by the loan.
func (a PaymentAllocation) Applied() decimal.Decimal {
	return a.Penalty.Add(a.Interest).Add(a.Principal)
}

// Loan is both the loan entity and the accountable balance holder behind a
// loan account. Exactly one Loan backs each account of kind LOAN.
type Loan struct {
	LoanID    string `json:"loanID"`
	SaccoID   string `json:"saccoID"`
	MemberID  string `json:"memberID"`
	AccountID string `json:"accountID"`

	PrincipalBalance   decimal.Decimal `json:"principalBalance"`
	InterestBalance    decimal.Decimal `json:"interestBalance"`
	PenaltyBalance     decimal.Decimal `json:"penaltyBalance"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`

	Status      LoanStatus `json:"status"`
	DisbursedAt *time.Time `json:"disbursedAt,omitempty"`

	AuditFields
}

var _ Accountable = (*Loan)(nil)

// Transition moves the loan to target, enforcing the state machine.
func (l *Loan) Transition(target LoanStatus) error {
	if !l.Status.CanTransitionTo(target) {
		return fmt.Errorf("loan %s: illegal transition %s -> %s", l.LoanID, l.Status, target)
	}
	l.Status = target
	return nil
}

// Credit increases the loan principal, as on disbursement or a reversed
// repayment leg.
func (l *Loan) Credit(amount decimal.Decimal) {
	l.PrincipalBalance = l.PrincipalBalance.Add(amount)
	l.recomputeOutstanding()
}

// Debit applies a payment through the waterfall, discarding the breakdown.
// Callers that need the allocation use ApplyPayment directly.
func (l *Loan) Debit(amount decimal.Decimal) error {
	if !l.CanDebit(amount) {
		return ErrDebitNotAllowed
	}
	l.ApplyPayment(amount)
	return nil
}

// CanDebit reports whether the outstanding balance absorbs the full amount.
func (l *Loan) CanDebit(amount decimal.Decimal) bool {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return l.OutstandingBalance.GreaterThanOrEqual(amount)
}

// CurrentBalance is the outstanding balance owed on the loan.
func (l *Loan) CurrentBalance() decimal.Decimal {
	return l.OutstandingBalance
}

// ApplyPayment allocates amount across penalty, then interest, then
// principal, in that fixed priority order. It mutates the loan balances and
// TotalPaid, recomputes the outstanding balance, and completes the loan when
// the outstanding balance falls within the currency epsilon. Any remainder
// after principal is exhausted is returned unapplied; overpayment policy is
// the caller's concern. Pure computation, no I/O.
func (l *Loan) ApplyPayment(amount decimal.Decimal) PaymentAllocation {
	remaining := amount

	penalty := decimal.Min(l.PenaltyBalance, remaining)
	l.PenaltyBalance = l.PenaltyBalance.Sub(penalty)
	remaining = remaining.Sub(penalty)

	interest := decimal.Min(l.InterestBalance, remaining)
	l.InterestBalance = l.InterestBalance.Sub(interest)
	remaining = remaining.Sub(interest)

	principal := decimal.Min(l.PrincipalBalance, remaining)
	l.PrincipalBalance = l.PrincipalBalance.Sub(principal)
	remaining = remaining.Sub(principal)

	alloc := PaymentAllocation{
		Penalty:   penalty,
		Interest:  interest,
		Principal: principal,
		Remaining: remaining,
	}

	l.TotalPaid = l.TotalPaid.Add(alloc.Applied())
	l.recomputeOutstanding()

	if l.OutstandingBalance.LessThanOrEqual(CurrencyEpsilon) && l.Status == LoanActive {
		l.Status = LoanCompleted
	}
	return alloc
}

// UnapplyPayment restores a previously applied allocation, used when a
// repayment transaction is reversed. A completed loan reopens to active.
func (l *Loan) UnapplyPayment(alloc PaymentAllocation) {
	l.PenaltyBalance = l.PenaltyBalance.Add(alloc.Penalty)
	l.InterestBalance = l.InterestBalance.Add(alloc.Interest)
	l.PrincipalBalance = l.PrincipalBalance.Add(alloc.Principal)
	l.TotalPaid = l.TotalPaid.Sub(alloc.Applied())
	l.recomputeOutstanding()

	if l.Status == LoanCompleted && l.OutstandingBalance.GreaterThan(CurrencyEpsilon) {
		l.Status = LoanActive
	}
}

// ReverseDisbursement backs out a disbursement credit from the principal,
// used when a disbursement transaction is reversed.
func (l *Loan) ReverseDisbursement(amount decimal.Decimal) {
	l.PrincipalBalance = l.PrincipalBalance.Sub(amount)
	l.recomputeOutstanding()
}

func (l *Loan) recomputeOutstanding() {
	l.OutstandingBalance = l.PenaltyBalance.Add(l.InterestBalance).Add(l.PrincipalBalance)
}

// Clone returns a deep copy of the loan.
func (l *Loan) Clone() *Loan {
	cp := *l
	if l.DisbursedAt != nil {
		t := *l.DisbursedAt
		cp.DisbursedAt = &t
	}
	return &cp
}

// LoanRepayment records one payment event against a loan, including the
// waterfall breakdown and the receipt number issued to the member.
type LoanRepayment struct {
	RepaymentID      string          `json:"repaymentID"`
	LoanID           string          `json:"loanID"`
	TransactionID    string          `json:"transactionID"`
	ReceiptNumber    string          `json:"receiptNumber"`
	Amount           decimal.Decimal `json:"amount"`
	PenaltyApplied   decimal.Decimal `json:"penaltyApplied"`
	InterestApplied  decimal.Decimal `json:"interestApplied"`
	PrincipalApplied decimal.Decimal `json:"principalApplied"`
	OutstandingAfter decimal.Decimal `json:"outstandingAfter"`
	PaidAt           time.Time       `json:"paidAt"`
	AuditFields
}

// OverpaymentPolicy decides what happens to the unapplied remainder when a
// payment exceeds the loan's outstanding balance.
type OverpaymentPolicy string

const (
	// OverpaymentReject rejects the whole payment. Default.
	OverpaymentReject OverpaymentPolicy = "REJECT"
	// OverpaymentCreditSavings applies the loan portion and credits the
	// remainder to the member's savings account in the same atomic unit.
	OverpaymentCreditSavings OverpaymentPolicy = "CREDIT_SAVINGS"
	// OverpaymentAbsorb applies the loan portion and drops the remainder
	// into the payment record without crediting it anywhere.
	OverpaymentAbsorb OverpaymentPolicy = "ABSORB"
)

// ParseOverpaymentPolicy maps a config string to a policy, defaulting to
// reject for unknown values.
func ParseOverpaymentPolicy(s string) OverpaymentPolicy {
	switch OverpaymentPolicy(s) {
	case OverpaymentCreditSavings:
		return OverpaymentCreditSavings
	case OverpaymentAbsorb:
		return OverpaymentAbsorb
	default:
		return OverpaymentReject
	}
}
