package domain_test

import (
	"testing"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func newActiveLoan(penalty, interest, principal float64) *domain.Loan {
	l := &domain.Loan{
		LoanID:           "loan_1",
		SaccoID:          "sacco_1",
		MemberID:         "member_1",
		AccountID:        "acc_loan_1",
		PenaltyBalance:   decimal.NewFromFloat(penalty),
		InterestBalance:  decimal.NewFromFloat(interest),
		PrincipalBalance: decimal.NewFromFloat(principal),
		Status:           domain.LoanActive,
	}
	l.OutstandingBalance = l.PenaltyBalance.Add(l.InterestBalance).Add(l.PrincipalBalance)
	return l
}

func TestLoan_ApplyPayment_Waterfall(t *testing.T) {
	tests := []struct {
		name          string
		penalty       float64
		interest      float64
		principal     float64
		payment       float64
		wantPenalty   float64
		wantInterest  float64
		wantPrincipal float64
		wantRemaining float64
	}{
		{
			name:    "payment covers penalty and interest then hits principal",
			penalty: 50, interest: 120, principal: 5000,
			payment:     300,
			wantPenalty: 50, wantInterest: 120, wantPrincipal: 130,
			wantRemaining: 0,
		},
		{
			name:    "payment smaller than penalty",
			penalty: 50, interest: 120, principal: 5000,
			payment:     30,
			wantPenalty: 30, wantInterest: 0, wantPrincipal: 0,
			wantRemaining: 0,
		},
		{
			name:    "payment exhausts penalty and part of interest",
			penalty: 50, interest: 120, principal: 5000,
			payment:     100,
			wantPenalty: 50, wantInterest: 50, wantPrincipal: 0,
			wantRemaining: 0,
		},
		{
			name:    "payment exceeds outstanding and leaves a remainder",
			penalty: 50, interest: 120, principal: 1100,
			payment:     1300,
			wantPenalty: 50, wantInterest: 120, wantPrincipal: 1100,
			wantRemaining: 30,
		},
		{
			name:    "no penalty goes straight to interest",
			penalty: 0, interest: 80, principal: 2000,
			payment:     100,
			wantPenalty: 0, wantInterest: 80, wantPrincipal: 20,
			wantRemaining: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := newActiveLoan(tt.penalty, tt.interest, tt.principal)

			alloc := loan.ApplyPayment(decimal.NewFromFloat(tt.payment))

			assert.True(t, decimal.NewFromFloat(tt.wantPenalty).Equal(alloc.Penalty), "penalty: got %s", alloc.Penalty)
			assert.True(t, decimal.NewFromFloat(tt.wantInterest).Equal(alloc.Interest), "interest: got %s", alloc.Interest)
			assert.True(t, decimal.NewFromFloat(tt.wantPrincipal).Equal(alloc.Principal), "principal: got %s", alloc.Principal)
			assert.True(t, decimal.NewFromFloat(tt.wantRemaining).Equal(alloc.Remaining), "remaining: got %s", alloc.Remaining)

			wantOutstanding := decimal.NewFromFloat(tt.penalty + tt.interest + tt.principal).
				Sub(alloc.Applied())
			assert.True(t, wantOutstanding.Equal(loan.OutstandingBalance), "outstanding: got %s", loan.OutstandingBalance)
			assert.True(t, alloc.Applied().Equal(loan.TotalPaid))
		})
	}
}

func TestLoan_ApplyPayment_CompletesLoan(t *testing.T) {
	loan := newActiveLoan(50, 120, 1100)

	alloc := loan.ApplyPayment(decimal.NewFromFloat(1270))

	assert.Equal(t, domain.LoanCompleted, loan.Status)
	assert.True(t, loan.OutstandingBalance.IsZero())
	assert.True(t, alloc.Remaining.IsZero())
}

func TestLoan_UnapplyPayment_ReopensCompletedLoan(t *testing.T) {
	loan := newActiveLoan(50, 120, 1100)
	alloc := loan.ApplyPayment(decimal.NewFromFloat(1270))
	assert.Equal(t, domain.LoanCompleted, loan.Status)

	loan.UnapplyPayment(alloc)

	assert.Equal(t, domain.LoanActive, loan.Status)
	assert.True(t, decimal.NewFromFloat(50).Equal(loan.PenaltyBalance))
	assert.True(t, decimal.NewFromFloat(120).Equal(loan.InterestBalance))
	assert.True(t, decimal.NewFromFloat(1100).Equal(loan.PrincipalBalance))
	assert.True(t, decimal.NewFromFloat(1270).Equal(loan.OutstandingBalance))
	assert.True(t, loan.TotalPaid.IsZero())
}

func TestLoan_ReverseDisbursement(t *testing.T) {
	loan := newActiveLoan(0, 0, 5000)

	loan.ReverseDisbursement(decimal.NewFromFloat(5000))

	assert.True(t, loan.PrincipalBalance.IsZero())
	assert.True(t, loan.OutstandingBalance.IsZero())
}

func TestLoanStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from domain.LoanStatus
		to   domain.LoanStatus
		want bool
	}{
		{domain.LoanPending, domain.LoanApproved, true},
		{domain.LoanPending, domain.LoanRejected, true},
		{domain.LoanPending, domain.LoanActive, false},
		{domain.LoanApproved, domain.LoanActive, true},
		{domain.LoanApproved, domain.LoanRejected, false},
		{domain.LoanActive, domain.LoanCompleted, true},
		{domain.LoanActive, domain.LoanDefaulted, true},
		{domain.LoanActive, domain.LoanWrittenOff, true},
		{domain.LoanCompleted, domain.LoanActive, false},
		{domain.LoanRejected, domain.LoanApproved, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestLoan_Transition_RejectsIllegalMove(t *testing.T) {
	loan := &domain.Loan{LoanID: "loan_1", Status: domain.LoanPending}

	err := loan.Transition(domain.LoanActive)

	assert.Error(t, err)
	assert.Equal(t, domain.LoanPending, loan.Status)
}

func TestLoan_CanDebit(t *testing.T) {
	loan := newActiveLoan(0, 100, 900)

	assert.True(t, loan.CanDebit(decimal.NewFromFloat(1000)))
	assert.False(t, loan.CanDebit(decimal.NewFromFloat(1000.01)))
	assert.False(t, loan.CanDebit(decimal.Zero))
	assert.False(t, loan.CanDebit(decimal.NewFromFloat(-5)))
}
