package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/coopfin/sacco_core_app/internal/core/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
	"github.com/coopfin/sacco_core_app/internal/repositories/database/memory"
	"github.com/coopfin/sacco_core_app/internal/utils/accounting"
)

const (
	testSaccoID = "sacco_1"
	testActorID = "teller_1"
)

// fixedClock pins service time for deterministic assertions.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// engineFixture wires the full transaction engine over the in-memory store.
type engineFixture struct {
	store      *memory.Store
	txnSvc     *services.TransactionService
	ledgerSvc  *services.LedgerService
	balanceSvc *services.BalanceService
	clock      fixedClock
}

func newEngineFixture(policy domain.OverpaymentPolicy) *engineFixture {
	store := memory.NewStore()
	clock := fixedClock{t: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	numbers := services.NewTransactionNumberGenerator(store)
	balanceSvc := services.NewBalanceService()
	ledgerSvc := services.NewLedgerService(store, clock)
	txnSvc := services.NewTransactionService(store, store, store, balanceSvc, ledgerSvc, numbers, nil, policy, clock)
	return &engineFixture{
		store:      store,
		txnSvc:     txnSvc,
		ledgerSvc:  ledgerSvc,
		balanceSvc: balanceSvc,
		clock:      clock,
	}
}

func (f *engineFixture) seedSavings(memberID string, balance float64) *domain.Account {
	account := domain.Account{
		AccountID:     uuid.NewString(),
		SaccoID:       testSaccoID,
		MemberID:      memberID,
		AccountNumber: "SAV-" + memberID,
		Kind:          domain.KindSavings,
		Status:        domain.AccountActive,
		Savings: &domain.SavingsBalance{
			Balance:          decimal.NewFromFloat(balance),
			AvailableBalance: decimal.NewFromFloat(balance),
		},
		AuditFields: domain.AuditFields{CreatedAt: f.clock.Now()},
	}
	if err := f.store.SaveAccount(context.Background(), account); err != nil {
		panic(err)
	}
	return &account
}

func (f *engineFixture) seedLoanAccount(memberID string, status domain.LoanStatus, penalty, interest, principal float64) *domain.Account {
	loan := &domain.Loan{
		LoanID:           uuid.NewString(),
		SaccoID:          testSaccoID,
		MemberID:         memberID,
		PenaltyBalance:   decimal.NewFromFloat(penalty),
		InterestBalance:  decimal.NewFromFloat(interest),
		PrincipalBalance: decimal.NewFromFloat(principal),
		Status:           status,
	}
	loan.OutstandingBalance = loan.PenaltyBalance.Add(loan.InterestBalance).Add(loan.PrincipalBalance)
	account := domain.Account{
		AccountID:     uuid.NewString(),
		SaccoID:       testSaccoID,
		MemberID:      memberID,
		AccountNumber: "LN-" + memberID,
		Kind:          domain.KindLoan,
		Status:        domain.AccountActive,
		Loan:          loan,
		AuditFields:   domain.AuditFields{CreatedAt: f.clock.Now()},
	}
	loan.AccountID = account.AccountID
	if err := f.store.SaveAccount(context.Background(), account); err != nil {
		panic(err)
	}
	return &account
}

type TransactionServiceTestSuite struct {
	suite.Suite
	fx  *engineFixture
	ctx context.Context
}

func (s *TransactionServiceTestSuite) SetupTest() {
	s.fx = newEngineFixture(domain.OverpaymentReject)
	s.ctx = context.Background()
}

func TestTransactionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}

func (s *TransactionServiceTestSuite) TestDeposit_CreditsBalanceAndPostsLegs() {
	account := s.fx.seedSavings("member_1", 100)

	result, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: account.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(250),
	}, testActorID)

	s.Require().NoError(err)
	s.Equal("TXN-000001", result.TransactionNumber)
	s.Equal(domain.TxnCompleted, result.Status)
	s.True(decimal.NewFromFloat(350).Equal(result.BalanceAfter))

	stored, err := s.fx.store.FindAccountByID(s.ctx, account.AccountID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(350).Equal(stored.Savings.Balance))

	entries, err := s.fx.store.FindEntriesByTransactionID(s.ctx, result.TransactionID)
	s.Require().NoError(err)
	s.Len(entries, 2)
	s.True(accounting.EntriesBalanced(entries))
}

func (s *TransactionServiceTestSuite) TestDeposit_FeeCollectedOnTop() {
	account := s.fx.seedSavings("member_1", 0)

	result, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: account.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(100),
		FeeAmount: decimal.NewFromFloat(5),
	}, testActorID)

	s.Require().NoError(err)
	// Only the net amount lands on the member balance.
	s.True(decimal.NewFromFloat(95).Equal(result.BalanceAfter))

	entries, err := s.fx.store.FindEntriesByTransactionID(s.ctx, result.TransactionID)
	s.Require().NoError(err)
	s.Len(entries, 4)
	s.True(accounting.EntriesBalanced(entries))

	var feeIncome decimal.Decimal
	for _, e := range entries {
		if e.AccountCode == domain.CodeFeeIncome {
			feeIncome = feeIncome.Add(e.CreditAmount)
		}
	}
	s.True(decimal.NewFromFloat(5).Equal(feeIncome))
}

func (s *TransactionServiceTestSuite) TestWithdrawal_InsufficientFundsLeavesNoTrace() {
	account := s.fx.seedSavings("member_1", 50)

	_, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: account.AccountID,
		Type:      domain.TypeWithdrawal,
		Amount:    decimal.NewFromFloat(100),
	}, testActorID)

	s.Require().Error(err)
	s.True(errors.Is(err, apperrors.ErrInsufficientFunds))

	// No transaction, no entries, balance untouched.
	stored, err := s.fx.store.FindAccountByID(s.ctx, account.AccountID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(50).Equal(stored.Savings.Balance))

	txns, _, err := s.fx.store.ListTransactionsByAccountID(s.ctx, testSaccoID, account.AccountID, 10, nil)
	s.Require().NoError(err)
	s.Empty(txns)
}

func (s *TransactionServiceTestSuite) TestProcessTransaction_Validation() {
	account := s.fx.seedSavings("member_1", 100)

	tests := []struct {
		name string
		req  dto.ProcessTransactionRequest
	}{
		{
			name: "unknown type",
			req:  dto.ProcessTransactionRequest{MemberID: "member_1", AccountID: account.AccountID, Type: "BARTER", Amount: decimal.NewFromFloat(10)},
		},
		{
			name: "zero amount",
			req:  dto.ProcessTransactionRequest{MemberID: "member_1", AccountID: account.AccountID, Type: domain.TypeDeposit, Amount: decimal.Zero},
		},
		{
			name: "negative fee",
			req:  dto.ProcessTransactionRequest{MemberID: "member_1", AccountID: account.AccountID, Type: domain.TypeDeposit, Amount: decimal.NewFromFloat(10), FeeAmount: decimal.NewFromFloat(-1)},
		},
		{
			name: "fee swallows amount",
			req:  dto.ProcessTransactionRequest{MemberID: "member_1", AccountID: account.AccountID, Type: domain.TypeDeposit, Amount: decimal.NewFromFloat(10), FeeAmount: decimal.NewFromFloat(10)},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, tt.req, testActorID)
			s.Require().Error(err)
			s.True(errors.Is(err, apperrors.ErrValidation))
		})
	}
}

func (s *TransactionServiceTestSuite) TestProcessTransaction_OwnershipChecks() {
	account := s.fx.seedSavings("member_1", 100)

	// Wrong member on the right account.
	_, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_2",
		AccountID: account.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(10),
	}, testActorID)
	s.True(errors.Is(err, apperrors.ErrAccountMismatch))

	// Wrong tenant reads as not found, never as forbidden.
	_, err = s.fx.txnSvc.ProcessTransaction(s.ctx, "sacco_other", dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: account.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(10),
	}, testActorID)
	s.True(errors.Is(err, apperrors.ErrNotFound))
}

func (s *TransactionServiceTestSuite) TestProcessTransaction_InactiveAccount() {
	account := s.fx.seedSavings("member_1", 100)
	stored, err := s.fx.store.FindAccountByID(s.ctx, account.AccountID)
	s.Require().NoError(err)
	stored.Status = domain.AccountDormant
	// Re-seed under a fresh ID to keep SaveAccount's duplicate check happy.
	stored.AccountID = uuid.NewString()
	s.Require().NoError(s.fx.store.SaveAccount(s.ctx, *stored))

	_, err = s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: stored.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(10),
	}, testActorID)

	s.True(errors.Is(err, apperrors.ErrInactiveAccount))
}

func (s *TransactionServiceTestSuite) TestConcurrentWithdrawals_ExactlyOneSucceeds() {
	account := s.fx.seedSavings("member_1", 100)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
				MemberID:  "member_1",
				AccountID: account.AccountID,
				Type:      domain.TypeWithdrawal,
				Amount:    decimal.NewFromFloat(100),
			}, testActorID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.True(errors.Is(err, apperrors.ErrInsufficientFunds))
		}
	}
	s.Equal(1, succeeded)

	stored, err := s.fx.store.FindAccountByID(s.ctx, account.AccountID)
	s.Require().NoError(err)
	s.True(stored.Savings.Balance.IsZero())
}

func (s *TransactionServiceTestSuite) TestTransfer_MovesBothLegsAtomically() {
	from := s.fx.seedSavings("member_1", 500)
	to := s.fx.seedSavings("member_2", 100)

	result, err := s.fx.txnSvc.Transfer(s.ctx, testSaccoID, dto.TransferRequest{
		FromMemberID:  "member_1",
		FromAccountID: from.AccountID,
		ToMemberID:    "member_2",
		ToAccountID:   to.AccountID,
		Amount:        decimal.NewFromFloat(200),
	}, testActorID)

	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(300).Equal(result.OutTransaction.BalanceAfter))
	s.True(decimal.NewFromFloat(300).Equal(result.InTransaction.BalanceAfter))

	outTxn, err := s.fx.store.FindTransactionByID(s.ctx, result.OutTransaction.TransactionID)
	s.Require().NoError(err)
	s.Equal(result.InTransaction.TransactionID, outTxn.Metadata["counterpart"])
}

func (s *TransactionServiceTestSuite) TestTransfer_InsufficientFundsAbortsBothLegs() {
	from := s.fx.seedSavings("member_1", 50)
	to := s.fx.seedSavings("member_2", 100)

	_, err := s.fx.txnSvc.Transfer(s.ctx, testSaccoID, dto.TransferRequest{
		FromMemberID:  "member_1",
		FromAccountID: from.AccountID,
		ToMemberID:    "member_2",
		ToAccountID:   to.AccountID,
		Amount:        decimal.NewFromFloat(200),
	}, testActorID)

	s.Require().Error(err)
	s.True(errors.Is(err, apperrors.ErrInsufficientFunds))

	toStored, err := s.fx.store.FindAccountByID(s.ctx, to.AccountID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(100).Equal(toStored.Savings.Balance))
}

func (s *TransactionServiceTestSuite) TestTransfer_RejectsSelfTransfer() {
	account := s.fx.seedSavings("member_1", 500)

	_, err := s.fx.txnSvc.Transfer(s.ctx, testSaccoID, dto.TransferRequest{
		FromMemberID:  "member_1",
		FromAccountID: account.AccountID,
		ToMemberID:    "member_1",
		ToAccountID:   account.AccountID,
		Amount:        decimal.NewFromFloat(10),
	}, testActorID)

	s.True(errors.Is(err, apperrors.ErrValidation))
}

func (s *TransactionServiceTestSuite) TestTransactionNumbers_SequentialPerSacco() {
	account := s.fx.seedSavings("member_1", 0)

	for i := 0; i < 3; i++ {
		_, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
			MemberID:  "member_1",
			AccountID: account.AccountID,
			Type:      domain.TypeDeposit,
			Amount:    decimal.NewFromFloat(10),
		}, testActorID)
		s.Require().NoError(err)
	}

	txns, _, err := s.fx.store.ListTransactionsByAccountID(s.ctx, testSaccoID, account.AccountID, 10, nil)
	s.Require().NoError(err)
	s.Len(txns, 3)
	seen := map[string]bool{}
	for _, txn := range txns {
		seen[txn.TransactionNumber] = true
	}
	s.True(seen["TXN-000001"])
	s.True(seen["TXN-000002"])
	s.True(seen["TXN-000003"])
}

func (s *TransactionServiceTestSuite) TestGetTransactionByID_ObscuresOtherTenants() {
	account := s.fx.seedSavings("member_1", 0)
	result, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: account.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(10),
	}, testActorID)
	s.Require().NoError(err)

	_, err = s.fx.txnSvc.GetTransactionByID(s.ctx, "sacco_other", result.TransactionID)
	s.True(errors.Is(err, apperrors.ErrNotFound))

	got, err := s.fx.txnSvc.GetTransactionByID(s.ctx, testSaccoID, result.TransactionID)
	s.Require().NoError(err)
	s.Equal(result.TransactionID, got.TransactionID)
}
