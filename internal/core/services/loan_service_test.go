package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/coopfin/sacco_core_app/internal/core/services"
	"github.com/coopfin/sacco_core_app/internal/dto"
)

type LoanServiceTestSuite struct {
	suite.Suite
	fx      *engineFixture
	loanSvc *services.LoanService
	ctx     context.Context
}

func (s *LoanServiceTestSuite) SetupTest() {
	s.fx = newEngineFixture(domain.OverpaymentReject)
	s.loanSvc = services.NewLoanService(s.fx.store, s.fx.store, s.fx.txnSvc, s.fx.clock)
	s.ctx = context.Background()
}

func TestLoanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LoanServiceTestSuite))
}

func (s *LoanServiceTestSuite) TestApproveLoan() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanPending, 0, 0, 0)

	err := s.loanSvc.ApproveLoan(s.ctx, testSaccoID, account.Loan.LoanID, testActorID)
	s.Require().NoError(err)

	loan, err := s.fx.store.FindLoanByID(s.ctx, account.Loan.LoanID)
	s.Require().NoError(err)
	s.Equal(domain.LoanApproved, loan.Status)
}

func (s *LoanServiceTestSuite) TestRejectLoan_OnlyFromPending() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanApproved, 0, 0, 0)

	err := s.loanSvc.RejectLoan(s.ctx, testSaccoID, account.Loan.LoanID, testActorID)
	s.True(errors.Is(err, apperrors.ErrValidation))
}

func (s *LoanServiceTestSuite) TestDisburseLoan_ActivatesAndSeedsPrincipal() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanApproved, 0, 0, 0)

	result, err := s.loanSvc.DisburseLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.DisburseLoanRequest{
		MemberID: "member_1",
		Amount:   decimal.NewFromFloat(5000),
	}, testActorID)

	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(5000).Equal(result.BalanceAfter))

	loan, err := s.fx.store.FindLoanByID(s.ctx, account.Loan.LoanID)
	s.Require().NoError(err)
	s.Equal(domain.LoanActive, loan.Status)
	s.Require().NotNil(loan.DisbursedAt)
	s.True(decimal.NewFromFloat(5000).Equal(loan.PrincipalBalance))
}

func (s *LoanServiceTestSuite) TestDisburseLoan_RequiresApprovedStatus() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanPending, 0, 0, 0)

	_, err := s.loanSvc.DisburseLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.DisburseLoanRequest{
		MemberID: "member_1",
		Amount:   decimal.NewFromFloat(5000),
	}, testActorID)

	s.True(errors.Is(err, apperrors.ErrValidation))
}

func (s *LoanServiceTestSuite) TestDisburseLoan_RejectsWrongMember() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanApproved, 0, 0, 0)

	_, err := s.loanSvc.DisburseLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.DisburseLoanRequest{
		MemberID: "member_2",
		Amount:   decimal.NewFromFloat(5000),
	}, testActorID)

	s.True(errors.Is(err, apperrors.ErrAccountMismatch))
}

func (s *LoanServiceTestSuite) TestRepayLoan_AllocatesThroughWaterfall() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanActive, 50, 120, 5000)

	result, err := s.loanSvc.RepayLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.RepayLoanRequest{
		MemberID: "member_1",
		Amount:   decimal.NewFromFloat(300),
	}, testActorID)

	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(50).Equal(result.Allocation.Penalty))
	s.True(decimal.NewFromFloat(120).Equal(result.Allocation.Interest))
	s.True(decimal.NewFromFloat(130).Equal(result.Allocation.Principal))
	s.True(decimal.NewFromFloat(4870).Equal(result.Outstanding))
	s.Equal(domain.LoanActive, result.LoanStatus)
	s.Equal("RCP-000001", result.ReceiptNumber)

	repayment, err := s.fx.store.FindRepaymentByTransactionID(s.ctx, result.Transaction.TransactionID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(130).Equal(repayment.PrincipalApplied))
	s.True(decimal.NewFromFloat(4870).Equal(repayment.OutstandingAfter))
}

func (s *LoanServiceTestSuite) TestRepayLoan_FullPayoffCompletesLoan() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanActive, 50, 120, 1100)

	result, err := s.loanSvc.RepayLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.RepayLoanRequest{
		MemberID: "member_1",
		Amount:   decimal.NewFromFloat(1270),
	}, testActorID)

	s.Require().NoError(err)
	s.Equal(domain.LoanCompleted, result.LoanStatus)
	s.True(result.Outstanding.IsZero())
}

func (s *LoanServiceTestSuite) TestRepayLoan_OverpaymentRejectedByDefault() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanActive, 0, 0, 1000)

	_, err := s.loanSvc.RepayLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.RepayLoanRequest{
		MemberID: "member_1",
		Amount:   decimal.NewFromFloat(1500),
	}, testActorID)

	s.True(errors.Is(err, apperrors.ErrValidation))

	loan, err := s.fx.store.FindLoanByID(s.ctx, account.Loan.LoanID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(1000).Equal(loan.OutstandingBalance))
}

func (s *LoanServiceTestSuite) TestRepayLoan_OverpaymentCreditedToSavings() {
	fx := newEngineFixture(domain.OverpaymentCreditSavings)
	loanSvc := services.NewLoanService(fx.store, fx.store, fx.txnSvc, fx.clock)
	savings := fx.seedSavings("member_1", 100)
	account := fx.seedLoanAccount("member_1", domain.LoanActive, 0, 0, 1000)

	result, err := loanSvc.RepayLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.RepayLoanRequest{
		MemberID: "member_1",
		Amount:   decimal.NewFromFloat(1500),
	}, testActorID)

	s.Require().NoError(err)
	s.Equal(domain.LoanCompleted, result.LoanStatus)
	s.True(decimal.NewFromFloat(500).Equal(result.Allocation.Remaining))

	stored, err := fx.store.FindAccountByID(s.ctx, savings.AccountID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(600).Equal(stored.Savings.Balance))
}

func (s *LoanServiceTestSuite) TestRepayLoan_FromSavingsDebitsTheSavingsAccount() {
	savings := s.fx.seedSavings("member_1", 1000)
	account := s.fx.seedLoanAccount("member_1", domain.LoanActive, 0, 100, 900)

	result, err := s.loanSvc.RepayLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.RepayLoanRequest{
		MemberID:    "member_1",
		Amount:      decimal.NewFromFloat(400),
		FromSavings: true,
	}, testActorID)

	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(600).Equal(result.Outstanding))

	stored, err := s.fx.store.FindAccountByID(s.ctx, savings.AccountID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(600).Equal(stored.Savings.Balance))

	// A funding withdrawal is recorded on the savings account.
	txns, _, err := s.fx.store.ListTransactionsByAccountID(s.ctx, testSaccoID, savings.AccountID, 10, nil)
	s.Require().NoError(err)
	s.Require().Len(txns, 1)
	s.Equal(domain.TypeWithdrawal, txns[0].Type)
	s.Equal(result.Transaction.TransactionID, txns[0].Metadata["funds_repayment"])
}

func (s *LoanServiceTestSuite) TestRepayLoan_FromSavingsInsufficientFundsAbortsEverything() {
	savings := s.fx.seedSavings("member_1", 100)
	account := s.fx.seedLoanAccount("member_1", domain.LoanActive, 0, 100, 900)

	_, err := s.loanSvc.RepayLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.RepayLoanRequest{
		MemberID:    "member_1",
		Amount:      decimal.NewFromFloat(400),
		FromSavings: true,
	}, testActorID)

	s.Require().Error(err)
	s.True(errors.Is(err, apperrors.ErrInsufficientFunds))

	loan, err := s.fx.store.FindLoanByID(s.ctx, account.Loan.LoanID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(1000).Equal(loan.OutstandingBalance))

	stored, err := s.fx.store.FindAccountByID(s.ctx, savings.AccountID)
	s.Require().NoError(err)
	s.True(decimal.NewFromFloat(100).Equal(stored.Savings.Balance))
}

func (s *LoanServiceTestSuite) TestRepayLoan_RequiresActiveLoan() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanApproved, 0, 0, 0)

	_, err := s.loanSvc.RepayLoan(s.ctx, testSaccoID, account.Loan.LoanID, dto.RepayLoanRequest{
		MemberID: "member_1",
		Amount:   decimal.NewFromFloat(100),
	}, testActorID)

	s.True(errors.Is(err, apperrors.ErrValidation))
}

func (s *LoanServiceTestSuite) TestGetLoanByID_ObscuresOtherTenants() {
	account := s.fx.seedLoanAccount("member_1", domain.LoanPending, 0, 0, 0)

	_, err := s.loanSvc.GetLoanByID(s.ctx, "sacco_other", account.Loan.LoanID)
	s.True(errors.Is(err, apperrors.ErrNotFound))

	loan, err := s.loanSvc.GetLoanByID(s.ctx, testSaccoID, account.Loan.LoanID)
	s.Require().NoError(err)
	s.Equal(account.Loan.LoanID, loan.LoanID)
}
