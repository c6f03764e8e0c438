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
	"github.com/coopfin/sacco_core_app/internal/utils/accounting"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	fx  *engineFixture
	ctx context.Context
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.fx = newEngineFixture(domain.OverpaymentReject)
	s.ctx = context.Background()
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func baseTxn(txnType domain.TransactionType, net, fee float64) domain.Transaction {
	amount := decimal.NewFromFloat(net).Add(decimal.NewFromFloat(fee))
	return domain.Transaction{
		TransactionID: "txn_1",
		SaccoID:       testSaccoID,
		Type:          txnType,
		Amount:        amount,
		FeeAmount:     decimal.NewFromFloat(fee),
		NetAmount:     decimal.NewFromFloat(net),
		Status:        domain.TxnCompleted,
		ProcessedBy:   testActorID,
	}
}

func (s *LedgerServiceTestSuite) TestBuildEntries_Deposit() {
	entries, err := s.fx.ledgerSvc.BuildEntries(baseTxn(domain.TypeDeposit, 100, 0), nil)

	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.True(accounting.EntriesBalanced(entries))
	s.Equal(domain.CodeCash, entries[0].AccountCode)
	s.True(entries[0].IsDebit())
	s.Equal(domain.CodeMemberDeposits, entries[1].AccountCode)
	s.True(decimal.NewFromFloat(100).Equal(entries[1].CreditAmount))
	for _, e := range entries {
		s.Equal(domain.EntryPosted, e.Status)
	}
}

func (s *LedgerServiceTestSuite) TestBuildEntries_FeeAddsCollectionPair() {
	entries, err := s.fx.ledgerSvc.BuildEntries(baseTxn(domain.TypeWithdrawal, 95, 5), nil)

	s.Require().NoError(err)
	s.Require().Len(entries, 4)
	s.True(accounting.EntriesBalanced(entries))

	var feeCredit decimal.Decimal
	for _, e := range entries {
		if e.AccountCode == domain.CodeFeeIncome {
			feeCredit = feeCredit.Add(e.CreditAmount)
		}
	}
	s.True(decimal.NewFromFloat(5).Equal(feeCredit))
}

func (s *LedgerServiceTestSuite) TestBuildEntries_RepaymentSplitsAcrossAllocation() {
	alloc := &domain.PaymentAllocation{
		Penalty:   decimal.NewFromFloat(50),
		Interest:  decimal.NewFromFloat(120),
		Principal: decimal.NewFromFloat(130),
	}

	entries, err := s.fx.ledgerSvc.BuildEntries(baseTxn(domain.TypeLoanRepayment, 300, 0), alloc)

	s.Require().NoError(err)
	s.Require().Len(entries, 4)
	s.True(accounting.EntriesBalanced(entries))

	byCode := map[string]decimal.Decimal{}
	for _, e := range entries {
		byCode[e.AccountCode] = byCode[e.AccountCode].Add(e.CreditAmount)
	}
	s.True(decimal.NewFromFloat(50).Equal(byCode[domain.CodePenaltyIncome]))
	s.True(decimal.NewFromFloat(120).Equal(byCode[domain.CodeInterestIncome]))
	s.True(decimal.NewFromFloat(130).Equal(byCode[domain.CodeLoansReceivable]))
}

func (s *LedgerServiceTestSuite) TestBuildEntries_ZeroAllocationTiersProduceNoLegs() {
	alloc := &domain.PaymentAllocation{
		Principal: decimal.NewFromFloat(300),
	}

	entries, err := s.fx.ledgerSvc.BuildEntries(baseTxn(domain.TypeLoanRepayment, 300, 0), alloc)

	s.Require().NoError(err)
	s.Require().Len(entries, 2) // cash debit + principal credit only
	s.True(accounting.EntriesBalanced(entries))
}

func (s *LedgerServiceTestSuite) TestBuildEntries_ReversalSwapsLegsAndFlagsThem() {
	txn := baseTxn(domain.TypeDeposit, 100, 0)
	originalID := "txn_0"
	txn.ReversalOfID = &originalID

	entries, err := s.fx.ledgerSvc.BuildEntries(txn, nil)

	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.True(accounting.EntriesBalanced(entries))
	// Legs run opposite to a normal deposit.
	s.Equal(domain.CodeCash, entries[0].AccountCode)
	s.True(decimal.NewFromFloat(100).Equal(entries[0].CreditAmount))
	for _, e := range entries {
		s.Equal(domain.EntryReversed, e.Status)
	}
}

func (s *LedgerServiceTestSuite) TestBuildEntries_UnknownTypeFails() {
	_, err := s.fx.ledgerSvc.BuildEntries(baseTxn("BARTER", 100, 0), nil)
	s.True(errors.Is(err, apperrors.ErrValidation))
}

func (s *LedgerServiceTestSuite) TestGetTrialBalance_BalancesAfterMixedActivity() {
	savings := s.fx.seedSavings("member_1", 0)
	loanAccount := s.fx.seedLoanAccount("member_2", domain.LoanActive, 50, 120, 5000)

	_, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: savings.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(500),
		FeeAmount: decimal.NewFromFloat(5),
	}, testActorID)
	s.Require().NoError(err)

	_, err = s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_2",
		AccountID: loanAccount.AccountID,
		Type:      domain.TypeLoanRepayment,
		Amount:    decimal.NewFromFloat(300),
	}, testActorID)
	s.Require().NoError(err)

	report, err := s.fx.ledgerSvc.GetTrialBalance(s.ctx, testSaccoID, s.fx.clock.Now())

	s.Require().NoError(err)
	s.True(report.Balanced)
	s.True(report.TotalDebits.Equal(report.TotalCredits))
	s.NotEmpty(report.Rows)
	for _, row := range report.Rows {
		s.NotEmpty(row.AccountName, "chart code %s should resolve to a name", row.AccountCode)
	}
}

func (s *LedgerServiceTestSuite) TestGetTrialBalance_ExcludesReversedPairs() {
	savings := s.fx.seedSavings("member_1", 0)
	reversalSvc := services.NewReversalService(s.fx.store, s.fx.txnSvc, s.fx.clock)

	deposit, err := s.fx.txnSvc.ProcessTransaction(s.ctx, testSaccoID, dto.ProcessTransactionRequest{
		MemberID:  "member_1",
		AccountID: savings.AccountID,
		Type:      domain.TypeDeposit,
		Amount:    decimal.NewFromFloat(500),
	}, testActorID)
	s.Require().NoError(err)

	_, err = reversalSvc.ReverseTransaction(s.ctx, testSaccoID, deposit.TransactionID, "undo", testActorID)
	s.Require().NoError(err)

	report, err := s.fx.ledgerSvc.GetTrialBalance(s.ctx, testSaccoID, s.fx.clock.Now())

	s.Require().NoError(err)
	s.True(report.Balanced)
	s.True(report.TotalDebits.IsZero())
	s.True(report.TotalCredits.IsZero())
}
