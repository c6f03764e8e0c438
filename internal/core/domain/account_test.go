package domain_test

import (
	"testing"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccount_Accountable(t *testing.T) {
	tests := []struct {
		name    string
		account domain.Account
		wantErr bool
	}{
		{
			name: "savings account resolves its balance",
			account: domain.Account{
				AccountID: "acc_1",
				Kind:      domain.KindSavings,
				Savings:   &domain.SavingsBalance{Balance: decimal.NewFromFloat(100)},
			},
		},
		{
			name: "loan account resolves its loan",
			account: domain.Account{
				AccountID: "acc_2",
				Kind:      domain.KindLoan,
				Loan:      &domain.Loan{LoanID: "loan_1"},
			},
		},
		{
			name: "share account resolves its shares",
			account: domain.Account{
				AccountID: "acc_3",
				Kind:      domain.KindShare,
				Share:     &domain.ShareBalance{ShareCount: decimal.NewFromInt(10)},
			},
		},
		{
			name: "kind without matching variant fails",
			account: domain.Account{
				AccountID: "acc_4",
				Kind:      domain.KindLoan,
				Savings:   &domain.SavingsBalance{},
			},
			wantErr: true,
		},
		{
			name:    "unknown kind fails",
			account: domain.Account{AccountID: "acc_5", Kind: "WALLET"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			holder, err := tt.account.Accountable()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, holder)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, holder)
			}
		})
	}
}

func TestAccount_Clone_IsIndependent(t *testing.T) {
	original := &domain.Account{
		AccountID: "acc_1",
		Kind:      domain.KindSavings,
		Status:    domain.AccountActive,
		Savings:   &domain.SavingsBalance{Balance: decimal.NewFromFloat(100), AvailableBalance: decimal.NewFromFloat(100)},
	}

	cp := original.Clone()
	cp.Savings.Credit(decimal.NewFromFloat(50))

	assert.True(t, decimal.NewFromFloat(100).Equal(original.Savings.Balance))
	assert.True(t, decimal.NewFromFloat(150).Equal(cp.Savings.Balance))
}

func TestSavingsBalance_CanDebit_RespectsMinimumBalance(t *testing.T) {
	s := &domain.SavingsBalance{
		Balance:          decimal.NewFromFloat(500),
		AvailableBalance: decimal.NewFromFloat(500),
		MinimumBalance:   decimal.NewFromFloat(100),
	}

	assert.True(t, s.CanDebit(decimal.NewFromFloat(400)))
	assert.False(t, s.CanDebit(decimal.NewFromFloat(400.01)))
	assert.False(t, s.CanDebit(decimal.Zero))
}

func TestShareBalance_CreditAndDebitConvertAtUnitPrice(t *testing.T) {
	s := &domain.ShareBalance{ShareCount: decimal.NewFromInt(10), ShareValue: decimal.NewFromFloat(50)}

	s.Credit(decimal.NewFromFloat(100)) // 2 shares
	assert.True(t, decimal.NewFromInt(12).Equal(s.ShareCount))

	err := s.Debit(decimal.NewFromFloat(600))
	assert.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(s.ShareCount))

	assert.False(t, s.CanDebit(decimal.NewFromFloat(1)))
}
