package domain

// AccountType defines the fundamental accounting type of a chart code.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// NormalBalance is the side a chart code normally carries its balance on.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// ChartOfAccount is one code in the fixed global registry used for ledger
// postings. The registry content is static lookup data.
type ChartOfAccount struct {
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Type          AccountType   `json:"type"`
	NormalBalance NormalBalance `json:"normalBalance"`
}

// Chart codes used by the posting rules.
const (
	CodeCash            = "1000"
	CodeLoansReceivable = "1200"
	CodeMemberDeposits  = "2000"
	CodeMemberWallets   = "2100"
	CodeShareCapital    = "3000"
	CodeInterestIncome  = "4000"
	CodeFeeIncome       = "4100"
	CodePenaltyIncome   = "4200"
	CodeInterestExpense = "5000"
	CodeDividendExpense = "5100"
)

// DefaultChartOfAccounts returns the fixed SACCO chart used by the ledger.
func DefaultChartOfAccounts() map[string]ChartOfAccount {
	return map[string]ChartOfAccount{
		CodeCash:            {Code: CodeCash, Name: "Cash", Type: Asset, NormalBalance: NormalDebit},
		CodeLoansReceivable: {Code: CodeLoansReceivable, Name: "Loans Receivable", Type: Asset, NormalBalance: NormalDebit},
		CodeMemberDeposits:  {Code: CodeMemberDeposits, Name: "Member Deposits", Type: Liability, NormalBalance: NormalCredit},
		CodeMemberWallets:   {Code: CodeMemberWallets, Name: "Member Wallets", Type: Liability, NormalBalance: NormalCredit},
		CodeShareCapital:    {Code: CodeShareCapital, Name: "Share Capital", Type: Equity, NormalBalance: NormalCredit},
		CodeInterestIncome:  {Code: CodeInterestIncome, Name: "Interest Income", Type: Income, NormalBalance: NormalCredit},
		CodeFeeIncome:       {Code: CodeFeeIncome, Name: "Fee Income", Type: Income, NormalBalance: NormalCredit},
		CodePenaltyIncome:   {Code: CodePenaltyIncome, Name: "Penalty Income", Type: Income, NormalBalance: NormalCredit},
		CodeInterestExpense: {Code: CodeInterestExpense, Name: "Interest Expense", Type: Expense, NormalBalance: NormalDebit},
		CodeDividendExpense: {Code: CodeDividendExpense, Name: "Dividend Expense", Type: Expense, NormalBalance: NormalDebit},
	}
}
