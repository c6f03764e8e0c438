package accounting

import (
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedNetAmount returns the effect of a transaction on its account's
// balance: positive for credit-direction types, negative for debit-direction
// types, with the sign flipped for compensating (reversal) transactions.
func SignedNetAmount(txn domain.Transaction) decimal.Decimal {
	signed := txn.NetAmount
	if txn.Type.IsDebit() {
		signed = signed.Neg()
	}
	if txn.IsReversal() {
		signed = signed.Neg()
	}
	return signed
}

// SumEntries returns the debit and credit totals across a set of ledger
// entries.
func SumEntries(entries []domain.LedgerEntry) (debits, credits decimal.Decimal) {
	debits = decimal.Zero
	credits = decimal.Zero
	for _, e := range entries {
		debits = debits.Add(e.DebitAmount)
		credits = credits.Add(e.CreditAmount)
	}
	return debits, credits
}

// EntriesBalanced reports whether total debits equal total credits within
// the currency epsilon.
func EntriesBalanced(entries []domain.LedgerEntry) bool {
	debits, credits := SumEntries(entries)
	return debits.Sub(credits).Abs().LessThan(domain.CurrencyEpsilon)
}

// ReplayBalance folds completed, non-reversed transactions over an initial
// balance. Reversed originals and their compensating transactions are both
// excluded; they cancel by construction.
func ReplayBalance(initial decimal.Decimal, txns []domain.Transaction) decimal.Decimal {
	balance := initial
	for _, txn := range txns {
		if txn.Status != domain.TxnCompleted || txn.IsReversal() {
			continue
		}
		balance = balance.Add(SignedNetAmount(txn))
	}
	return balance
}
