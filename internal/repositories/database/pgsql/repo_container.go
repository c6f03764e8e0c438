package pgsql

import (
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool, accountRepo)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	loanRepo := newPgxLoanRepository(dbPool)
	sequenceRepo := newPgxSequenceRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		LedgerRepo:      ledgerRepo,
		LoanRepo:        loanRepo,
		SequenceRepo:    sequenceRepo,
	}
}
