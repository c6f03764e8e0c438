package services

import (
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
	"github.com/coopfin/sacco_core_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher portssvc.TransactionEventPublisher) *portssvc.ServiceContainer {
	clock := NewRealClock()
	container := &portssvc.ServiceContainer{}

	numbers := NewTransactionNumberGenerator(repos.SequenceRepo)
	balanceSvc := NewBalanceService()
	ledgerSvc := NewLedgerService(repos.LedgerRepo, clock)

	txnSvc := NewTransactionService(
		repos.TransactionRepo,
		repos.AccountRepo,
		repos.LoanRepo,
		balanceSvc,
		ledgerSvc,
		numbers,
		publisher,
		domain.ParseOverpaymentPolicy(cfg.OverpaymentPolicy),
		clock,
	)
	container.Transaction = txnSvc
	container.Reversal = NewReversalService(repos.TransactionRepo, txnSvc, clock)
	container.Ledger = ledgerSvc
	container.Loan = NewLoanService(repos.LoanRepo, repos.AccountRepo, txnSvc, clock)
	container.Batch = NewBatchService(repos.AccountRepo, txnSvc, clock)

	return container
}
