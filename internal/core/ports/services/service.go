package services

// ServiceContainer holds instances of all the application services.
// This is used for dependency injection throughout the application.
type ServiceContainer struct {
	Transaction TransactionSvcFacade
	Reversal    ReversalSvcFacade
	Ledger      LedgerSvcFacade
	Loan        LoanSvcFacade
	Batch       BatchSvcFacade
}
