package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coopfin/sacco_core_app/internal/apperrors"
	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portsrepo "github.com/coopfin/sacco_core_app/internal/core/ports/repositories"
)

// Store is an in-memory implementation of every repository facade. It backs
// tests and local development without Postgres. Per-account mutexes give the
// same serialization guarantee as the row locks in the pgsql implementation.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	loans        map[string]*domain.Loan
	transactions map[string]*domain.Transaction
	entries      []domain.LedgerEntry
	repayments   map[string]*domain.LoanRepayment // keyed by transaction ID
	sequences    map[string]int64

	lockMu       sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		loans:        make(map[string]*domain.Loan),
		transactions: make(map[string]*domain.Transaction),
		repayments:   make(map[string]*domain.LoanRepayment),
		sequences:    make(map[string]int64),
		accountLocks: make(map[string]*sync.Mutex),
	}
}

var (
	_ portsrepo.AccountRepositoryFacade     = (*Store)(nil)
	_ portsrepo.TransactionRepositoryFacade = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade      = (*Store)(nil)
	_ portsrepo.LoanRepositoryFacade        = (*Store)(nil)
	_ portsrepo.SequenceSource              = (*Store)(nil)
)

// Provider wraps the store as a RepositoryProvider.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     s,
		TransactionRepo: s,
		LedgerRepo:      s,
		LoanRepo:        s,
		SequenceRepo:    s,
	}
}

func (s *Store) lockFor(accountID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.accountLocks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.accountLocks[accountID] = l
	}
	return l
}

// ExecutePosting acquires the per-account mutexes in ID order, hands fresh
// clones to build, and applies the returned posting atomically.
func (s *Store) ExecutePosting(ctx context.Context, saccoID string, accountIDs []string, build func(accounts map[string]*domain.Account) (*portsrepo.Posting, error)) error {
	sorted := make([]string, 0, len(accountIDs))
	seen := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	for _, id := range sorted {
		l := s.lockFor(id)
		l.Lock()
		defer l.Unlock()
	}

	accounts := make(map[string]*domain.Account, len(sorted))
	s.mu.RLock()
	for _, id := range sorted {
		stored, ok := s.accounts[id]
		if !ok {
			s.mu.RUnlock()
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if stored.SaccoID != saccoID {
			s.mu.RUnlock()
			return apperrors.ErrNotFound
		}
		accounts[id] = stored.Clone()
	}
	s.mu.RUnlock()

	posting, err := build(accounts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if posting.MarkReversed != nil {
		original, ok := s.transactions[posting.MarkReversed.TransactionID]
		if !ok {
			return apperrors.ErrNotFound
		}
		if original.Status != domain.TxnCompleted || original.ReversedByID != nil {
			return apperrors.ErrNotReversible
		}
	}
	for i := range posting.Transactions {
		if _, dup := s.transactions[posting.Transactions[i].TransactionID]; dup {
			return apperrors.ErrDuplicate
		}
	}

	for i := range posting.Transactions {
		txn := posting.Transactions[i]
		s.transactions[txn.TransactionID] = &txn
	}
	s.entries = append(s.entries, posting.Entries...)
	if posting.Repayment != nil {
		p := *posting.Repayment
		s.repayments[p.TransactionID] = &p
	}
	for _, account := range posting.Accounts {
		cp := account.Clone()
		s.accounts[cp.AccountID] = cp
		if cp.Loan != nil {
			s.loans[cp.Loan.LoanID] = cp.Loan
		}
	}
	if posting.MarkReversed != nil {
		mark := posting.MarkReversed
		original := s.transactions[mark.TransactionID]
		original.Status = domain.TxnReversed
		original.ReversedByID = &mark.ReversedByTransactionID
		at := mark.ReversedAt
		original.ReversedAt = &at
		original.ReversalReason = mark.Reason
		original.LastUpdatedAt = mark.ReversedAt
		original.LastUpdatedBy = mark.ReversedBy
		for i := range s.entries {
			if s.entries[i].TransactionID == mark.TransactionID {
				s.entries[i].Status = domain.EntryReversed
			}
		}
	}
	return nil
}

// FindAccountByID retrieves an account clone.
func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return account.Clone(), nil
}

// FindAccountsByIDs retrieves multiple account clones.
func (s *Store) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			out[id] = *account.Clone()
		}
	}
	return out, nil
}

// FindAccountByMember retrieves a member's account of the given kind.
func (s *Store) FindAccountByMember(ctx context.Context, saccoID, memberID string, kind domain.AccountKind) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var match *domain.Account
	for _, account := range s.accounts {
		if account.SaccoID == saccoID && account.MemberID == memberID && account.Kind == kind {
			if match == nil || account.CreatedAt.Before(match.CreatedAt) {
				match = account
			}
		}
	}
	if match == nil {
		return nil, apperrors.ErrNotFound
	}
	return match.Clone(), nil
}

// ListAccountsByKind retrieves all accounts of one kind for a SACCO, oldest
// first.
func (s *Store) ListAccountsByKind(ctx context.Context, saccoID string, kind domain.AccountKind) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Account
	for _, account := range s.accounts {
		if account.SaccoID == saccoID && account.Kind == kind {
			out = append(out, *account.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SaveAccount persists a new account with its accountable entity.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.accounts[account.AccountID]; dup {
		return apperrors.ErrDuplicate
	}
	cp := account.Clone()
	s.accounts[cp.AccountID] = cp
	if cp.Loan != nil {
		s.loans[cp.Loan.LoanID] = cp.Loan
	}
	return nil
}

// FindTransactionByID retrieves a transaction copy.
func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *txn
	return &cp, nil
}

// ListTransactionsByAccountID retrieves transactions for an account, newest
// first. The in-memory store ignores pagination tokens and returns up to
// limit rows.
func (s *Store) ListTransactionsByAccountID(ctx context.Context, saccoID, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Transaction
	for _, txn := range s.transactions {
		if txn.SaccoID == saccoID && txn.AccountID == accountID {
			out = append(out, *txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TransactionID > out[j].TransactionID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

// FindEntriesByTransactionID retrieves the ledger legs of one transaction.
func (s *Store) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LedgerEntry
	for i := range s.entries {
		if s.entries[i].TransactionID == transactionID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// ListEntriesByAccountCode retrieves entries posted to one chart code,
// newest first.
func (s *Store) ListEntriesByAccountCode(ctx context.Context, saccoID, accountCode string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LedgerEntry
	for i := range s.entries {
		if s.entries[i].SaccoID == saccoID && s.entries[i].AccountCode == accountCode {
			out = append(out, s.entries[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].EntryID > out[j].EntryID
		}
		return out[i].PostedAt.After(out[j].PostedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

// GetTrialBalanceData aggregates debit/credit sums per chart code over
// posted, non-reversed entries up to asOf.
func (s *Store) GetTrialBalanceData(ctx context.Context, saccoID string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byCode := make(map[string]*domain.TrialBalanceRow)
	for i := range s.entries {
		e := &s.entries[i]
		if e.SaccoID != saccoID || e.Status != domain.EntryPosted || e.PostedAt.After(asOf) {
			continue
		}
		row, ok := byCode[e.AccountCode]
		if !ok {
			row = &domain.TrialBalanceRow{AccountCode: e.AccountCode}
			byCode[e.AccountCode] = row
		}
		row.DebitTotal = row.DebitTotal.Add(e.DebitAmount)
		row.CreditTotal = row.CreditTotal.Add(e.CreditAmount)
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]domain.TrialBalanceRow, 0, len(codes))
	for _, code := range codes {
		out = append(out, *byCode[code])
	}
	return out, nil
}

// FindLoanByID retrieves a loan clone.
func (s *Store) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loan, ok := s.loans[loanID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return loan.Clone(), nil
}

// FindRepaymentByTransactionID retrieves the repayment recorded for a
// repayment transaction.
func (s *Store) FindRepaymentByTransactionID(ctx context.Context, transactionID string) (*domain.LoanRepayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.repayments[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListRepaymentsByLoanID retrieves all payment events for a loan, oldest
// first.
func (s *Store) ListRepaymentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanRepayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LoanRepayment
	for _, p := range s.repayments {
		if p.LoanID == loanID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

// SaveLoan persists a new loan.
func (s *Store) SaveLoan(ctx context.Context, loan domain.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.loans[loan.LoanID]; dup {
		return apperrors.ErrDuplicate
	}
	cp := loan.Clone()
	s.loans[cp.LoanID] = cp
	if account, ok := s.accounts[cp.AccountID]; ok {
		account.Loan = cp
	}
	return nil
}

// UpdateLoanStatus updates the loan's status only.
func (s *Store) UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[loanID]
	if !ok {
		return apperrors.ErrNotFound
	}
	loan.Status = status
	loan.LastUpdatedAt = time.Now().UTC()
	loan.LastUpdatedBy = updatedBy
	return nil
}

// Next atomically increments and returns the named sequence for the SACCO.
func (s *Store) Next(ctx context.Context, saccoID, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := saccoID + "/" + name
	s.sequences[key]++
	return s.sequences[key], nil
}
