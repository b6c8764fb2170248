// Package memory provides an in-memory implementation of the ledger repositories.
// It is intended for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/billing_ledger/internal/apperrors"
	"github.com/SscSPs/billing_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/billing_ledger/internal/utils/accounting"
	"github.com/SscSPs/billing_ledger/internal/utils/pagination"
)

// Compile-time interface checks.
var (
	_ portsrepo.BalanceRepositoryFacade    = (*Store)(nil)
	_ portsrepo.LedgerRepositoryFacade     = (*Store)(nil)
	_ portsrepo.UserRepositoryFacade       = (*Store)(nil)
	_ portsrepo.PriceRepositoryFacade      = (*Store)(nil)
	_ portsrepo.DeadLetterRepositoryFacade = (*Store)(nil)
	_ portsrepo.EventClaimStore            = (*Store)(nil)
)

const defaultPageSize = 20

// accountSlot holds one balance record. mu serialises mutations of that account only.
type accountSlot struct {
	mu      sync.Mutex
	account domain.BillingAccount
}

// Store is a thread-safe in-memory repository set.
// Lock order is slot.mu before Store.mu; Store.mu is never held while waiting on a slot.
type Store struct {
	mu sync.RWMutex

	accounts    map[int64]*accountSlot
	entries     map[int64][]domain.LedgerEntry
	eventIndex  map[string]domain.LedgerEntry
	users       map[int64]domain.User
	prices      map[string]domain.Price
	deadLetters map[string]domain.DeadLetter
	claims      map[string]time.Time

	now func() time.Time
}

// New creates a new empty in-memory store.
func New() *Store {
	return &Store{
		accounts:    make(map[int64]*accountSlot),
		entries:     make(map[int64][]domain.LedgerEntry),
		eventIndex:  make(map[string]domain.LedgerEntry),
		users:       make(map[int64]domain.User),
		prices:      make(map[string]domain.Price),
		deadLetters: make(map[string]domain.DeadLetter),
		claims:      make(map[string]time.Time),
		now:         time.Now,
	}
}

// Provider returns a RepositoryProvider backed by this store.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		BalanceRepo:    s,
		LedgerRepo:     s,
		UserRepo:       s,
		PriceRepo:      s,
		DeadLetterRepo: s,
	}
}

func (s *Store) slot(userID int64) (*accountSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.accounts[userID]
	return sl, ok
}

func accountNotFound(userID int64) error {
	return fmt.Errorf("%w: billing account for user %d", apperrors.ErrNotFound, userID)
}

// --- Balances ---

func (s *Store) FindBalanceByUserID(_ context.Context, userID int64) (*domain.BillingAccount, error) {
	sl, ok := s.slot(userID)
	if !ok {
		return nil, accountNotFound(userID)
	}
	sl.mu.Lock()
	account := sl.account
	sl.mu.Unlock()
	return &account, nil
}

func (s *Store) ListBalanceUserIDs(_ context.Context, afterUserID int64, limit int) ([]int64, error) {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		if id > afterUserID {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *Store) CreateBalance(_ context.Context, account domain.BillingAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.UserID]; exists {
		return fmt.Errorf("%w: billing account for user %d", apperrors.ErrDuplicate, account.UserID)
	}
	s.accounts[account.UserID] = &accountSlot{account: account}
	return nil
}

func (s *Store) UpdateBalanceStatus(_ context.Context, userID int64, status domain.AccountStatus, operatorUserID int64, now time.Time) error {
	sl, ok := s.slot(userID)
	if !ok {
		return accountNotFound(userID)
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.account.Status = status
	sl.account.LastUpdatedAt = now
	sl.account.LastUpdatedBy = operatorUserID
	sl.account.Version++
	return nil
}

// --- Ledger ---

func (s *Store) ApplyMutation(_ context.Context, userID int64, mutate portsrepo.MutationFunc) (*domain.BillingAccount, *domain.LedgerEntry, error) {
	sl, ok := s.slot(userID)
	if !ok {
		return nil, nil, accountNotFound(userID)
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	entry, err := mutate(sl.account)
	if err != nil {
		return nil, nil, err
	}
	entry.UserID = userID

	s.mu.Lock()
	if entry.EventID != nil {
		if _, exists := s.eventIndex[*entry.EventID]; exists {
			s.mu.Unlock()
			return nil, nil, fmt.Errorf("%w: ledger entry for event %s", apperrors.ErrDuplicate, *entry.EventID)
		}
		s.eventIndex[*entry.EventID] = entry
	}
	s.entries[userID] = append(s.entries[userID], entry)
	s.mu.Unlock()

	sl.account.Balance = entry.BalanceAfter
	sl.account.LastUpdatedAt = entry.CreatedAt
	sl.account.LastUpdatedBy = entry.OperatorUserID
	sl.account.Version++

	account := sl.account
	return &account, &entry, nil
}

func (s *Store) FindEntryByEventID(_ context.Context, eventID string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.eventIndex[eventID]
	if !ok {
		return nil, fmt.Errorf("%w: ledger entry for event %s", apperrors.ErrNotFound, eventID)
	}
	return &entry, nil
}

func (s *Store) ListEntriesByUserID(_ context.Context, userID int64, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var cursorAt time.Time
	var cursorID string
	if nextToken != nil && *nextToken != "" {
		var err error
		cursorAt, cursorID, err = pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
	}

	s.mu.RLock()
	all := make([]domain.LedgerEntry, len(s.entries[userID]))
	copy(all, s.entries[userID])
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].EntryID > all[j].EntryID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	page := make([]domain.LedgerEntry, 0, limit)
	for _, e := range all {
		if cursorID != "" && !pagination.IsAfterCursor(e.CreatedAt, e.EntryID, cursorAt, cursorID) {
			continue
		}
		// Fetch one extra to know whether another page exists.
		if len(page) == limit+1 {
			break
		}
		page = append(page, e)
	}

	var next *string
	if len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.EntryID)
		next = &token
	}
	return page, next, nil
}

func (s *Store) LoadReconciliation(_ context.Context, userID int64) (*domain.ReconciliationReport, error) {
	sl, ok := s.slot(userID)
	if !ok {
		return nil, accountNotFound(userID)
	}
	// Holding the account lock keeps the balance and entries from moving apart while we read.
	sl.mu.Lock()
	defer sl.mu.Unlock()

	s.mu.RLock()
	entries := s.entries[userID]
	credits, debits := accounting.SumEntries(entries)
	report := &domain.ReconciliationReport{
		UserID:       userID,
		Balance:      sl.account.Balance,
		TotalCredits: credits,
		TotalDebits:  debits,
		EntryCount:   int64(len(entries)),
	}
	s.mu.RUnlock()

	return report, nil
}

// --- Users ---

func (s *Store) FindUserByID(_ context.Context, userID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
	}
	return &user, nil
}

func (s *Store) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
	return nil
}

// --- Prices ---

func (s *Store) FindPriceByBusinessType(_ context.Context, businessType string) (*domain.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[businessType]
	if !ok {
		return nil, fmt.Errorf("%w: price for %s", apperrors.ErrNotFound, businessType)
	}
	return &price, nil
}

func (s *Store) SavePrice(_ context.Context, price domain.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[price.BusinessType] = price
	return nil
}

// --- Dead letters ---

func (s *Store) SaveDeadLetter(_ context.Context, deadLetter domain.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deadLetters[deadLetter.ID]; exists {
		return fmt.Errorf("%w: dead letter %s", apperrors.ErrDuplicate, deadLetter.ID)
	}
	s.deadLetters[deadLetter.ID] = deadLetter
	return nil
}

func (s *Store) FindDeadLetterByID(_ context.Context, id string) (*domain.DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dl, ok := s.deadLetters[id]
	if !ok {
		return nil, fmt.Errorf("%w: dead letter %s", apperrors.ErrNotFound, id)
	}
	return &dl, nil
}

func (s *Store) ListDeadLetters(_ context.Context, includeReplayed bool, limit int, nextToken *string) ([]domain.DeadLetter, *string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var cursorAt time.Time
	var cursorID string
	if nextToken != nil && *nextToken != "" {
		var err error
		cursorAt, cursorID, err = pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
	}

	s.mu.RLock()
	all := make([]domain.DeadLetter, 0, len(s.deadLetters))
	for _, dl := range s.deadLetters {
		if dl.ReplayedAt != nil && !includeReplayed {
			continue
		}
		all = append(all, dl)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	page := make([]domain.DeadLetter, 0, limit)
	for _, dl := range all {
		if cursorID != "" && !pagination.IsAfterCursor(dl.CreatedAt, dl.ID, cursorAt, cursorID) {
			continue
		}
		if len(page) == limit+1 {
			break
		}
		page = append(page, dl)
	}

	var next *string
	if len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.ID)
		next = &token
	}
	return page, next, nil
}

func (s *Store) MarkReplayed(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dl, ok := s.deadLetters[id]
	if !ok {
		return fmt.Errorf("%w: dead letter %s", apperrors.ErrNotFound, id)
	}
	dl.ReplayedAt = &at
	s.deadLetters[id] = dl
	return nil
}

// --- Event claims ---

func (s *Store) Claim(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, held := s.claims[eventID]; held && now.Before(expiry) {
		return false, nil
	}
	s.claims[eventID] = now.Add(ttl)
	return true, nil
}

func (s *Store) Release(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, eventID)
	return nil
}
