// Package memory is an in-process entity store with the same observable
// behavior as the Postgres repository: owner-scoped filtered queries, the
// category join, ON DELETE SET NULL for categories and ON DELETE CASCADE for
// users. It backs STORE_BACKEND=memory and the service and handler tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dan9191/finance-service/internal/apperrors"
	"github.com/Dan9191/finance-service/internal/models"
)

type transactionRow struct {
	models.Transaction
	seq int64
}

// Store keeps users, categories and transactions in maps guarded by one lock.
type Store struct {
	mu           sync.RWMutex
	seq          int64
	now          func() time.Time
	users        map[string]models.User
	categories   map[string]models.Category
	transactions map[string]transactionRow
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:          time.Now,
		users:        make(map[string]models.User),
		categories:   make(map[string]models.Category),
		transactions: make(map[string]transactionRow),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.New(apperrors.ErrConflict, "email already in use")
		}
	}
	now := s.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b models.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return users, nil
}

// DeleteUser removes the user together with their categories and transactions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
	for cid, c := range s.categories {
		if c.UserID == id {
			delete(s.categories, cid)
		}
	}
	for tid, t := range s.transactions {
		if t.UserID == id {
			delete(s.transactions, tid)
		}
	}
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[c.UserID]; !ok {
		return apperrors.New(apperrors.ErrUnauthenticated, "user no longer exists")
	}
	now := s.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	s.categories[c.ID] = cloneCategory(*c)
	return nil
}

// ListCategoriesByUser orders by name with byte-wise comparison, matching
// the "C" collation.
func (s *Store) ListCategoriesByUser(ctx context.Context, userID string) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := []models.Category{}
	for _, c := range s.categories {
		if c.UserID == userID {
			categories = append(categories, cloneCategory(c))
		}
	}
	slices.SortFunc(categories, func(a, b models.Category) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return categories, nil
}

func (s *Store) FindCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	c = cloneCategory(c)
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[c.ID]
	if !ok {
		return apperrors.New(apperrors.ErrNotFound, "category not found")
	}
	existing.Name = c.Name
	existing.Description = clonePtr(c.Description)
	existing.UpdatedAt = s.now().UTC()
	s.categories[c.ID] = existing
	c.UpdatedAt = existing.UpdatedAt
	return nil
}

// DeleteCategory removes the category and clears the reference on every
// transaction that pointed at it.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.categories, id)
	for tid, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			s.transactions[tid] = t
		}
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReferences(t); err != nil {
		return err
	}
	now := s.now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	s.seq++
	row := transactionRow{Transaction: cloneTransaction(*t), seq: s.seq}
	row.Category = nil
	s.transactions[t.ID] = row
	return nil
}

// FindTransactions returns the user's matching transactions, most recent
// date first and newest insertion first within a date.
func (s *Store) FindTransactions(ctx context.Context, userID string, filters models.TransactionFilters) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []transactionRow
	for _, t := range s.transactions {
		if t.UserID == userID && filters.Match(&t.Transaction) {
			rows = append(rows, t)
		}
	}
	slices.SortFunc(rows, func(a, b transactionRow) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	transactions := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		transactions = append(transactions, s.joined(r))
	}
	return transactions, nil
}

func (s *Store) FindTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	t := s.joined(row)
	return &t, nil
}

// UpdateTransaction writes the mutable fields; the owner is kept from the stored row.
func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.transactions[t.ID]
	if !ok {
		return apperrors.New(apperrors.ErrNotFound, "transaction not found")
	}
	if err := s.checkReferences(t); err != nil {
		return err
	}
	row.Description = t.Description
	row.Amount = t.Amount
	row.Type = t.Type
	row.Date = t.Date
	row.Notes = clonePtr(t.Notes)
	row.CategoryID = clonePtr(t.CategoryID)
	row.UpdatedAt = s.now().UTC()
	s.transactions[t.ID] = row
	t.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.transactions, id)
	return nil
}

// checkReferences mirrors the foreign keys on transactions.
func (s *Store) checkReferences(t *models.Transaction) error {
	if _, ok := s.users[t.UserID]; !ok {
		return apperrors.New(apperrors.ErrUnauthenticated, "user no longer exists")
	}
	if t.CategoryID != nil {
		if _, ok := s.categories[*t.CategoryID]; !ok {
			return apperrors.Invalid("categoryId", "does not reference an existing category")
		}
	}
	return nil
}

func (s *Store) joined(row transactionRow) models.Transaction {
	t := cloneTransaction(row.Transaction)
	t.Category = nil
	if t.CategoryID != nil {
		if c, ok := s.categories[*t.CategoryID]; ok {
			t.Category = &models.CategoryRef{ID: c.ID, Name: c.Name, Description: clonePtr(c.Description)}
		}
	}
	return t
}

func cloneCategory(c models.Category) models.Category {
	c.Description = clonePtr(c.Description)
	return c
}

func cloneTransaction(t models.Transaction) models.Transaction {
	t.Notes = clonePtr(t.Notes)
	t.CategoryID = clonePtr(t.CategoryID)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
