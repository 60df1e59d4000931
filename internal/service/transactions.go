package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-service/internal/events"
	"github.com/Dan9191/finance-service/internal/models"
)

// TransactionService records transactions and aggregates filtered views of
// them into income, expense and balance totals.
type TransactionService struct {
	store  TransactionStore
	events events.Publisher
	log    *logrus.Logger
}

// NewTransactionService initializes a transaction service. A nil publisher
// drops events.
func NewTransactionService(store TransactionStore, publisher events.Publisher, log *logrus.Logger) *TransactionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TransactionService{store: store, events: publisher, log: log}
}

// Create stores a transaction owned by userID.
//
// The category id is checked for existence by the store but not for
// ownership: a caller may reference another user's category.
func (s *TransactionService) Create(ctx context.Context, userID string, in models.TransactionInput) (*models.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Date:        in.Date,
		Notes:       in.Notes,
		CategoryID:  in.CategoryID,
		UserID:      userID,
	}
	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}

	created, err := s.reload(ctx, t)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": created.ID,
		"type":           created.Type,
		"amount":         created.Amount.String(),
	}).Info("Transaction created")
	s.publish(ctx, events.TransactionCreated, created)
	return created, nil
}

// FindAll returns the caller's transactions matching filters, most recent
// first, with their totals.
func (s *TransactionService) FindAll(ctx context.Context, userID string, filters models.TransactionFilters) (*models.TransactionSummary, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	transactions, err := s.store.FindTransactions(ctx, userID, filters)
	if err != nil {
		return nil, err
	}
	summary := Summarize(transactions)
	return &summary, nil
}

// Summarize totals income and expense over transactions. Both totals are
// zero, not absent, when no row of that type exists.
func Summarize(transactions []models.Transaction) models.TransactionSummary {
	income, expense := models.ZeroAmount(), models.ZeroAmount()
	for _, t := range transactions {
		switch t.Type {
		case models.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case models.TransactionTypeExpense:
			expense = expense.Add(t.Amount)
		}
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	return models.TransactionSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
		Transactions: transactions,
	}
}

// GetOne fetches a transaction with its category and checks that userID owns it.
func (s *TransactionService) GetOne(ctx context.Context, id, userID string) (*models.Transaction, error) {
	t, err := s.store.FindTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return authorize(t, userID, "transaction")
}

// Update merges the present fields of patch onto the transaction. The last
// writer wins.
func (s *TransactionService) Update(ctx context.Context, id, userID string, patch models.TransactionPatch) (*models.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	t, err := s.GetOne(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, t)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "transaction_id": id}).Info("Transaction updated")
	s.publish(ctx, events.TransactionUpdated, updated)
	return updated, nil
}

// Delete removes the transaction.
func (s *TransactionService) Delete(ctx context.Context, id, userID string) error {
	t, err := s.GetOne(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, t.ID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "transaction_id": id}).Info("Transaction deleted")
	s.publish(ctx, events.TransactionDeleted, t)
	return nil
}

// reload re-reads t so the response carries the joined category. If the row
// vanished in between, the written value is returned as is.
func (s *TransactionService) reload(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	fresh, err := s.store.FindTransactionByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return t, nil
	}
	return fresh, nil
}

func (s *TransactionService) publish(ctx context.Context, eventType string, t *models.Transaction) {
	if err := s.events.Publish(ctx, events.NewEvent(eventType, t.ID, t.UserID)); err != nil {
		s.log.WithFields(logrus.Fields{
			"event":          eventType,
			"transaction_id": t.ID,
		}).Warnf("Failed to publish transaction event: %v", err)
	}
}
