package service

import (
	"context"

	"github.com/Dan9191/finance-service/internal/models"
)

// Single-record finders return (nil, nil) when the record does not exist, so
// the ownership check can tell NotFound from Forbidden.

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	ListCategoriesByUser(ctx context.Context, userID string) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id string) (*models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// TransactionStore persists transactions and runs the filtered query.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	FindTransactions(ctx context.Context, userID string, filters models.TransactionFilters) ([]models.Transaction, error)
	FindTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// Store is the whole entity store.
type Store interface {
	UserStore
	CategoryStore
	TransactionStore
	Ping(ctx context.Context) error
}
