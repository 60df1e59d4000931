package repository

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/Dan9191/finance-service/internal/apperrors"
	"github.com/Dan9191/finance-service/internal/models"
)

func TestBuildTransactionQuery_OwnerOnly(t *testing.T) {
	query, args := buildTransactionQuery("user-1", models.TransactionFilters{})

	assert.Contains(t, query, "WHERE t.user_id = $1 ORDER BY")
	assert.NotContains(t, query, " AND ")
	assert.Contains(t, query, "LEFT JOIN categories c ON c.id = t.category_id")
	assert.Equal(t, []any{"user-1"}, args)
}

func TestBuildTransactionQuery_AllFilters(t *testing.T) {
	typ := models.TransactionTypeExpense
	cat := "3f2c1a9e-5b7d-4c11-9a0e-2d6f8b4c7e10"
	start, end := models.MustDate("2024-01-01"), models.MustDate("2024-01-31")

	query, args := buildTransactionQuery("user-1", models.TransactionFilters{
		Type:       &typ,
		CategoryID: &cat,
		StartDate:  &start,
		EndDate:    &end,
	})

	assert.Contains(t, query,
		"WHERE t.user_id = $1 AND t.type = $2 AND t.category_id = $3 AND t.date >= $4 AND t.date <= $5")
	assert.Contains(t, query, "ORDER BY t.date DESC, t.created_at DESC, t.id ASC")
	assert.Equal(t, []any{"user-1", "expense", cat, "2024-01-01", "2024-01-31"}, args)
}

func TestBuildTransactionQuery_PlaceholdersFollowPresentFilters(t *testing.T) {
	end := models.MustDate("2024-01-31")

	query, args := buildTransactionQuery("user-1", models.TransactionFilters{EndDate: &end})

	assert.Contains(t, query, "WHERE t.user_id = $1 AND t.date <= $2 ORDER BY")
	assert.Equal(t, []any{"user-1", "2024-01-31"}, args)
}

func TestClassify(t *testing.T) {
	dup := classify(&pq.Error{Code: "23505", Constraint: "users_email_key"}, "create user")
	assert.True(t, errors.Is(dup, apperrors.ErrConflict))

	fk := classify(&pq.Error{Code: "23503", Constraint: "transactions_category_id_fkey"}, "create transaction")
	assert.True(t, errors.Is(fk, apperrors.ErrInvalidInput))

	gone := classify(&pq.Error{Code: "23503", Constraint: "transactions_user_id_fkey"}, "create transaction")
	assert.True(t, errors.Is(gone, apperrors.ErrUnauthenticated))

	down := classify(&pq.Error{Code: "08006"}, "find transactions")
	assert.True(t, errors.Is(down, apperrors.ErrStoreUnavailable))

	netDown := classify(&net.OpError{Op: "dial", Err: errors.New("connection refused")}, "ping database")
	assert.True(t, errors.Is(netDown, apperrors.ErrStoreUnavailable))

	other := classify(fmt.Errorf("syntax"), "find transactions")
	assert.Nil(t, apperrors.Kind(other))
	assert.EqualError(t, other, "failed to find transactions: syntax")
}
