package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Dan9191/finance-service/internal/apperrors"
	"github.com/Dan9191/finance-service/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return classify(err, "ping database")
	}
	return nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return classify(err, "create user")
	}
	return nil
}

// FindUserByEmail retrieves a user by email. It returns nil when no user has that email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email", email)
}

// FindUserByID retrieves a user by id. It returns nil when no user has that id.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.findUser(ctx, "id", id)
}

func (r *Repository) findUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE ` + column + ` = $1`
	err := r.db.QueryRowContext(ctx, query, value).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "find user")
	}
	return user, nil
}

// ListUsers returns every user ordered by creation time.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(err, "list users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "list users")
	}
	return users, nil
}

// DeleteUser removes a user; categories and transactions go with it (ON DELETE CASCADE).
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return classify(err, "delete user")
	}
	return nil
}

// CreateCategory inserts c and fills its id and timestamps.
func (r *Repository) CreateCategory(ctx context.Context, c *models.Category) error {
	c.ID = uuid.NewString()
	query := `
		INSERT INTO categories (id, name, description, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Name, nullString(c.Description), c.UserID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return classify(err, "create category")
	}
	return nil
}

// ListCategoriesByUser returns the user's categories ordered by name.
func (r *Repository) ListCategoriesByUser(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, user_id, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC`, userID)
	if err != nil {
		return nil, classify(err, "list categories")
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "list categories")
	}
	return categories, nil
}

// FindCategoryByID fetches a category regardless of owner. It returns nil when absent.
func (r *Repository) FindCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	if !isUUID(id) {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, user_id, created_at, updated_at
		FROM categories
		WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory persists the mutable fields of c.
func (r *Repository) UpdateCategory(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE categories
		SET name = $2, description = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`, c.ID, c.Name, nullString(c.Description)).
		Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.New(apperrors.ErrNotFound, "category not found")
	}
	if err != nil {
		return classify(err, "update category")
	}
	return nil
}

// DeleteCategory removes a category. Referencing transactions keep existing
// with category_id cleared (ON DELETE SET NULL).
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return classify(err, "delete category")
	}
	return nil
}

// CreateTransaction inserts t and fills its id and timestamps.
func (r *Repository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	t.ID = uuid.NewString()
	query := `
		INSERT INTO transactions (id, description, amount, type, date, notes, user_id, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.Description, t.Amount, string(t.Type), t.Date, nullString(t.Notes), t.UserID, nullString(t.CategoryID),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return classify(err, "create transaction")
	}
	return nil
}

// FindTransactions runs the owner-scoped filtered query with the category joined.
func (r *Repository) FindTransactions(ctx context.Context, userID string, filters models.TransactionFilters) ([]models.Transaction, error) {
	query, args := buildTransactionQuery(userID, filters)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "find transactions")
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "find transactions")
	}
	return transactions, nil
}

// FindTransactionByID fetches a transaction with its category regardless of
// owner. It returns nil when absent.
func (r *Repository) FindTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	if !isUUID(id) {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx, transactionSelect+" WHERE t.id = $1", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTransaction persists the mutable fields of t. user_id is never written.
func (r *Repository) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE transactions
		SET description = $2, amount = $3, type = $4, date = $5, notes = $6, category_id = $7,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`,
		t.ID, t.Description, t.Amount, string(t.Type), t.Date, nullString(t.Notes), nullString(t.CategoryID),
	).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.New(apperrors.ErrNotFound, "transaction not found")
	}
	if err != nil {
		return classify(err, "update transaction")
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return classify(err, "delete transaction")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (*models.Category, error) {
	var (
		c    models.Category
		desc sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &desc, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify(err, "scan category")
	}
	c.Description = stringPtr(desc)
	return &c, nil
}

func scanTransaction(s scanner) (*models.Transaction, error) {
	var (
		t                    models.Transaction
		txType               string
		notes, categoryID    sql.NullString
		joinedID, joinedName sql.NullString
		joinedDescription    sql.NullString
	)
	err := s.Scan(
		&t.ID, &t.Description, &t.Amount, &txType, &t.Date, &notes, &categoryID, &t.UserID, &t.CreatedAt, &t.UpdatedAt,
		&joinedID, &joinedName, &joinedDescription,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify(err, "scan transaction")
	}
	t.Type = models.TransactionType(txType)
	t.Notes = stringPtr(notes)
	t.CategoryID = stringPtr(categoryID)
	if joinedID.Valid {
		t.Category = &models.CategoryRef{
			ID:          joinedID.String,
			Name:        joinedName.String,
			Description: stringPtr(joinedDescription),
		}
	}
	return &t, nil
}

// classify maps driver errors onto the application error kinds.
func classify(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return apperrors.New(apperrors.ErrConflict, "email already in use")
		case pqErr.Code == "23503" && strings.Contains(pqErr.Constraint, "category"):
			return apperrors.Invalid("categoryId", "does not reference an existing category")
		case pqErr.Code == "23503" && strings.Contains(pqErr.Constraint, "user"):
			return apperrors.New(apperrors.ErrUnauthenticated, "user no longer exists")
		case pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57":
			return fmt.Errorf("failed to %s: %w: %v", op, apperrors.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("failed to %s: %w: %v", op, apperrors.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
