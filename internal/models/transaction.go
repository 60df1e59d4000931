package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dan9191/finance-service/internal/apperrors"
)

// TransactionType tells income from expense; the amount itself is always positive.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

func (t TransactionType) Validate() error {
	if !t.Valid() {
		return apperrors.Invalid("type", "must be income or expense")
	}
	return nil
}

// Transaction represents a financial transaction
type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      Amount          `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        Date            `json:"date"`
	Notes       *string         `json:"notes,omitempty"`
	CategoryID  *string         `json:"categoryId,omitempty"`
	Category    *CategoryRef    `json:"category,omitempty"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OwnerID returns the owning user's id.
func (t *Transaction) OwnerID() string {
	return t.UserID
}

// TransactionInput is the create payload.
type TransactionInput struct {
	Description string          `json:"description"`
	Amount      Amount          `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        Date            `json:"date"`
	Notes       *string         `json:"notes,omitempty"`
	CategoryID  *string         `json:"categoryId,omitempty"`
}

func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return apperrors.Invalid("description", "is required")
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if err := in.Type.Validate(); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return apperrors.Invalid("date", "is required")
	}
	if in.CategoryID != nil {
		if err := ValidateID("categoryId", *in.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

// TransactionPatch lists the fields an owner may change. The owner, the id
// and the timestamps are deliberately absent.
type TransactionPatch struct {
	Description *string          `json:"description"`
	Amount      *Amount          `json:"amount"`
	Type        *TransactionType `json:"type"`
	Date        *Date            `json:"date"`
	Notes       Nullable[string] `json:"notes"`
	CategoryID  Nullable[string] `json:"categoryId"`
}

func (p TransactionPatch) Validate() error {
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return apperrors.Invalid("description", "must not be empty")
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if err := p.Type.Validate(); err != nil {
			return err
		}
	}
	if p.Date != nil && p.Date.IsZero() {
		return apperrors.Invalid("date", "must not be empty")
	}
	if p.CategoryID.Valid {
		if err := ValidateID("categoryId", p.CategoryID.Value); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the present fields onto t. A changed category reference drops
// the joined category; the store re-joins it on the next read.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Notes.Set {
		t.Notes = p.Notes.Ptr()
	}
	if p.CategoryID.Set {
		t.CategoryID = p.CategoryID.Ptr()
		t.Category = nil
	}
}

// ValidateID checks that id is a UUID.
func ValidateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Invalid(field, "must be a UUID")
	}
	return nil
}
