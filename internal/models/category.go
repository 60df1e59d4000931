package models

import (
	"strings"
	"time"

	"github.com/Dan9191/finance-service/internal/apperrors"
)

// Category groups transactions. Every category belongs to exactly one user.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerID returns the owning user's id.
func (c *Category) OwnerID() string {
	return c.UserID
}

// CategoryRef is the category shape embedded in a transaction.
type CategoryRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// CategoryInput is the create payload. The owner is never taken from it.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Invalid("name", "is required")
	}
	return nil
}

// CategoryPatch lists the fields an owner may change. Absent fields are left
// untouched.
type CategoryPatch struct {
	Name        *string          `json:"name"`
	Description Nullable[string] `json:"description"`
}

func (p CategoryPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperrors.Invalid("name", "must not be empty")
	}
	return nil
}

// Apply merges the present fields onto c.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description.Set {
		c.Description = p.Description.Ptr()
	}
}
