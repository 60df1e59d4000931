package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/Dan9191/finance-service/internal/apperrors"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// User represents a user in the system
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRef is the user shape returned alongside an access token.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeEmail trims and lower-cases an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Invalid("name", "is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if len(in.Password) < MinPasswordLength {
		return apperrors.Invalid("password", "must be at least 6 characters")
	}
	return nil
}

// LoginInput is the credential pair submitted to /auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return apperrors.Invalid("password", "is required")
	}
	return nil
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	AccessToken string  `json:"access_token"`
	User        UserRef `json:"user"`
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.Invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.Invalid("email", "is not a valid address")
	}
	return nil
}
