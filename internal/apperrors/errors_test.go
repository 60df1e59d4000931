package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalid_MatchesInvalidInput(t *testing.T) {
	err := Invalid("amount", "must be positive")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "amount must be positive", err.Error())

	var vErr *ValidationError
	assert.True(t, errors.As(fmt.Errorf("create: %w", err), &vErr))
	assert.Equal(t, "amount", vErr.Field)
}

func TestNew_UnwrapsToKind(t *testing.T) {
	err := New(ErrForbidden, "no permission to access this %s", "category")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "no permission to access this category", err.Error())
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrNotFound, Kind(fmt.Errorf("wrapped: %w", New(ErrNotFound, "gone"))))
	assert.Equal(t, ErrInvalidInput, Kind(Invalid("date", "is required")))
	assert.Nil(t, Kind(errors.New("boom")))
}
