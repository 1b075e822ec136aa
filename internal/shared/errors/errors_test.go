package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithCode("VAL001").WithDetail("field", "title").WithComponent("test-component")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "VAL001", err.Code)
	assert.Equal(t, "test-component", err.Component)
	assert.Equal(t, "title", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	cause := ErrNotFound
	err := NewNotFoundError("task").WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("task")))
	assert.True(t, IsNotFound(ErrTaskNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrTaskNotFound)))
	assert.False(t, IsNotFound(NewValidationError("bad")))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsValidation(ErrInvalidInput))
	assert.False(t, IsValidation(ErrTaskNotFound))
}

func TestIsAuthentication_CoversWholeTaxonomy(t *testing.T) {
	// Each distinct rejection reason is authentication; the HTTP boundary
	// collapses them into one 401.
	taxonomy := []error{
		ErrNoToken,
		ErrSessionNotFound,
		ErrSessionExpired,
		ErrUserNotFound,
	}
	for _, sentinel := range taxonomy {
		assert.True(t, IsAuthentication(sentinel), "%v must be authentication", sentinel)
		assert.True(t, IsAuthentication(fmt.Errorf("wrapped: %w", sentinel)))
	}

	assert.True(t, IsAuthentication(NewAuthenticationError("bad")))
	assert.False(t, IsAuthentication(ErrTaskNotFound))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(ErrConflict))
	assert.True(t, IsConflict(NewConflictError("duplicate email")))
	assert.False(t, IsConflict(ErrNotFound))
}

func TestWrapError(t *testing.T) {
	appErr := NewValidationError("bad")
	assert.Equal(t, appErr, WrapError(appErr, "ignored"))

	wrapped := WrapError(ErrInternalServer, "store failed")
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
	assert.Equal(t, ErrInternalServer, wrapped.Unwrap())
}
