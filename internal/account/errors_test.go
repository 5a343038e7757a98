package account

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("profile", nil))
	assert.ErrorIs(t, Wrap("profile", fmt.Errorf("lookup: %w", ErrNotFound)), ErrNotFound)

	boom := errors.New("disk full")
	err := Wrap("update", boom)
	se, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, "update", se.Op)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "update: disk full", err.Error())

	orig := &ServiceError{Op: "signout", Message: "network down"}
	assert.Same(t, orig, Wrap("other", orig))
}

func TestServiceErrorMessagePreferred(t *testing.T) {
	err := &ServiceError{Op: "signout", Message: "Invalid session", Err: errors.New("401")}
	assert.Equal(t, "Invalid session", err.Error())
	assert.False(t, IsNotFound(err))
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "display name", Reason: "cannot be empty"}
	assert.Equal(t, "display name cannot be empty", err.Error())
}
