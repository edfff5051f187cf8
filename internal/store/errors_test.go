package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	wrapped := fmt.Errorf("get plant: %w", ErrPlantNotFound)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, ErrPlantNotFound))
	assert.False(t, errors.Is(wrapped, ErrAlreadyExists))
	assert.False(t, errors.Is(errors.New("plain"), ErrNotFound))
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrInvalidInput.WithCause(cause)

	assert.Equal(t, http.StatusBadRequest, err.HTTPCode())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invalid input: disk full", err.Error())
}
