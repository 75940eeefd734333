package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndMatchesTemplate(t *testing.T) {
	err := Clone(ErrNotFound, "Device not found")

	assert.Equal(t, "Device not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrTransient))
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestIsDomain(t *testing.T) {
	assert.True(t, IsDomain(fmt.Errorf("ctx: %w", ErrValidation)))
	assert.False(t, IsDomain(fmt.Errorf("plain")))
}

func TestTransientKeepsCause(t *testing.T) {
	cause := errors.New("serialization failure")
	err := Transient(cause, "failed to bind device, retry")

	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.True(t, IsTransient(fmt.Errorf("bind: %w", err)))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsTransient(ErrConflict))
}
