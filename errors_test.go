package loom

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorCategories(t *testing.T) {
	transient := NewTransientError("rate limited", 429, nil)
	assert.Equal(t, ErrorTransient, transient.Category())
	assert.True(t, transient.Retryable())
	assert.Equal(t, 429, transient.StatusCode())

	permanent := NewPermanentError("invalid key", 401, nil)
	assert.Equal(t, ErrorPermanent, permanent.Category())
	assert.False(t, permanent.Retryable())

	user := NewUserInputError("empty prompt", 400, nil)
	assert.Equal(t, ErrorUserInput, user.Category())
	assert.False(t, user.Retryable())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransientError("request failed", 0, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError("overloaded", 529, nil)))
	assert.False(t, IsTransient(NewPermanentError("not found", 404, nil)))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))

	wrapped := fmt.Errorf("while calling model: %w", NewTransientError("timeout", 0, nil))
	assert.True(t, IsTransient(wrapped))
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(NewPermanentError("bad model", 404, nil)))
	assert.False(t, IsPermanent(NewTransientError("overloaded", 529, nil)))
	assert.False(t, IsPermanent(errors.New("plain")))
}

func TestStatusCodeOf(t *testing.T) {
	assert.Equal(t, 429, StatusCodeOf(NewTransientError("rate limited", 429, nil)))
	assert.Zero(t, StatusCodeOf(errors.New("plain")))
}

func TestRetryAfterOf(t *testing.T) {
	err := NewTransientError("rate limited", 429, nil)
	err.RetryDelay = 3 * time.Second
	assert.Equal(t, 3*time.Second, RetryAfterOf(err))
	assert.Zero(t, RetryAfterOf(errors.New("plain")))
}
