package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"ValidationFailed wraps ErrValidation", ValidationFailed("email", "Invalid email format"), ErrValidation, true},
		{"InvalidCredentials wraps ErrUnauthenticated", InvalidCredentials(), ErrUnauthenticated, true},
		{"NotFound wraps ErrNotFound", NotFound("issue", "abc"), ErrNotFound, true},
		{"NoResults wraps ErrNotFound", NoResults("nothing here"), ErrNotFound, true},
		{"Conflict wraps ErrConflict", Conflict("dup"), ErrConflict, true},
		{"Forbidden wraps ErrForbidden", Forbidden("no"), ErrForbidden, true},
		{"RateLimited wraps ErrRateLimited", RateLimited("slow down"), ErrRateLimited, true},
		{"Upstream wraps ErrUpstream", Upstream("db down", errors.New("boom")), ErrUpstream, true},
		{"NotFound does not match ErrValidation", NotFound("issue", "abc"), ErrValidation, false},
		{"wrapped with fmt.Errorf still matches", fmt.Errorf("service: %w", Conflict("dup")), ErrConflict, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, errors.Is(tt.err, tt.target))
		})
	}
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("Failed to create issue", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to create issue: connection refused", err.Error())
	assert.Equal(t, "Failed to create issue", err.Message)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "issue not found with id abc", NotFound("issue", "abc").Error())
	assert.Equal(t, "Invalid credentials", InvalidCredentials().Error())

	v := ValidationFailed("phone", "Phone number must be 10 digits")
	assert.Equal(t, "phone", v.Field)
	assert.Equal(t, "Phone number must be 10 digits", v.Error())
}

func TestErrorsAs(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("outer: %w", ValidationFailed("title", "title is required"))

	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, "title", appErr.Field)
	}
}
