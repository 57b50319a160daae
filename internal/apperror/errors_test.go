package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", Wrap(ErrInvalidToken, errors.New("signature is invalid")))

	assert.ErrorIs(t, wrapped, ErrInvalidToken)
	assert.NotErrorIs(t, wrapped, ErrExpiredToken)
}

func TestFrom_UnknownErrorIsInternal(t *testing.T) {
	raw := errors.New(`pq: relation "users" does not exist`)

	appErr := From(raw)

	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "Internal server error", appErr.Message)
	assert.ErrorIs(t, appErr, raw)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrDuplicateEmail, http.StatusConflict},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrEmailNotVerified, http.StatusForbidden},
		{ErrSocialOnlyAccount, http.StatusBadRequest},
		{ErrAccountConflict, http.StatusConflict},
		{ErrAlreadyVerified, http.StatusConflict},
		{ErrInvalidOrExpiredToken, http.StatusBadRequest},
		{ErrInvalidProviderToken, http.StatusUnauthorized},
		{ErrAuthenticationRequired, http.StatusUnauthorized},
		{ErrExpiredToken, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{NotFound("food item not found"), http.StatusNotFound},
		{Validation("price must be positive"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), "%v", tt.err)
	}
}

func TestInvalidAndExpiredShareMessage(t *testing.T) {
	assert.Equal(t, ErrInvalidToken.Message, ErrExpiredToken.Message)
	assert.NotEqual(t, ErrInvalidToken.Kind, ErrExpiredToken.Kind)
}
