package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *OAuth2Error
		code   string
		status int
	}{
		{"invalid_client", NewInvalidClient("x"), InvalidClient, http.StatusUnauthorized},
		{"invalid_grant", NewInvalidGrant("x"), InvalidGrant, http.StatusBadRequest},
		{"invalid_request", NewInvalidRequest("x"), InvalidRequest, http.StatusBadRequest},
		{"invalid_scope", NewInvalidScope("x"), InvalidScope, http.StatusBadRequest},
		{"invalid_token", NewInvalidToken("x"), InvalidToken, http.StatusUnauthorized},
		{"unauthorized_client", NewUnauthorizedClient("x"), UnauthorizedClient, http.StatusBadRequest},
		{"unsupported_grant_type", NewUnsupportedGrantType("password"), UnsupportedGrantType, http.StatusBadRequest},
		{"insufficient_scope", NewInsufficientScope("x"), InsufficientScope, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, StatusCode(tt.err))
		})
	}
}

func TestIs_MatchesByCodeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handling grant: %w", NewInvalidGrant("Redirect URI mismatch"))

	assert.True(t, errors.Is(wrapped, ErrInvalidGrant))
	assert.False(t, errors.Is(wrapped, ErrInvalidRequest))

	oerr, ok := AsOAuth2Error(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Redirect URI mismatch", oerr.Description)
}

func TestStatusCode_UnknownErrorIsServerError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestNewInvalidScopeList(t *testing.T) {
	err := NewInvalidScopeList("Scopes not allowed for this client", []string{"profile", "email"})
	assert.Equal(t, "Scopes not allowed for this client: profile, email", err.Description)
}
