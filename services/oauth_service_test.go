package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	serrors "go.pilab.hu/shadow-oauth/errors"
	applog "go.pilab.hu/shadow-oauth/log"
)

type stubHandler struct {
	grantType string
	calls     int
}

func (h *stubHandler) Supports(grantType string) bool { return grantType == h.grantType }

func (h *stubHandler) Handle(context.Context, *TokenRequest) (*TokenResponse, error) {
	h.calls++
	return &TokenResponse{AccessToken: h.grantType}, nil
}

func TestOAuthServiceDispatch(t *testing.T) {
	first := &stubHandler{grantType: "x"}
	shadowed := &stubHandler{grantType: "x"}
	other := &stubHandler{grantType: "y"}
	s := NewOAuthService([]GrantHandler{first, shadowed, other}, nil, nil, nil, nil, nil, nil, nil, applog.Nop())

	resp, err := s.IssueToken(context.Background(), &TokenRequest{GrantType: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", resp.AccessToken)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, shadowed.calls, "first supporting handler wins")

	_, err = s.IssueToken(context.Background(), &TokenRequest{GrantType: "y"})
	require.NoError(t, err)
	assert.Equal(t, 1, other.calls)
}

func TestOAuthServiceUnsupportedGrantType(t *testing.T) {
	s := NewOAuthService(nil, nil, nil, nil, nil, nil, nil, nil, applog.Nop())

	_, err := s.IssueToken(context.Background(), &TokenRequest{GrantType: "password"})
	oerr, ok := serrors.AsOAuth2Error(err)
	require.True(t, ok)
	assert.Equal(t, serrors.UnsupportedGrantType, oerr.Code)
	assert.Equal(t, 400, oerr.Status)
}

func TestNarrowScopes(t *testing.T) {
	original := []string{"a", "b", "c"}

	got, err := narrowScopes(original, nil)
	require.NoError(t, err)
	assert.Equal(t, original, got)

	got, err = narrowScopes(original, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	_, err = narrowScopes(original, []string{"a", "d"})
	oerr, ok := serrors.AsOAuth2Error(err)
	require.True(t, ok)
	assert.Equal(t, serrors.InvalidScope, oerr.Code)
	assert.Equal(t, "Requested scopes cannot exceed original grant: d", oerr.Description)
}
