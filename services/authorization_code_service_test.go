package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	applog "go.pilab.hu/shadow-oauth/log"
)

func newTestAuthorizationCodeService(repo domain.AuthorizationCodeRepository) *AuthorizationCodeService {
	s := NewAuthorizationCodeService(repo, &sequenceGenerator{}, NewPKCEValidator(), 0, applog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestAuthorizationCodeServiceCreate(t *testing.T) {
	ctx := context.Background()
	client := &domain.Client{ClientID: "c1"}

	repo := new(MockAuthorizationCodeRepository)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.AuthorizationCode")).Return(nil)
	s := newTestAuthorizationCodeService(repo)

	code, err := s.Create(ctx, client, "u1", "https://a/cb", []string{"openid"}, "challenge", "")
	require.NoError(t, err)
	assert.Equal(t, domain.CodeChallengePlain, code.CodeChallengeMethod)
	assert.Equal(t, fixedNow.Add(10*time.Minute), code.ExpiresAt)

	code, err = s.Create(ctx, client, "u1", "https://a/cb", nil, "", "S256")
	require.NoError(t, err)
	assert.Empty(t, code.CodeChallenge)
	assert.Empty(t, code.CodeChallengeMethod, "method without challenge is ignored")
}

func TestAuthorizationCodeServiceValidateAndConsume(t *testing.T) {
	ctx := context.Background()
	client := &domain.Client{ClientID: "c1"}
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	stored := func() *domain.AuthorizationCode {
		return &domain.AuthorizationCode{
			Code:        "code",
			ClientID:    "c1",
			UserID:      "u1",
			RedirectURI: "https://a/cb",
			Scopes:      []string{"openid"},
			ExpiresAt:   fixedNow.Add(time.Minute),
		}
	}

	run := func(code *domain.AuthorizationCode, client *domain.Client, redirectURI, verifier string, casResult bool) (*domain.AuthorizationCode, *MockAuthorizationCodeRepository, error) {
		repo := new(MockAuthorizationCodeRepository)
		repo.On("GetByCode", ctx, "code", true).Return(code, nil)
		repo.On("MarkUsed", ctx, "code", fixedNow).Return(casResult, nil).Maybe()
		got, err := newTestAuthorizationCodeService(repo).ValidateAndConsume(ctx, "code", client, redirectURI, verifier)
		return got, repo, err
	}

	t.Run("consumes valid code", func(t *testing.T) {
		got, repo, err := run(stored(), client, "https://a/cb", "", true)
		require.NoError(t, err)
		assert.True(t, got.Used)
		assert.Equal(t, fixedNow, *got.UsedAt)
		repo.AssertCalled(t, "MarkUsed", ctx, "code", fixedNow)
	})

	t.Run("unknown code", func(t *testing.T) {
		repo := new(MockAuthorizationCodeRepository)
		repo.On("GetByCode", ctx, "code", true).Return(nil, domain.ErrNotFound)
		_, err := newTestAuthorizationCodeService(repo).ValidateAndConsume(ctx, "code", client, "https://a/cb", "")
		assertInvalidGrant(t, err, "Invalid authorization code")
	})

	t.Run("used code", func(t *testing.T) {
		code := stored()
		code.MarkUsed(fixedNow.Add(-time.Second))
		_, _, err := run(code, client, "https://a/cb", "", true)
		assertInvalidGrant(t, err, "Authorization code is expired or has been used")
	})

	t.Run("expired code", func(t *testing.T) {
		code := stored()
		code.ExpiresAt = fixedNow.Add(-time.Second)
		_, _, err := run(code, client, "https://a/cb", "", true)
		assertInvalidGrant(t, err, "Authorization code is expired or has been used")
	})

	t.Run("other client", func(t *testing.T) {
		_, _, err := run(stored(), &domain.Client{ClientID: "c2"}, "https://a/cb", "", true)
		assertInvalidGrant(t, err, "Authorization code does not belong to this client")
	})

	t.Run("redirect uri mismatch", func(t *testing.T) {
		_, repo, err := run(stored(), client, "https://b/cb", "", true)
		assertInvalidGrant(t, err, "Redirect URI mismatch")
		repo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pkce verifier missing", func(t *testing.T) {
		code := stored()
		code.CodeChallenge = S256Challenge(verifier)
		code.CodeChallengeMethod = "S256"
		_, _, err := run(code, client, "https://a/cb", "", true)
		assert.ErrorIs(t, err, serrors.ErrInvalidRequest)
	})

	t.Run("pkce verifier wrong", func(t *testing.T) {
		code := stored()
		code.CodeChallenge = S256Challenge(verifier)
		code.CodeChallengeMethod = "S256"
		_, _, err := run(code, client, "https://a/cb", "wrong", true)
		assertInvalidGrant(t, err, "PKCE validation failed")
	})

	t.Run("pkce S256 ok", func(t *testing.T) {
		code := stored()
		code.CodeChallenge = S256Challenge(verifier)
		code.CodeChallengeMethod = "S256"
		_, _, err := run(code, client, "https://a/cb", verifier, true)
		require.NoError(t, err)
	})

	t.Run("pkce stored without method defaults to plain", func(t *testing.T) {
		code := stored()
		code.CodeChallenge = "plain-verifier"
		_, _, err := run(code, client, "https://a/cb", "plain-verifier", true)
		require.NoError(t, err)
	})

	t.Run("pkce stored with unknown method", func(t *testing.T) {
		code := stored()
		code.CodeChallenge = "x"
		code.CodeChallengeMethod = "foo"
		_, _, err := run(code, client, "https://a/cb", "x", true)
		assert.ErrorIs(t, err, serrors.ErrInvalidRequest)
	})

	t.Run("lost compare-and-swap", func(t *testing.T) {
		_, _, err := run(stored(), client, "https://a/cb", "", false)
		assertInvalidGrant(t, err, "Authorization code is expired or has been used")
	})
}
