package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
)

func basic(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func TestClientAuthenticator(t *testing.T) {
	ctx := context.Background()
	confidential := &domain.Client{ClientID: "conf", SecretHash: "hash", Confidential: true, Active: true}
	public := &domain.Client{ClientID: "pub", Active: true}
	inactive := &domain.Client{ClientID: "off", Confidential: true, Active: false}

	newAuthenticator := func() (*ClientAuthenticator, *MockClientRepository, *MockPasswordHasher) {
		repo := new(MockClientRepository)
		hasher := new(MockPasswordHasher)
		repo.On("GetByClientID", ctx, "conf").Return(confidential, nil).Maybe()
		repo.On("GetByClientID", ctx, "pub").Return(public, nil).Maybe()
		repo.On("GetByClientID", ctx, "off").Return(inactive, nil).Maybe()
		repo.On("GetByClientID", ctx, "nobody").Return(nil, domain.ErrNotFound).Maybe()
		hasher.On("Verify", "hash", "right").Return(nil).Maybe()
		hasher.On("Verify", "hash", mock.Anything).Return(errors.New("mismatch")).Maybe()
		return NewClientAuthenticator(repo, hasher), repo, hasher
	}

	t.Run("body credentials", func(t *testing.T) {
		a, _, _ := newAuthenticator()
		client, err := a.Authenticate(ctx, "", "conf", "right")
		require.NoError(t, err)
		assert.Equal(t, "conf", client.ClientID)
	})

	t.Run("basic header overrides body", func(t *testing.T) {
		a, _, _ := newAuthenticator()
		client, err := a.Authenticate(ctx, basic("conf", "right"), "pub", "whatever")
		require.NoError(t, err)
		assert.Equal(t, "conf", client.ClientID)
	})

	t.Run("secret may contain colons", func(t *testing.T) {
		repo := new(MockClientRepository)
		hasher := new(MockPasswordHasher)
		repo.On("GetByClientID", ctx, "conf").Return(confidential, nil)
		hasher.On("Verify", "hash", "a:b").Return(nil).Once()

		_, err := NewClientAuthenticator(repo, hasher).Authenticate(ctx, basic("conf", "a:b"), "", "")
		require.NoError(t, err)
		hasher.AssertExpectations(t)
	})

	t.Run("decoded credentials are trimmed", func(t *testing.T) {
		a, _, _ := newAuthenticator()
		client, err := a.Authenticate(ctx, basic("conf", "right\n"), "", "")
		require.NoError(t, err)
		assert.Equal(t, "conf", client.ClientID)
	})

	t.Run("malformed basic header falls back to body", func(t *testing.T) {
		a, _, _ := newAuthenticator()
		client, err := a.Authenticate(ctx, "Basic !!!notbase64", "conf", "right")
		require.NoError(t, err)
		assert.Equal(t, "conf", client.ClientID)
	})

	t.Run("public client skips secret verification", func(t *testing.T) {
		a, _, hasher := newAuthenticator()
		_, err := a.Authenticate(ctx, "", "pub", "anything")
		require.NoError(t, err)
		hasher.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	failures := []struct {
		name   string
		header string
		id     string
		secret string
		desc   string
	}{
		{"missing secret", "", "conf", "", "Client authentication failed: missing credentials"},
		{"missing id", "", "", "right", "Client authentication failed: missing credentials"},
		{"unknown client", "", "nobody", "x", "Client authentication failed: invalid client"},
		{"inactive client", "", "off", "x", "Client authentication failed: client is inactive"},
		{"wrong secret", basic("conf", "wrong"), "", "", "Client authentication failed: invalid credentials"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := newAuthenticator()
			_, err := a.Authenticate(ctx, tt.header, tt.id, tt.secret)
			oerr, ok := serrors.AsOAuth2Error(err)
			require.True(t, ok)
			assert.Equal(t, serrors.InvalidClient, oerr.Code)
			assert.Equal(t, 401, oerr.Status)
			assert.Equal(t, tt.desc, oerr.Description)
		})
	}
}
