package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
)

const basicAuthPrefix = "Basic "

// ClientAuthenticator resolves and authenticates the client of a token request
// from an HTTP Basic authorization header or body credentials.
type ClientAuthenticator struct {
	clients domain.ClientRepository
	hasher  PasswordHasher
}

// NewClientAuthenticator creates a new ClientAuthenticator.
func NewClientAuthenticator(clients domain.ClientRepository, hasher PasswordHasher) *ClientAuthenticator {
	return &ClientAuthenticator{clients: clients, hasher: hasher}
}

// Authenticate returns the active client identified by the credentials.
// Credentials from a well-formed Basic header override clientID and
// clientSecret. Public clients skip secret verification.
func (a *ClientAuthenticator) Authenticate(ctx context.Context, authorizationHeader, clientID, clientSecret string) (*domain.Client, error) {
	if id, secret, ok := parseBasicAuth(authorizationHeader); ok {
		clientID, clientSecret = id, secret
	}

	if clientID == "" || clientSecret == "" {
		return nil, serrors.NewInvalidClient("Client authentication failed: missing credentials")
	}

	client, err := a.clients.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, serrors.NewInvalidClient("Client authentication failed: invalid client")
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	if !client.Active {
		return nil, serrors.NewInvalidClient("Client authentication failed: client is inactive")
	}

	if client.Confidential {
		if err := a.hasher.Verify(client.SecretHash, clientSecret); err != nil {
			return nil, serrors.NewInvalidClient("Client authentication failed: invalid credentials")
		}
	}

	return client, nil
}

// parseBasicAuth decodes "Basic base64(id:secret)", splitting on the first colon.
func parseBasicAuth(header string) (string, string, bool) {
	if !strings.HasPrefix(header, basicAuthPrefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(basicAuthPrefix):])
	if err != nil {
		return "", "", false
	}

	return strings.Cut(strings.TrimSpace(string(decoded)), ":")
}
