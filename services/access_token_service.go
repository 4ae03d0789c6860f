package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/internal/metrics"
	applog "go.pilab.hu/shadow-oauth/log"
)

// DefaultAccessTokenTTL is the access token lifetime used when none is configured.
const DefaultAccessTokenTTL = time.Hour

// AccessTokenService creates, validates and revokes access tokens.
type AccessTokenService struct {
	repo      domain.AccessTokenRepository
	generator TokenGenerator
	ttl       time.Duration
	logger    applog.Logger
	now       func() time.Time
}

// NewAccessTokenService creates a new AccessTokenService.
func NewAccessTokenService(
	repo domain.AccessTokenRepository,
	generator TokenGenerator,
	ttl time.Duration,
	logger applog.Logger,
) *AccessTokenService {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &AccessTokenService{
		repo:      repo,
		generator: generator,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Create issues an access token for client. userID is empty for tokens
// issued to the client itself.
func (s *AccessTokenService) Create(ctx context.Context, client *domain.Client, scopes []string, userID string) (*domain.AccessToken, error) {
	now := s.now()
	token := &domain.AccessToken{
		ID:        uuid.NewString(),
		Token:     s.generator.GenerateAccessToken(),
		ClientID:  client.ClientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.repo.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save access token: %w", err)
	}

	return token, nil
}

// Validate returns the token if it exists and is still valid. Unknown,
// expired and revoked tokens produce the same invalid_token error.
func (s *AccessTokenService) Validate(ctx context.Context, token string) (*domain.AccessToken, error) {
	at, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find access token: %w", err)
	}
	if at == nil || !at.Valid(s.now()) {
		return nil, serrors.NewInvalidToken("Access token is invalid, expired or revoked")
	}
	return at, nil
}

// Revoke revokes token. Unknown and already revoked tokens are not an error.
func (s *AccessTokenService) Revoke(ctx context.Context, token string) error {
	_, err := s.revoke(ctx, token)
	return err
}

// revoke reports whether a token with that value exists at all.
func (s *AccessTokenService) revoke(ctx context.Context, token string) (bool, error) {
	at, err := s.repo.GetByToken(ctx, token, false)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get access token: %w", err)
	}
	if at.Revoked {
		return true, nil
	}

	changed, err := s.repo.MarkRevoked(ctx, token, s.now())
	if err != nil {
		return true, fmt.Errorf("failed to revoke access token: %w", err)
	}
	if changed {
		metrics.TokensRevokedTotal.WithLabelValues(domain.TokenTypeAccessToken).Inc()
		s.logger.Debug(ctx, "Access token revoked", applog.Fields{
			"client_id": at.ClientID,
			"token":     applog.Redact(token),
		})
	}
	return true, nil
}

// RevokeAllForUser revokes every active access token of the user.
func (s *AccessTokenService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke access tokens of user: %w", err)
	}
	metrics.TokensRevokedTotal.WithLabelValues(domain.TokenTypeAccessToken).Add(float64(n))
	return n, nil
}

// RevokeAllForClient revokes every active access token of the client.
func (s *AccessTokenService) RevokeAllForClient(ctx context.Context, clientID string) (int64, error) {
	n, err := s.repo.RevokeAllForClient(ctx, clientID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke access tokens of client: %w", err)
	}
	metrics.TokensRevokedTotal.WithLabelValues(domain.TokenTypeAccessToken).Add(float64(n))
	return n, nil
}
