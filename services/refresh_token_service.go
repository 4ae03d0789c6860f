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

// DefaultRefreshTokenTTL is 30 days.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// RefreshTokenService creates, consumes and revokes refresh tokens.
type RefreshTokenService struct {
	repo      domain.RefreshTokenRepository
	generator TokenGenerator
	ttl       time.Duration
	logger    applog.Logger
	now       func() time.Time
}

// NewRefreshTokenService creates a new RefreshTokenService.
func NewRefreshTokenService(
	repo domain.RefreshTokenRepository,
	generator TokenGenerator,
	ttl time.Duration,
	logger applog.Logger,
) *RefreshTokenService {
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	return &RefreshTokenService{
		repo:      repo,
		generator: generator,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Create issues a refresh token bound to client and user.
func (s *RefreshTokenService) Create(ctx context.Context, client *domain.Client, userID string, scopes []string) (*domain.RefreshToken, error) {
	now := s.now()
	token := &domain.RefreshToken{
		ID:        uuid.NewString(),
		Token:     s.generator.GenerateRefreshToken(),
		ClientID:  client.ClientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.repo.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return token, nil
}

// ValidateAndConsume checks token for client and revokes it in the same step.
// The returned record is the state before revocation. Of two concurrent
// callers presenting the same token at most one succeeds.
func (s *RefreshTokenService) ValidateAndConsume(ctx context.Context, token string, client *domain.Client) (*domain.RefreshToken, error) {
	rt, err := s.repo.GetByToken(ctx, token, true)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, serrors.NewInvalidGrant("Invalid refresh token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	now := s.now()
	if !rt.Valid(now) {
		if rt.Revoked {
			s.replayed(ctx, rt)
		}
		return nil, serrors.NewInvalidGrant("Refresh token is expired or revoked")
	}

	if rt.ClientID != client.ClientID {
		return nil, serrors.NewInvalidGrant("Refresh token does not belong to this client")
	}

	consumed, err := s.repo.MarkRevoked(ctx, token, now)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !consumed {
		s.replayed(ctx, rt)
		return nil, serrors.NewInvalidGrant("Refresh token is expired or revoked")
	}

	metrics.TokensRevokedTotal.WithLabelValues(domain.TokenTypeRefreshToken).Inc()

	return rt, nil
}

func (s *RefreshTokenService) replayed(ctx context.Context, rt *domain.RefreshToken) {
	metrics.CredentialReplaysTotal.WithLabelValues(domain.TokenTypeRefreshToken).Inc()
	s.logger.Warn(ctx, "Revoked refresh token presented again", applog.Fields{
		"client_id": rt.ClientID,
		"user_id":   rt.UserID,
		"token":     applog.Redact(rt.Token),
	})
}

// Revoke revokes token. Unknown and already revoked tokens are not an error.
func (s *RefreshTokenService) Revoke(ctx context.Context, token string) error {
	_, err := s.revoke(ctx, token)
	return err
}

func (s *RefreshTokenService) revoke(ctx context.Context, token string) (bool, error) {
	rt, err := s.repo.GetByToken(ctx, token, false)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rt.Revoked {
		return true, nil
	}

	changed, err := s.repo.MarkRevoked(ctx, token, s.now())
	if err != nil {
		return true, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if changed {
		metrics.TokensRevokedTotal.WithLabelValues(domain.TokenTypeRefreshToken).Inc()
	}
	return true, nil
}

// RevokeAllForUser revokes every active refresh token of the user.
func (s *RefreshTokenService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens of user: %w", err)
	}
	metrics.TokensRevokedTotal.WithLabelValues(domain.TokenTypeRefreshToken).Add(float64(n))
	return n, nil
}

// RevokeAllForClient revokes every active refresh token of the client.
func (s *RefreshTokenService) RevokeAllForClient(ctx context.Context, clientID string) (int64, error) {
	n, err := s.repo.RevokeAllForClient(ctx, clientID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens of client: %w", err)
	}
	metrics.TokensRevokedTotal.WithLabelValues(domain.TokenTypeRefreshToken).Add(float64(n))
	return n, nil
}
