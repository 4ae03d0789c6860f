package services

import (
	"context"
	"fmt"
	"time"

	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/internal/metrics"
	applog "go.pilab.hu/shadow-oauth/log"
)

// CleanupResult counts the deleted records per kind.
type CleanupResult struct {
	AccessTokens       int64 `json:"access_tokens"`
	RefreshTokens      int64 `json:"refresh_tokens"`
	AuthorizationCodes int64 `json:"authorization_codes"`
}

// Total is the sum of all deleted records.
func (r CleanupResult) Total() int64 {
	return r.AccessTokens + r.RefreshTokens + r.AuthorizationCodes
}

// CleanupService removes expired credentials from storage.
type CleanupService struct {
	access  domain.AccessTokenRepository
	refresh domain.RefreshTokenRepository
	codes   domain.AuthorizationCodeRepository
	logger  applog.Logger
	now     func() time.Time
}

// NewCleanupService creates a new CleanupService.
func NewCleanupService(
	access domain.AccessTokenRepository,
	refresh domain.RefreshTokenRepository,
	codes domain.AuthorizationCodeRepository,
	logger applog.Logger,
) *CleanupService {
	return &CleanupService{access: access, refresh: refresh, codes: codes, logger: logger, now: time.Now}
}

// DeleteExpired deletes every credential whose expiry has passed.
func (s *CleanupService) DeleteExpired(ctx context.Context) (CleanupResult, error) {
	var (
		res CleanupResult
		err error
	)
	now := s.now()

	if res.AccessTokens, err = s.access.DeleteExpired(ctx, now); err != nil {
		return res, fmt.Errorf("failed to delete expired access tokens: %w", err)
	}
	if res.RefreshTokens, err = s.refresh.DeleteExpired(ctx, now); err != nil {
		return res, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	if res.AuthorizationCodes, err = s.codes.DeleteExpired(ctx, now); err != nil {
		return res, fmt.Errorf("failed to delete expired authorization codes: %w", err)
	}

	metrics.CleanupDeletedTotal.WithLabelValues(domain.TokenTypeAccessToken).Add(float64(res.AccessTokens))
	metrics.CleanupDeletedTotal.WithLabelValues(domain.TokenTypeRefreshToken).Add(float64(res.RefreshTokens))
	metrics.CleanupDeletedTotal.WithLabelValues("authorization_code").Add(float64(res.AuthorizationCodes))

	s.logger.Info(ctx, "Expired credentials deleted", applog.Fields{
		"access_tokens":       res.AccessTokens,
		"refresh_tokens":      res.RefreshTokens,
		"authorization_codes": res.AuthorizationCodes,
	})
	return res, nil
}

// Run calls DeleteExpired every interval until ctx is cancelled.
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DeleteExpired(ctx); err != nil {
				s.logger.Error(ctx, "Periodic cleanup failed", err)
			}
		}
	}
}
