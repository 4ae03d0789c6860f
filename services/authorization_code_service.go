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

// DefaultAuthCodeTTL is the authorization code lifetime used when none is configured.
const DefaultAuthCodeTTL = 10 * time.Minute

// AuthorizationCodeService creates and consumes authorization codes.
type AuthorizationCodeService struct {
	repo      domain.AuthorizationCodeRepository
	generator TokenGenerator
	pkce      *PKCEValidator
	ttl       time.Duration
	logger    applog.Logger
	now       func() time.Time
}

// NewAuthorizationCodeService creates a new AuthorizationCodeService.
func NewAuthorizationCodeService(
	repo domain.AuthorizationCodeRepository,
	generator TokenGenerator,
	pkce *PKCEValidator,
	ttl time.Duration,
	logger applog.Logger,
) *AuthorizationCodeService {
	if ttl <= 0 {
		ttl = DefaultAuthCodeTTL
	}
	return &AuthorizationCodeService{
		repo:      repo,
		generator: generator,
		pkce:      pkce,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// Create issues a code for client and user. A challenge given without a
// method is stored as plain.
func (s *AuthorizationCodeService) Create(
	ctx context.Context,
	client *domain.Client,
	userID, redirectURI string,
	scopes []string,
	codeChallenge, codeChallengeMethod string,
) (*domain.AuthorizationCode, error) {
	now := s.now()
	code := &domain.AuthorizationCode{
		ID:          uuid.NewString(),
		Code:        s.generator.GenerateAuthorizationCode(),
		ClientID:    client.ClientID,
		UserID:      userID,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}
	if codeChallenge != "" {
		if codeChallengeMethod == "" {
			codeChallengeMethod = domain.CodeChallengePlain
		}
		code.CodeChallenge = codeChallenge
		code.CodeChallengeMethod = codeChallengeMethod
	}

	if err := s.repo.Save(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to save authorization code: %w", err)
	}

	return code, nil
}

// ValidateAndConsume checks code for client, redirectURI and the PKCE
// verifier, then marks it used. Of two concurrent callers presenting the same
// code at most one succeeds.
func (s *AuthorizationCodeService) ValidateAndConsume(
	ctx context.Context,
	code string,
	client *domain.Client,
	redirectURI, codeVerifier string,
) (*domain.AuthorizationCode, error) {
	ac, err := s.repo.GetByCode(ctx, code, true)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, serrors.NewInvalidGrant("Invalid authorization code")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	now := s.now()
	if !ac.Valid(now) {
		if ac.Used {
			s.replayed(ctx, ac)
		}
		return nil, serrors.NewInvalidGrant("Authorization code is expired or has been used")
	}

	if ac.ClientID != client.ClientID {
		return nil, serrors.NewInvalidGrant("Authorization code does not belong to this client")
	}

	if ac.RedirectURI != redirectURI {
		return nil, serrors.NewInvalidGrant("Redirect URI mismatch")
	}

	if ac.HasChallenge() {
		if codeVerifier == "" {
			return nil, serrors.NewPKCEVerifierRequired()
		}
		ok, err := s.pkce.Validate(codeVerifier, ac.CodeChallenge, ac.ChallengeMethod())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, serrors.NewInvalidGrant("PKCE validation failed")
		}
	}

	marked, err := s.repo.MarkUsed(ctx, code, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark authorization code used: %w", err)
	}
	if !marked {
		s.replayed(ctx, ac)
		return nil, serrors.NewInvalidGrant("Authorization code is expired or has been used")
	}
	ac.MarkUsed(now)

	return ac, nil
}

func (s *AuthorizationCodeService) replayed(ctx context.Context, ac *domain.AuthorizationCode) {
	metrics.CredentialReplaysTotal.WithLabelValues("authorization_code").Inc()
	s.logger.Warn(ctx, "Used authorization code presented again", applog.Fields{
		"client_id": ac.ClientID,
		"user_id":   ac.UserID,
		"code":      applog.Redact(ac.Code),
	})
}
