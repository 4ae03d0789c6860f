package services

import (
	"context"
	"slices"

	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/internal/metrics"
	applog "go.pilab.hu/shadow-oauth/log"
)

// RefreshTokenGrantHandler rotates a refresh token into a new token pair.
type RefreshTokenGrantHandler struct {
	grantBase
	access  *AccessTokenService
	refresh *RefreshTokenService
	logger  applog.Logger
}

// NewRefreshTokenGrantHandler creates the refresh_token grant handler.
func NewRefreshTokenGrantHandler(
	authenticator *ClientAuthenticator,
	tx domain.Transactor,
	access *AccessTokenService,
	refresh *RefreshTokenService,
	logger applog.Logger,
) *RefreshTokenGrantHandler {
	return &RefreshTokenGrantHandler{
		grantBase: grantBase{authenticator: authenticator, tx: tx, grantType: domain.GrantTypeRefreshToken},
		access:    access,
		refresh:   refresh,
		logger:    logger,
	}
}

// Handle consumes the presented refresh token and always returns a new one.
// A scope parameter may only narrow the original grant.
func (h *RefreshTokenGrantHandler) Handle(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	client, err := h.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.RefreshToken == "" {
		return nil, serrors.NewInvalidRequest("Refresh token is required")
	}

	var (
		at *domain.AccessToken
		rt *domain.RefreshToken
	)
	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		old, err := h.refresh.ValidateAndConsume(ctx, req.RefreshToken, client)
		if err != nil {
			return err
		}

		scopes, err := narrowScopes(old.Scopes, ParseScopes(req.Scope))
		if err != nil {
			return err
		}

		at, err = h.access.Create(ctx, client, scopes, old.UserID)
		if err != nil {
			return err
		}
		rt, err = h.refresh.Create(ctx, client, old.UserID, scopes)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(h.grantType), domain.TokenTypeAccessToken).Inc()
	metrics.TokensIssuedTotal.WithLabelValues(string(h.grantType), domain.TokenTypeRefreshToken).Inc()
	h.logger.Debug(ctx, "Refresh token rotated", applog.Fields{
		"client_id": client.ClientID,
		"user_id":   rt.UserID,
	})

	return newTokenResponse(at, rt), nil
}

// narrowScopes returns original when requested is empty, otherwise requested
// provided it is a subset of original.
func narrowScopes(original, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return original, nil
	}

	var excess []string
	for _, s := range requested {
		if !slices.Contains(original, s) {
			excess = append(excess, s)
		}
	}
	if len(excess) > 0 {
		return nil, serrors.NewInvalidScopeList("Requested scopes cannot exceed original grant", excess)
	}
	return requested, nil
}
