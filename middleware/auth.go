package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	applog "go.pilab.hu/shadow-oauth/log"
	"go.pilab.hu/shadow-oauth/tracing"
)

// TokenValidator resolves a bearer access token. Implemented by
// services.AccessTokenService.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*domain.AccessToken, error)
}

// TokenHandlerFunc is an echo handler that receives the validated access
// token explicitly.
type TokenHandlerFunc func(c echo.Context, token *domain.AccessToken) error

// BearerAuth validates the Authorization: Bearer header and calls next with
// the resolved token. When requireUser is set, client-only tokens are
// rejected.
func BearerAuth(validator TokenValidator, requireUser bool, next TokenHandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracing.Start(c.Request().Context(), "BearerAuth")
		defer span.End()

		raw, ok := extractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return unauthorized(c, serrors.NewInvalidToken("Missing or malformed bearer token"))
		}

		token, err := validator.Validate(ctx, raw)
		if err != nil {
			span.RecordError(err)
			if _, isOAuth := serrors.AsOAuth2Error(err); !isOAuth {
				log.Error().Ctx(ctx).Err(err).Msg("Failed to validate bearer token")
				return c.JSON(http.StatusInternalServerError, serrors.NewServerError("Failed to validate token"))
			}
			log.Debug().Ctx(ctx).Str("token", applog.Redact(raw)).Msg("Rejected bearer token")
			return unauthorized(c, serrors.NewInvalidToken("Access token is invalid, expired or revoked"))
		}

		if requireUser && !token.HasUser() {
			return unauthorized(c, serrors.NewInvalidToken("Access token is not bound to a user"))
		}

		c.SetRequest(c.Request().WithContext(ctx))

		return next(c, token)
	}
}

// RequireScopes wraps next so it only runs when the token carries every one
// of scopes.
func RequireScopes(next TokenHandlerFunc, scopes ...string) TokenHandlerFunc {
	return func(c echo.Context, token *domain.AccessToken) error {
		granted := make(map[string]struct{}, len(token.Scopes))
		for _, s := range token.Scopes {
			granted[s] = struct{}{}
		}

		for _, required := range scopes {
			if _, ok := granted[required]; !ok {
				oerr := serrors.NewInsufficientScope("The access token does not carry the required scopes")
				return c.JSON(oerr.Status, echo.Map{
					"error":             oerr.Code,
					"error_description": oerr.Description,
					"required_scopes":   scopes,
					"provided_scopes":   token.Scopes,
				})
			}
		}

		return next(c, token)
	}
}

func extractBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c echo.Context, oerr *serrors.OAuth2Error) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer error="`+oerr.Code+`"`)
	return c.JSON(oerr.Status, oerr)
}
