//nolint:varnamelen
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/middleware"
	"go.pilab.hu/shadow-oauth/services"
)

// OAuth2API struct to hold dependencies.
type OAuth2API struct {
	service *services.OAuthService
	tokens  middleware.TokenValidator
	limiter *middleware.RateLimiter
}

// NewOAuth2API initializes the OAuth2 API. limiter may be nil to disable
// rate limiting on the token endpoint.
func NewOAuth2API(
	service *services.OAuthService,
	tokens middleware.TokenValidator,
	limiter *middleware.RateLimiter,
) *OAuth2API {
	return &OAuth2API{
		service: service,
		tokens:  tokens,
		limiter: limiter,
	}
}

// RegisterRoutes registers the OAuth2 routes.
func (oa *OAuth2API) RegisterRoutes(e *echo.Echo) {
	var tokenMiddleware []echo.MiddlewareFunc
	if oa.limiter != nil {
		tokenMiddleware = append(tokenMiddleware, oa.limiter.Middleware())
	}

	e.POST("/oauth2/authorize", middleware.BearerAuth(oa.tokens, true, oa.AuthorizeHandler))
	e.POST("/oauth2/token", oa.TokenHandler, tokenMiddleware...)
	e.POST("/oauth2/revoke", oa.RevokeHandler)
	e.POST("/oauth2/introspect", oa.IntrospectHandler)
}

type authorizeParams struct {
	ResponseType        string `form:"response_type"         json:"response_type"`
	ClientID            string `form:"client_id"             json:"client_id"`
	RedirectURI         string `form:"redirect_uri"          json:"redirect_uri"`
	Scope               string `form:"scope"                 json:"scope"`
	State               string `form:"state"                 json:"state"`
	CodeChallenge       string `form:"code_challenge"        json:"code_challenge"`
	CodeChallengeMethod string `form:"code_challenge_method" json:"code_challenge_method"`
}

// AuthorizeHandler issues an authorization code to the authenticated user.
// The endpoint is API-only: the code is returned as JSON rather than by
// redirect.
func (oa *OAuth2API) AuthorizeHandler(c echo.Context, token *domain.AccessToken) error {
	var params authorizeParams
	if err := c.Bind(&params); err != nil {
		return writeError(c, serrors.NewInvalidRequest("Malformed authorization request"))
	}

	switch {
	case params.ResponseType == "":
		return writeError(c, serrors.NewInvalidRequest("response_type is required"))
	case params.ClientID == "":
		return writeError(c, serrors.NewInvalidRequest("client_id is required"))
	case params.RedirectURI == "":
		return writeError(c, serrors.NewInvalidRequest("redirect_uri is required"))
	}

	resp, err := oa.service.Authorize(c.Request().Context(), &services.AuthorizeRequest{
		ResponseType:        params.ResponseType,
		ClientID:            params.ClientID,
		RedirectURI:         params.RedirectURI,
		Scope:               params.Scope,
		State:               params.State,
		CodeChallenge:       params.CodeChallenge,
		CodeChallengeMethod: params.CodeChallengeMethod,
	}, token.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

type tokenParams struct {
	GrantType    string `form:"grant_type"    json:"grant_type"`
	ClientID     string `form:"client_id"     json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
	Code         string `form:"code"          json:"code"`
	RedirectURI  string `form:"redirect_uri"  json:"redirect_uri"`
	CodeVerifier string `form:"code_verifier" json:"code_verifier"`
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
	Scope        string `form:"scope"         json:"scope"`
}

// TokenHandler handles OAuth2 token requests for every supported grant.
func (oa *OAuth2API) TokenHandler(c echo.Context) error {
	var params tokenParams
	if err := c.Bind(&params); err != nil {
		return writeError(c, serrors.NewInvalidRequest("Malformed token request"))
	}
	if params.GrantType == "" {
		return writeError(c, serrors.NewInvalidRequest("grant_type is required"))
	}

	resp, err := oa.service.IssueToken(c.Request().Context(), &services.TokenRequest{
		GrantType:           params.GrantType,
		AuthorizationHeader: c.Request().Header.Get(echo.HeaderAuthorization),
		ClientID:            params.ClientID,
		ClientSecret:        params.ClientSecret,
		Code:                params.Code,
		RedirectURI:         params.RedirectURI,
		CodeVerifier:        params.CodeVerifier,
		RefreshToken:        params.RefreshToken,
		Scope:               params.Scope,
	})

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	c.Response().Header().Set("Pragma", "no-cache")

	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

type revokeParams struct {
	Token         string `form:"token"           json:"token"`
	TokenTypeHint string `form:"token_type_hint" json:"token_type_hint"`
}

// RevokeHandler handles token revocation requests according to RFC 7009.
// The endpoint always returns 200 OK for a well-formed request, whether or
// not a token was revoked.
func (oa *OAuth2API) RevokeHandler(c echo.Context) error {
	var params revokeParams
	if err := c.Bind(&params); err != nil || params.Token == "" {
		return writeError(c, serrors.NewInvalidRequest("token parameter is required"))
	}

	switch params.TokenTypeHint {
	case "", domain.TokenTypeAccessToken, domain.TokenTypeRefreshToken:
	default:
		log.Debug().Str("token_type_hint", params.TokenTypeHint).Msg("Ignoring unknown token_type_hint")
		params.TokenTypeHint = ""
	}

	oa.service.Revoke(c.Request().Context(), params.Token, params.TokenTypeHint)

	return c.NoContent(http.StatusOK)
}

// IntrospectHandler implements RFC 7662 token introspection for access
// tokens.
func (oa *OAuth2API) IntrospectHandler(c echo.Context) error {
	var params struct {
		Token string `form:"token" json:"token"`
	}
	if err := c.Bind(&params); err != nil || params.Token == "" {
		return writeError(c, serrors.NewInvalidRequest("token parameter is required"))
	}

	return c.JSON(http.StatusOK, oa.service.Introspect(c.Request().Context(), params.Token))
}
