package echo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/internal/auth"
	"go.pilab.hu/shadow-oauth/internal/crypto"
	"go.pilab.hu/shadow-oauth/memstore"
	"go.pilab.hu/shadow-oauth/services"
	"golang.org/x/crypto/bcrypt"
)

const testRedirectURI = "https://app.example.com/callback"

type fixture struct {
	e        *echo.Echo
	provider *services.ServiceProvider
	web      *services.CreatedClient
	backend  *services.CreatedClient
	// userToken carries openid and admin for user-1.
	userToken string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	provider := services.NewServiceProvider(ctx, store, services.ServiceProviderOptions{
		Generator: crypto.NewTokenGenerator(),
		Hasher:    auth.NewBcryptPasswordHasher(bcrypt.MinCost),
	})

	for _, id := range []string{"openid", "profile", "offline_access", ScopeAdmin} {
		_, err := provider.ScopeService().CreateScope(ctx, id, id, false)
		require.NoError(t, err)
	}
	require.NoError(t, store.UserRepository(ctx).Save(ctx, &domain.User{ID: "user-1", Username: "alice", Enabled: true}))

	clients := provider.ClientManagementService()
	web, err := clients.CreateClient(ctx, services.CreateClientRequest{
		Name:          "web",
		RedirectURIs:  []string{testRedirectURI},
		GrantTypes:    []domain.GrantType{domain.GrantTypeAuthorizationCode, domain.GrantTypeRefreshToken},
		AllowedScopes: []string{"openid", "profile", "offline_access", ScopeAdmin},
		Confidential:  true,
	})
	require.NoError(t, err)
	backend, err := clients.CreateClient(ctx, services.CreateClientRequest{
		Name:          "backend",
		GrantTypes:    []domain.GrantType{domain.GrantTypeClientCredentials},
		AllowedScopes: []string{"openid"},
		Confidential:  true,
	})
	require.NoError(t, err)

	userToken, err := provider.AccessTokenService().Create(ctx, web.Client, []string{"openid", ScopeAdmin}, "user-1")
	require.NoError(t, err)

	e := echo.New()
	access := provider.AccessTokenService()
	NewOAuth2API(provider.OAuthService(), access, nil).RegisterRoutes(e)
	NewClientAPI(clients, access).RegisterRoutes(e)

	return &fixture{e: e, provider: provider, web: web, backend: backend, userToken: userToken.Token}
}

func (f *fixture) postForm(path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) bearer() map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + f.userToken}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthorizationCodeFlowOverHTTP(t *testing.T) {
	f := newFixture(t)
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	rec := f.postForm("/oauth2/authorize", url.Values{
		"response_type":         {"code"},
		"client_id":             {f.web.Client.ClientID},
		"redirect_uri":          {testRedirectURI},
		"scope":                 {"openid offline_access"},
		"state":                 {"s1"},
		"code_challenge":        {services.S256Challenge(verifier)},
		"code_challenge_method": {"S256"},
	}, f.bearer())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	authz := decode[services.AuthorizeResponse](t, rec)
	assert.Equal(t, "s1", authz.State)
	require.NotEmpty(t, authz.Code)

	basic := base64.StdEncoding.EncodeToString([]byte(f.web.Client.ClientID + ":" + f.web.ClientSecret))
	rec = f.postForm("/oauth2/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {authz.Code},
		"redirect_uri":  {testRedirectURI},
		"code_verifier": {verifier},
	}, map[string]string{echo.HeaderAuthorization: "Basic " + basic})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))

	tokens := decode[services.TokenResponse](t, rec)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, "openid offline_access", tokens.Scope)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.EqualValues(t, 3600, tokens.ExpiresIn)

	rec = f.postForm("/oauth2/introspect", url.Values{"token": {tokens.AccessToken}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	intro := decode[services.IntrospectionResponse](t, rec)
	assert.True(t, intro.Active)
	assert.Equal(t, "alice", intro.Username)
	assert.Equal(t, "user-1", intro.Sub)
	assert.Equal(t, f.web.Client.ClientID, intro.ClientID)

	rec = f.postForm("/oauth2/revoke", url.Values{"token": {tokens.AccessToken}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.postForm("/oauth2/introspect", url.Values{"token": {tokens.AccessToken}}, nil)
	assert.JSONEq(t, `{"active":false}`, rec.Body.String())

	// Replaying the code fails.
	rec = f.postForm("/oauth2/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {authz.Code},
		"redirect_uri":  {testRedirectURI},
		"code_verifier": {verifier},
	}, map[string]string{echo.HeaderAuthorization: "Basic " + basic})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_grant", decode[map[string]string](t, rec)["error"])
}

func TestTokenEndpointErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		form       url.Values
		headers    map[string]string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing grant type",
			form:       url.Values{},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request",
		},
		{
			name:       "unsupported grant type",
			form:       url.Values{"grant_type": {"password"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "unsupported_grant_type",
		},
		{
			name:       "bad client secret",
			form:       url.Values{"grant_type": {"client_credentials"}, "client_id": {f.backend.Client.ClientID}, "client_secret": {"wrong"}, "scope": {"openid"}},
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid_client",
		},
		{
			name:       "grant not allowed for client",
			form:       url.Values{"grant_type": {"client_credentials"}, "client_id": {f.web.Client.ClientID}, "client_secret": {f.web.ClientSecret}, "scope": {"openid"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "unauthorized_client",
		},
		{
			name:       "unknown scope",
			form:       url.Values{"grant_type": {"client_credentials"}, "client_id": {f.backend.Client.ClientID}, "client_secret": {f.backend.ClientSecret}, "scope": {"nope"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_scope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.postForm("/oauth2/token", tt.form, tt.headers)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.Equal(t, tt.wantError, body["error"])
			assert.NotEmpty(t, body["error_description"])
		})
	}
}

func TestTokenEndpointBasicAuthChallenge(t *testing.T) {
	f := newFixture(t)

	basic := base64.StdEncoding.EncodeToString([]byte(f.backend.Client.ClientID + ":wrong"))
	rec := f.postForm("/oauth2/token", url.Values{"grant_type": {"client_credentials"}, "scope": {"openid"}},
		map[string]string{echo.HeaderAuthorization: "Basic " + basic})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderWWWAuthenticate), "Basic")
}

func TestClientCredentialsOverHTTP(t *testing.T) {
	f := newFixture(t)

	rec := f.postForm("/oauth2/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {f.backend.Client.ClientID},
		"client_secret": {f.backend.ClientSecret},
		"scope":         {"openid"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tokens := decode[map[string]any](t, rec)
	assert.NotContains(t, tokens, "refresh_token")

	rec = f.postForm("/oauth2/introspect", url.Values{"token": {tokens["access_token"].(string)}}, nil)
	intro := decode[map[string]any](t, rec)
	assert.Equal(t, true, intro["active"])
	assert.NotContains(t, intro, "sub")
}

func TestAuthorizeRequiresUserToken(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		"response_type": {"code"},
		"client_id":     {f.web.Client.ClientID},
		"redirect_uri":  {testRedirectURI},
		"scope":         {"openid"},
	}

	rec := f.postForm("/oauth2/authorize", form, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	clientToken, err := f.provider.AccessTokenService().Create(context.Background(), f.backend.Client, []string{"openid"}, "")
	require.NoError(t, err)
	rec = f.postForm("/oauth2/authorize", form, map[string]string{echo.HeaderAuthorization: "Bearer " + clientToken.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	form.Set("redirect_uri", "https://evil.example.com/cb")
	rec = f.postForm("/oauth2/authorize", form, f.bearer())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[map[string]string](t, rec)["error"])
}

func TestRevokeAndIntrospectValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.postForm("/oauth2/revoke", url.Values{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.postForm("/oauth2/revoke", url.Values{"token": {"unknown"}, "token_type_hint": {"bogus"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.postForm("/oauth2/introspect", url.Values{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.postForm("/oauth2/introspect", url.Values{"token": {"unknown"}}, nil)
	assert.JSONEq(t, `{"active":false}`, rec.Body.String())
}
