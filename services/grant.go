package services

import (
	"context"

	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
)

// TokenRequest carries the parameters of a token endpoint call. Absent
// optional parameters are empty strings.
type TokenRequest struct {
	GrantType           string
	AuthorizationHeader string
	ClientID            string
	ClientSecret        string
	Code                string
	RedirectURI         string
	CodeVerifier        string
	RefreshToken        string
	Scope               string
}

// TokenResponse is the RFC 6749 section 5.1 token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// GrantHandler implements the protocol steps of one grant type.
type GrantHandler interface {
	Supports(grantType string) bool
	Handle(ctx context.Context, req *TokenRequest) (*TokenResponse, error)
}

// grantBase holds what every handler needs to authenticate the caller and
// run its mutations in one transaction.
type grantBase struct {
	authenticator *ClientAuthenticator
	tx            domain.Transactor
	grantType     domain.GrantType
}

func (b *grantBase) Supports(grantType string) bool {
	return grantType == string(b.grantType)
}

// authenticate resolves the client and checks it may use the handler's grant.
func (b *grantBase) authenticate(ctx context.Context, req *TokenRequest) (*domain.Client, error) {
	client, err := b.authenticator.Authenticate(ctx, req.AuthorizationHeader, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !client.AllowsGrantType(b.grantType) {
		return nil, serrors.NewUnauthorizedClient("Client is not authorized to use " + string(b.grantType) + " grant type")
	}
	return client, nil
}

func newTokenResponse(at *domain.AccessToken, rt *domain.RefreshToken) *TokenResponse {
	resp := &TokenResponse{
		AccessToken: at.Token,
		TokenType:   domain.TokenTypeBearer,
		ExpiresIn:   int64(at.ExpiresAt.Sub(at.CreatedAt).Seconds()),
		Scope:       JoinScopes(at.Scopes),
	}
	if rt != nil {
		resp.RefreshToken = rt.Token
	}
	return resp
}
