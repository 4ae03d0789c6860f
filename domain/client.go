package domain

import (
	"slices"
	"time"
)

// GrantType is an OAuth2 grant type identifier.
type GrantType string

const (
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeClientCredentials GrantType = "client_credentials"
	GrantTypeRefreshToken      GrantType = "refresh_token"
)

// Valid reports whether g is one of the supported grant types.
func (g GrantType) Valid() bool {
	switch g {
	case GrantTypeAuthorizationCode, GrantTypeClientCredentials, GrantTypeRefreshToken:
		return true
	}
	return false
}

// Client represents an OAuth2 client application
//
//nolint:tagliatelle
type Client struct {
	ID            string      `bson:"_id"                 json:"id"`
	ClientID      string      `bson:"client_id"           json:"client_id"`
	SecretHash    string      `bson:"client_secret_hash"  json:"-"`
	Name          string      `bson:"client_name"         json:"name"`
	Description   string      `bson:"description,omitempty" json:"description,omitempty"`
	RedirectURIs  []string    `bson:"redirect_uris"       json:"redirect_uris"`
	GrantTypes    []GrantType `bson:"grant_types"         json:"grant_types"`
	AllowedScopes []string    `bson:"allowed_scopes"      json:"allowed_scopes"`
	Confidential  bool        `bson:"confidential"        json:"confidential"`
	Active        bool        `bson:"active"              json:"active"`
	CreatedAt     time.Time   `bson:"created_at"          json:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at"          json:"updated_at"`
}

// AllowsGrantType reports whether the client may use the given grant type.
func (c *Client) AllowsGrantType(g GrantType) bool {
	return slices.Contains(c.GrantTypes, g)
}

// HasRedirectURI reports whether uri is registered for the client (exact match).
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}
