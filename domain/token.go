package domain

import "time"

// TokenType values used in token responses, revocation hints and metrics.
const (
	TokenTypeBearer       = "Bearer"
	TokenTypeAccessToken  = "access_token"
	TokenTypeRefreshToken = "refresh_token"
)

// AccessToken is an opaque bearer credential. UserID is empty for tokens
// issued through the client_credentials grant.
type AccessToken struct {
	ID        string     `bson:"_id"                  json:"id"`
	Token     string     `bson:"token"                json:"token"`
	ClientID  string     `bson:"client_id"            json:"client_id"`
	UserID    string     `bson:"user_id,omitempty"    json:"user_id,omitempty"`
	Scopes    []string   `bson:"scopes"               json:"scopes"`
	ExpiresAt time.Time  `bson:"expires_at"           json:"expires_at"`
	CreatedAt time.Time  `bson:"created_at"           json:"created_at"`
	Revoked   bool       `bson:"revoked"              json:"revoked"`
	RevokedAt *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
}

// Valid reports whether the token is neither expired nor revoked at now.
func (t *AccessToken) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt) && !t.Revoked
}

// HasUser reports whether the token acts on behalf of a resource owner.
func (t *AccessToken) HasUser() bool {
	return t.UserID != ""
}

// Revoke marks the token revoked. Revocation is one-way; the first
// timestamp is kept.
func (t *AccessToken) Revoke(at time.Time) {
	if t.Revoked {
		return
	}
	t.Revoked = true
	t.RevokedAt = &at
}

// RefreshToken is a long-lived credential always bound to a user.
type RefreshToken struct {
	ID        string     `bson:"_id"                  json:"id"`
	Token     string     `bson:"token"                json:"token"`
	ClientID  string     `bson:"client_id"            json:"client_id"`
	UserID    string     `bson:"user_id"              json:"user_id"`
	Scopes    []string   `bson:"scopes"               json:"scopes"`
	ExpiresAt time.Time  `bson:"expires_at"           json:"expires_at"`
	CreatedAt time.Time  `bson:"created_at"           json:"created_at"`
	Revoked   bool       `bson:"revoked"              json:"revoked"`
	RevokedAt *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
}

// Valid reports whether the token is neither expired nor revoked at now.
func (t *RefreshToken) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt) && !t.Revoked
}

// Revoke marks the token revoked, keeping the first timestamp.
func (t *RefreshToken) Revoke(at time.Time) {
	if t.Revoked {
		return
	}
	t.Revoked = true
	t.RevokedAt = &at
}
