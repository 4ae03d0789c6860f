package domain

import "time"

// PKCE code challenge methods.
const (
	CodeChallengePlain = "plain"
	CodeChallengeS256  = "S256"
)

// AuthorizationCode represents an OAuth 2.0 authorization code.
type AuthorizationCode struct {
	ID          string     `bson:"_id"               json:"id"`
	Code        string     `bson:"code"              json:"code"`
	ClientID    string     `bson:"client_id"         json:"client_id"`
	UserID      string     `bson:"user_id"           json:"user_id"`
	RedirectURI string     `bson:"redirect_uri"      json:"redirect_uri"`
	Scopes      []string   `bson:"scopes"            json:"scopes"`
	ExpiresAt   time.Time  `bson:"expires_at"        json:"expires_at"`
	CreatedAt   time.Time  `bson:"created_at"        json:"created_at"`
	Used        bool       `bson:"used"              json:"used"`
	UsedAt      *time.Time `bson:"used_at,omitempty" json:"used_at,omitempty"`

	CodeChallenge       string `bson:"code_challenge,omitempty"        json:"code_challenge,omitempty"`
	CodeChallengeMethod string `bson:"code_challenge_method,omitempty" json:"code_challenge_method,omitempty"`
}

// Valid reports whether the code can still be exchanged at now.
func (c *AuthorizationCode) Valid(now time.Time) bool {
	return now.Before(c.ExpiresAt) && !c.Used
}

// HasChallenge reports whether the code was issued with a PKCE challenge.
func (c *AuthorizationCode) HasChallenge() bool {
	return c.CodeChallenge != ""
}

// ChallengeMethod returns the stored challenge method, defaulting to plain.
func (c *AuthorizationCode) ChallengeMethod() string {
	if c.CodeChallengeMethod == "" {
		return CodeChallengePlain
	}
	return c.CodeChallengeMethod
}

// MarkUsed flips the code to used. Calling it again keeps the first timestamp.
func (c *AuthorizationCode) MarkUsed(at time.Time) {
	if c.Used {
		return
	}
	c.Used = true
	c.UsedAt = &at
}
