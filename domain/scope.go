package domain

import "time"

// Well-known scope identifiers.
const (
	ScopeOfflineAccess = "offline_access"
	ScopeOpenID        = "openid"
)

// Scope is a named permission unit a token can carry.
type Scope struct {
	Identifier  string    `bson:"_id"                   json:"identifier"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	IsDefault   bool      `bson:"is_default"            json:"is_default"`
	CreatedAt   time.Time `bson:"created_at"            json:"created_at"`
}
