package domain

import "time"

// User is the resource owner a token may act on behalf of. Registration and
// login live outside this module; tokens only reference users by ID.
type User struct {
	ID        string    `bson:"_id"        json:"id"`
	Email     string    `bson:"email"      json:"email"`
	Username  string    `bson:"username"   json:"username"`
	Enabled   bool      `bson:"enabled"    json:"enabled"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
