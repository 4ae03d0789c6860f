package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get* lookups when the record does not exist.
var ErrNotFound = errors.New("not found")

// AccessTokenRepository persists access tokens keyed by their opaque value.
type AccessTokenRepository interface {
	// FindByToken returns (nil, nil) when the token does not exist.
	FindByToken(ctx context.Context, token string) (*AccessToken, error)
	// GetByToken fails with ErrNotFound. With lock set, the store must
	// serialise concurrent writers of the same record.
	GetByToken(ctx context.Context, token string, lock bool) (*AccessToken, error)
	Save(ctx context.Context, token *AccessToken) error
	// MarkRevoked flips revoked to true only if it was false and reports
	// whether this call performed the transition.
	MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)
	RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error)
}

// RefreshTokenRepository persists refresh tokens keyed by their opaque value.
type RefreshTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)
	GetByToken(ctx context.Context, token string, lock bool) (*RefreshToken, error)
	Save(ctx context.Context, token *RefreshToken) error
	MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)
	RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error)
}

// AuthorizationCodeRepository persists authorization codes.
type AuthorizationCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*AuthorizationCode, error)
	GetByCode(ctx context.Context, code string, lock bool) (*AuthorizationCode, error)
	Save(ctx context.Context, code *AuthorizationCode) error
	// MarkUsed flips used to true only if it was false and reports whether
	// this call performed the transition.
	MarkUsed(ctx context.Context, code string, at time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ClientRepository persists OAuth2 clients.
type ClientRepository interface {
	FindByClientID(ctx context.Context, clientID string) (*Client, error)
	GetByClientID(ctx context.Context, clientID string) (*Client, error)
	FindActive(ctx context.Context) ([]*Client, error)
	FindAll(ctx context.Context) ([]*Client, error)
	Save(ctx context.Context, client *Client) error
	// Delete fails with ErrNotFound when no client has the given id.
	Delete(ctx context.Context, clientID string) error
}

// ScopeRepository is the global scope registry.
type ScopeRepository interface {
	// FindByIdentifiers returns the subset of identifiers that exist.
	FindByIdentifiers(ctx context.Context, identifiers []string) ([]*Scope, error)
	FindAll(ctx context.Context) ([]*Scope, error)
	Save(ctx context.Context, scope *Scope) error
}

// UserRepository resolves resource owners referenced by tokens.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// Transactor runs fn inside a single persistence transaction. Repository
// calls made with the ctx passed to fn take part in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
