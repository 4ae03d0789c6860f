package services

import (
	"context"

	"go.pilab.hu/shadow-oauth/domain"
)

// RepositoryProvider gives access to every repository of one storage backend
// so services can be wired without knowing the backend.
type RepositoryProvider interface {
	AccessTokenRepository(ctx context.Context) domain.AccessTokenRepository
	RefreshTokenRepository(ctx context.Context) domain.RefreshTokenRepository
	AuthorizationCodeRepository(ctx context.Context) domain.AuthorizationCodeRepository
	ClientRepository(ctx context.Context) domain.ClientRepository
	ScopeRepository(ctx context.Context) domain.ScopeRepository
	UserRepository(ctx context.Context) domain.UserRepository
	Transactor(ctx context.Context) domain.Transactor
}
