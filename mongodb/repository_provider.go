package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/services"
)

// RepositoryProvider builds every MongoDB repository on one database.
type RepositoryProvider struct {
	db *mongo.Database
}

func NewRepositoryProvider(db *mongo.Database) *RepositoryProvider {
	return &RepositoryProvider{db: db}
}

func (p *RepositoryProvider) AccessTokenRepository(context.Context) domain.AccessTokenRepository {
	return NewAccessTokenRepository(p.db)
}

func (p *RepositoryProvider) RefreshTokenRepository(context.Context) domain.RefreshTokenRepository {
	return NewRefreshTokenRepository(p.db)
}

func (p *RepositoryProvider) AuthorizationCodeRepository(context.Context) domain.AuthorizationCodeRepository {
	return NewAuthCodeRepository(p.db)
}

func (p *RepositoryProvider) ClientRepository(context.Context) domain.ClientRepository {
	return NewClientRepository(p.db)
}

func (p *RepositoryProvider) ScopeRepository(context.Context) domain.ScopeRepository {
	return NewScopeRepository(p.db)
}

func (p *RepositoryProvider) UserRepository(context.Context) domain.UserRepository {
	return NewUserRepository(p.db)
}

func (p *RepositoryProvider) Transactor(context.Context) domain.Transactor {
	return NewTransactor(p.db.Client())
}

var (
	_ services.RepositoryProvider        = (*RepositoryProvider)(nil)
	_ domain.AccessTokenRepository       = (*AccessTokenRepository)(nil)
	_ domain.RefreshTokenRepository      = (*RefreshTokenRepository)(nil)
	_ domain.AuthorizationCodeRepository = (*AuthCodeRepository)(nil)
	_ domain.ClientRepository            = (*ClientRepository)(nil)
	_ domain.ScopeRepository             = (*ScopeRepository)(nil)
	_ domain.UserRepository              = (*UserRepository)(nil)
)
