package memstore

import (
	"context"

	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/services"
)

func (s *Store) AccessTokenRepository(context.Context) domain.AccessTokenRepository {
	return &AccessTokenRepository{s: s}
}

func (s *Store) RefreshTokenRepository(context.Context) domain.RefreshTokenRepository {
	return &RefreshTokenRepository{s: s}
}

func (s *Store) AuthorizationCodeRepository(context.Context) domain.AuthorizationCodeRepository {
	return &AuthorizationCodeRepository{s: s}
}

func (s *Store) ClientRepository(context.Context) domain.ClientRepository {
	return &ClientRepository{s: s}
}

func (s *Store) ScopeRepository(context.Context) domain.ScopeRepository {
	return &ScopeRepository{s: s}
}

func (s *Store) UserRepository(context.Context) domain.UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Transactor(context.Context) domain.Transactor {
	return s
}

var _ services.RepositoryProvider = (*Store)(nil)
