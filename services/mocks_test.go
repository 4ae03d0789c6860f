package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
	"go.pilab.hu/shadow-oauth/domain"
)

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockClientRepository) FindActive(ctx context.Context) ([]*domain.Client, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context) ([]*domain.Client, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *domain.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, clientID string) error {
	return m.Called(ctx, clientID).Error(0)
}

type MockScopeRepository struct {
	mock.Mock
}

func (m *MockScopeRepository) FindByIdentifiers(ctx context.Context, identifiers []string) ([]*domain.Scope, error) {
	args := m.Called(ctx, identifiers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Scope), args.Error(1)
}

func (m *MockScopeRepository) FindAll(ctx context.Context) ([]*domain.Scope, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Scope), args.Error(1)
}

func (m *MockScopeRepository) Save(ctx context.Context, scope *domain.Scope) error {
	return m.Called(ctx, scope).Error(0)
}

type MockAccessTokenRepository struct {
	mock.Mock
}

func (m *MockAccessTokenRepository) FindByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockAccessTokenRepository) GetByToken(ctx context.Context, token string, lock bool) (*domain.AccessToken, error) {
	args := m.Called(ctx, token, lock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockAccessTokenRepository) Save(ctx context.Context, token *domain.AccessToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAccessTokenRepository) MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error) {
	args := m.Called(ctx, token, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccessTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccessTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccessTokenRepository) RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error) {
	args := m.Called(ctx, clientID, at)
	return args.Get(0).(int64), args.Error(1)
}

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) GetByToken(ctx context.Context, token string, lock bool) (*domain.RefreshToken, error) {
	args := m.Called(ctx, token, lock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRefreshTokenRepository) MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error) {
	args := m.Called(ctx, token, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenRepository) RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error) {
	args := m.Called(ctx, clientID, at)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuthorizationCodeRepository struct {
	mock.Mock
}

func (m *MockAuthorizationCodeRepository) FindByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *MockAuthorizationCodeRepository) GetByCode(ctx context.Context, code string, lock bool) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, code, lock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *MockAuthorizationCodeRepository) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockAuthorizationCodeRepository) MarkUsed(ctx context.Context, code string, at time.Time) (bool, error) {
	args := m.Called(ctx, code, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthorizationCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(secret string) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(hashed, secret string) error {
	return m.Called(hashed, secret).Error(0)
}

// sequenceGenerator returns predictable, distinct credential values.
type sequenceGenerator struct {
	n atomic.Int64
}

func (g *sequenceGenerator) next(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, g.n.Add(1))
}

func (g *sequenceGenerator) GenerateAccessToken() string { return g.next("at") }
func (g *sequenceGenerator) GenerateRefreshToken() string { return g.next("rt") }
func (g *sequenceGenerator) GenerateAuthorizationCode() string { return g.next("code") }
func (g *sequenceGenerator) GenerateClientID() string { return g.next("client") }
func (g *sequenceGenerator) GenerateClientSecret() string { return g.next("secret") }

// passthroughTx runs the callback directly.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
