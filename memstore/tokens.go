package memstore

import (
	"context"
	"time"

	"go.pilab.hu/shadow-oauth/domain"
)

// AccessTokenRepository implements domain.AccessTokenRepository.
type AccessTokenRepository struct {
	s *Store
}

func (r *AccessTokenRepository) FindByToken(_ context.Context, token string) (*domain.AccessToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if t, ok := r.s.accessTokens[token]; ok {
		return cloneAccessToken(t), nil
	}
	return nil, nil
}

// GetByToken ignores lock; writers are serialised by the store mutex.
func (r *AccessTokenRepository) GetByToken(ctx context.Context, token string, _ bool) (*domain.AccessToken, error) {
	t, _ := r.FindByToken(ctx, token)
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *AccessTokenRepository) Save(ctx context.Context, token *domain.AccessToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	put(ctx, r.s.accessTokens, token.Token, cloneAccessToken(token))
	return nil
}

func (r *AccessTokenRepository) MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.accessTokens[token]
	if !ok || t.Revoked {
		return false, nil
	}
	updated := cloneAccessToken(t)
	updated.Revoke(at)
	put(ctx, r.s.accessTokens, token, updated)
	return true, nil
}

func (r *AccessTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.accessTokens {
		if !now.Before(t.ExpiresAt) {
			remove(ctx, r.s.accessTokens, k)
			n++
		}
	}
	return n, nil
}

func (r *AccessTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.revokeWhere(ctx, at, func(t *domain.AccessToken) bool { return t.UserID == userID })
}

func (r *AccessTokenRepository) RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error) {
	return r.revokeWhere(ctx, at, func(t *domain.AccessToken) bool { return t.ClientID == clientID })
}

func (r *AccessTokenRepository) revokeWhere(ctx context.Context, at time.Time, match func(*domain.AccessToken) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.accessTokens {
		if t.Revoked || !match(t) {
			continue
		}
		updated := cloneAccessToken(t)
		updated.Revoke(at)
		put(ctx, r.s.accessTokens, k, updated)
		n++
	}
	return n, nil
}

// RefreshTokenRepository implements domain.RefreshTokenRepository.
type RefreshTokenRepository struct {
	s *Store
}

func (r *RefreshTokenRepository) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if t, ok := r.s.refreshTokens[token]; ok {
		return cloneRefreshToken(t), nil
	}
	return nil, nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string, _ bool) (*domain.RefreshToken, error) {
	t, _ := r.FindByToken(ctx, token)
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *RefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	put(ctx, r.s.refreshTokens, token.Token, cloneRefreshToken(token))
	return nil
}

func (r *RefreshTokenRepository) MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.refreshTokens[token]
	if !ok || t.Revoked {
		return false, nil
	}
	updated := cloneRefreshToken(t)
	updated.Revoke(at)
	put(ctx, r.s.refreshTokens, token, updated)
	return true, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.refreshTokens {
		if !now.Before(t.ExpiresAt) {
			remove(ctx, r.s.refreshTokens, k)
			n++
		}
	}
	return n, nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.revokeWhere(ctx, at, func(t *domain.RefreshToken) bool { return t.UserID == userID })
}

func (r *RefreshTokenRepository) RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error) {
	return r.revokeWhere(ctx, at, func(t *domain.RefreshToken) bool { return t.ClientID == clientID })
}

func (r *RefreshTokenRepository) revokeWhere(ctx context.Context, at time.Time, match func(*domain.RefreshToken) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.refreshTokens {
		if t.Revoked || !match(t) {
			continue
		}
		updated := cloneRefreshToken(t)
		updated.Revoke(at)
		put(ctx, r.s.refreshTokens, k, updated)
		n++
	}
	return n, nil
}

// AuthorizationCodeRepository implements domain.AuthorizationCodeRepository.
type AuthorizationCodeRepository struct {
	s *Store
}

func (r *AuthorizationCodeRepository) FindByCode(_ context.Context, code string) (*domain.AuthorizationCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if c, ok := r.s.codes[code]; ok {
		return cloneCode(c), nil
	}
	return nil, nil
}

func (r *AuthorizationCodeRepository) GetByCode(ctx context.Context, code string, _ bool) (*domain.AuthorizationCode, error) {
	c, _ := r.FindByCode(ctx, code)
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *AuthorizationCodeRepository) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	put(ctx, r.s.codes, code.Code, cloneCode(code))
	return nil
}

func (r *AuthorizationCodeRepository) MarkUsed(ctx context.Context, code string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.codes[code]
	if !ok || c.Used {
		return false, nil
	}
	updated := cloneCode(c)
	updated.MarkUsed(at)
	put(ctx, r.s.codes, code, updated)
	return true, nil
}

func (r *AuthorizationCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, c := range r.s.codes {
		if !now.Before(c.ExpiresAt) {
			remove(ctx, r.s.codes, k)
			n++
		}
	}
	return n, nil
}
