package memstore

import (
	"context"
	"slices"
	"sync"

	"go.pilab.hu/shadow-oauth/domain"
)

// Store holds every record in memory.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	accessTokens  map[string]*domain.AccessToken
	refreshTokens map[string]*domain.RefreshToken
	codes         map[string]*domain.AuthorizationCode
	clients       map[string]*domain.Client
	scopes        map[string]*domain.Scope
	users         map[string]*domain.User
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accessTokens:  make(map[string]*domain.AccessToken),
		refreshTokens: make(map[string]*domain.RefreshToken),
		codes:         make(map[string]*domain.AuthorizationCode),
		clients:       make(map[string]*domain.Client),
		scopes:        make(map[string]*domain.Scope),
		users:         make(map[string]*domain.User),
	}
}

type txKey struct{}

// txLog collects the inverse of every change made inside a transaction.
type txLog struct {
	undo []func()
}

// WithinTransaction implements domain.Transactor. Nested calls join the
// outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txLog); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &txLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		s.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// record registers undo when ctx belongs to a transaction. Callers hold s.mu.
func record(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(txKey{}).(*txLog); ok {
		log.undo = append(log.undo, undo)
	}
}

// put stores v under key in m and records how to restore the previous value.
func put[T any](ctx context.Context, m map[string]*T, key string, v *T) {
	prev, existed := m[key]
	m[key] = v
	record(ctx, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

// remove deletes key from m and records how to restore it.
func remove[T any](ctx context.Context, m map[string]*T, key string) {
	prev, existed := m[key]
	if !existed {
		return
	}
	delete(m, key)
	record(ctx, func() { m[key] = prev })
}

func cloneAccessToken(t *domain.AccessToken) *domain.AccessToken {
	c := *t
	c.Scopes = slices.Clone(t.Scopes)
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}

func cloneRefreshToken(t *domain.RefreshToken) *domain.RefreshToken {
	c := *t
	c.Scopes = slices.Clone(t.Scopes)
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}

func cloneCode(code *domain.AuthorizationCode) *domain.AuthorizationCode {
	c := *code
	c.Scopes = slices.Clone(code.Scopes)
	if code.UsedAt != nil {
		at := *code.UsedAt
		c.UsedAt = &at
	}
	return &c
}

func cloneClient(client *domain.Client) *domain.Client {
	c := *client
	c.RedirectURIs = slices.Clone(client.RedirectURIs)
	c.GrantTypes = slices.Clone(client.GrantTypes)
	c.AllowedScopes = slices.Clone(client.AllowedScopes)
	return &c
}
