package memstore

import (
	"context"
	"slices"
	"strings"

	"go.pilab.hu/shadow-oauth/domain"
)

// ClientRepository implements domain.ClientRepository.
type ClientRepository struct {
	s *Store
}

func (r *ClientRepository) FindByClientID(_ context.Context, clientID string) (*domain.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if c, ok := r.s.clients[clientID]; ok {
		return cloneClient(c), nil
	}
	return nil, nil
}

func (r *ClientRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	c, _ := r.FindByClientID(ctx, clientID)
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *ClientRepository) FindActive(context.Context) ([]*domain.Client, error) {
	return r.list(func(c *domain.Client) bool { return c.Active }), nil
}

func (r *ClientRepository) FindAll(context.Context) ([]*domain.Client, error) {
	return r.list(func(*domain.Client) bool { return true }), nil
}

func (r *ClientRepository) list(match func(*domain.Client) bool) []*domain.Client {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		if match(c) {
			out = append(out, cloneClient(c))
		}
	}
	slices.SortFunc(out, func(a, b *domain.Client) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (r *ClientRepository) Save(ctx context.Context, client *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	put(ctx, r.s.clients, client.ClientID, cloneClient(client))
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, clientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[clientID]; !ok {
		return domain.ErrNotFound
	}
	remove(ctx, r.s.clients, clientID)
	return nil
}

// ScopeRepository implements domain.ScopeRepository.
type ScopeRepository struct {
	s *Store
}

func (r *ScopeRepository) FindByIdentifiers(_ context.Context, identifiers []string) ([]*domain.Scope, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Scope, 0, len(identifiers))
	for _, id := range identifiers {
		if sc, ok := r.s.scopes[id]; ok {
			c := *sc
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *ScopeRepository) FindAll(context.Context) ([]*domain.Scope, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Scope, 0, len(r.s.scopes))
	for _, sc := range r.s.scopes {
		c := *sc
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Scope) int { return strings.Compare(a.Identifier, b.Identifier) })
	return out, nil
}

func (r *ScopeRepository) Save(ctx context.Context, scope *domain.Scope) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *scope
	put(ctx, r.s.scopes, scope.Identifier, &c)
	return nil
}

// UserRepository implements domain.UserRepository.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *user
	put(ctx, r.s.users, user.ID, &c)
	return nil
}
