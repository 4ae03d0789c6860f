package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.pilab.hu/shadow-oauth/domain"
)

// scopeEntry caches a registry lookup. A nil scope records that the
// identifier does not exist.
type scopeEntry struct {
	scope *domain.Scope
}

// maxNegativeScopeTTL bounds how long an unknown identifier is remembered, so
// scopes registered by another process become visible quickly.
const maxNegativeScopeTTL = 30 * time.Second

// ScopeCache decorates a domain.ScopeRepository with a ttlcache of
// identifier lookups. Writes go through to the repository.
type ScopeCache struct {
	repo        domain.ScopeRepository
	cache       *ttlcache.Cache[string, scopeEntry]
	negativeTTL time.Duration
}

// NewScopeCache creates the decorator and starts the expiry loop; call Stop
// on shutdown.
func NewScopeCache(repo domain.ScopeRepository, ttl time.Duration) *ScopeCache {
	c := ttlcache.New(
		ttlcache.WithTTL[string, scopeEntry](ttl),
		ttlcache.WithDisableTouchOnHit[string, scopeEntry](),
	)
	go c.Start()

	return &ScopeCache{repo: repo, cache: c, negativeTTL: min(ttl, maxNegativeScopeTTL)}
}

// FindByIdentifiers serves cached identifiers and fetches the rest in one
// repository call.
func (s *ScopeCache) FindByIdentifiers(ctx context.Context, identifiers []string) ([]*domain.Scope, error) {
	out := make([]*domain.Scope, 0, len(identifiers))
	var missing []string

	for _, id := range identifiers {
		item := s.cache.Get(id)
		if item == nil {
			missing = append(missing, id)
			continue
		}
		if sc := item.Value().scope; sc != nil {
			out = append(out, sc)
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	found, err := s.repo.FindByIdentifiers(ctx, missing)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Scope, len(found))
	for _, sc := range found {
		byID[sc.Identifier] = sc
	}
	for _, id := range missing {
		sc := byID[id]
		if sc == nil {
			s.cache.Set(id, scopeEntry{}, s.negativeTTL)
			continue
		}
		s.cache.Set(id, scopeEntry{scope: sc}, ttlcache.DefaultTTL)
		out = append(out, sc)
	}

	return out, nil
}

func (s *ScopeCache) FindAll(ctx context.Context) ([]*domain.Scope, error) {
	return s.repo.FindAll(ctx)
}

// Save writes through and refreshes the cached entry.
func (s *ScopeCache) Save(ctx context.Context, scope *domain.Scope) error {
	if err := s.repo.Save(ctx, scope); err != nil {
		return err
	}
	s.cache.Set(scope.Identifier, scopeEntry{scope: scope}, ttlcache.DefaultTTL)
	return nil
}

// Len is the number of cached identifiers.
func (s *ScopeCache) Len() int {
	return s.cache.Len()
}

// Stop ends the expiry loop.
func (s *ScopeCache) Stop() {
	s.cache.Stop()
}

var _ domain.ScopeRepository = (*ScopeCache)(nil)
