// Package storage opens the configured persistence backend and layers the
// optional Redis code store and scope cache on top of it.
package storage

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/shadow-oauth/cache"
	rediscache "go.pilab.hu/shadow-oauth/cache/redis"
	"go.pilab.hu/shadow-oauth/config"
	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/memstore"
	"go.pilab.hu/shadow-oauth/mongodb"
	"go.pilab.hu/shadow-oauth/services"
)

// Backend is a services.RepositoryProvider with the configured overlays
// applied.
type Backend struct {
	services.RepositoryProvider

	scopes  *cache.ScopeCache
	codes   domain.AuthorizationCodeRepository
	closers []func(ctx context.Context) error
}

// Open connects the backend selected by cfg.Storage. The returned Backend
// must be closed.
func Open(ctx context.Context, cfg *config.ServerConfig) (*Backend, error) {
	b := &Backend{}

	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage; all data is lost on restart")
		b.RepositoryProvider = memstore.New()

	case config.StorageMongoDB:
		if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB connection: %w", err)
		}
		db := mongodb.GetDB()
		b.closers = append(b.closers, func(ctx context.Context) error {
			mongodb.CloseMongoDB(ctx)
			return nil
		})

		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = b.Close(ctx)
			return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
		}
		b.RepositoryProvider = mongodb.NewRepositoryProvider(db)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = b.Close(ctx)
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}

		log.Info().Str("addr", cfg.RedisAddr).Msg("Authorization codes are stored in Redis")
		b.codes = rediscache.NewAuthCodeStore(client, cfg.RedisPrefix)
		b.closers = append(b.closers, func(context.Context) error { return client.Close() })
	}

	if cfg.ScopeCacheTTL > 0 {
		b.scopes = cache.NewScopeCache(b.RepositoryProvider.ScopeRepository(ctx), cfg.ScopeCacheTTL)
		b.closers = append(b.closers, func(context.Context) error {
			b.scopes.Stop()
			return nil
		})
	}

	return b, nil
}

func (b *Backend) ScopeRepository(ctx context.Context) domain.ScopeRepository {
	if b.scopes != nil {
		return b.scopes
	}
	return b.RepositoryProvider.ScopeRepository(ctx)
}

func (b *Backend) AuthorizationCodeRepository(ctx context.Context) domain.AuthorizationCodeRepository {
	if b.codes != nil {
		return b.codes
	}
	return b.RepositoryProvider.AuthorizationCodeRepository(ctx)
}

// Close releases every connection in reverse order of opening.
func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i](ctx))
	}
	b.closers = nil
	return errors.Join(errs...)
}

var _ services.RepositoryProvider = (*Backend)(nil)
