package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-oauth/cache"
	rediscache "go.pilab.hu/shadow-oauth/cache/redis"
	"go.pilab.hu/shadow-oauth/config"
	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/memstore"
)

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, &config.ServerConfig{Storage: config.StorageMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(ctx) })

	assert.IsType(t, &memstore.AuthorizationCodeRepository{}, b.AuthorizationCodeRepository(ctx))
	assert.IsType(t, &memstore.ScopeRepository{}, b.ScopeRepository(ctx))
}

func TestOpenWithOverlays(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	b, err := Open(ctx, &config.ServerConfig{
		Storage:       config.StorageMemory,
		RedisAddr:     mr.Addr(),
		RedisPrefix:   "t",
		ScopeCacheTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(ctx) })

	codes := b.AuthorizationCodeRepository(ctx)
	assert.IsType(t, &rediscache.AuthCodeStore{}, codes)
	assert.IsType(t, &cache.ScopeCache{}, b.ScopeRepository(ctx))
	assert.Same(t, b.ScopeRepository(ctx), b.ScopeRepository(ctx))

	require.NoError(t, codes.Save(ctx, &domain.AuthorizationCode{Code: "c", ExpiresAt: time.Now().Add(time.Minute)}))
	assert.Len(t, mr.Keys(), 1)
}

func TestOpenFailures(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, &config.ServerConfig{Storage: "sqlite"})
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = Open(ctx, &config.ServerConfig{Storage: config.StorageMemory, RedisAddr: "127.0.0.1:1"})
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
