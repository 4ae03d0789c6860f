package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/shadow-oauth/domain"
)

func newTestStore(t *testing.T) (*AuthCodeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAuthCodeStore(client, "test"), mr
}

func TestAuthCodeStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	found, err := store.FindByCode(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
	_, err = store.GetByCode(ctx, "missing", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	code := &domain.AuthorizationCode{
		Code:                "abc",
		ClientID:            "c1",
		UserID:              "u1",
		RedirectURI:         "https://a/cb",
		Scopes:              []string{"openid"},
		ExpiresAt:           time.Now().Add(10 * time.Minute),
		CodeChallenge:       "challenge",
		CodeChallengeMethod: domain.CodeChallengeS256,
	}
	require.NoError(t, store.Save(ctx, code))

	key := store.redisKey("abc")
	assert.NotContains(t, key, "abc", "raw code is not part of the key")
	assert.InDelta(t, (10 * time.Minute).Seconds(), mr.TTL(key).Seconds(), 2)

	got, err := store.GetByCode(ctx, "abc", true)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ClientID)
	assert.Equal(t, domain.CodeChallengeS256, got.CodeChallengeMethod)

	mr.FastForward(11 * time.Minute)
	_, err = store.GetByCode(ctx, "abc", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthCodeStoreMarkUsed(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	require.NoError(t, store.Save(ctx, &domain.AuthorizationCode{Code: "abc", ExpiresAt: time.Now().Add(time.Minute)}))

	ok, err := store.MarkUsed(ctx, "abc", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkUsed(ctx, "abc", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.FindByCode(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, got.Used)
	assert.Greater(t, mr.TTL(store.redisKey("abc")), time.Duration(0), "TTL survives the update")

	ok, err = store.MarkUsed(ctx, "missing", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthCodeStoreMarkUsedConcurrent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(ctx, &domain.AuthorizationCode{Code: "abc", ExpiresAt: time.Now().Add(time.Minute)}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.MarkUsed(ctx, "abc", time.Now()); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}
