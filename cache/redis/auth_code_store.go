package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/shadow-oauth/cache"
	"go.pilab.hu/shadow-oauth/domain"
)

// maxWatchRetries bounds the optimistic MarkUsed retries on contention.
const maxWatchRetries = 5

var errAlreadyUsed = errors.New("authorization code already used")

// AuthCodeStore implements domain.AuthorizationCodeRepository on Redis.
// Codes are stored as JSON under a hashed key that expires with the code.
type AuthCodeStore struct {
	client *redis.Client
	prefix string
}

// NewAuthCodeStore creates a new [AuthCodeStore].
func NewAuthCodeStore(client *redis.Client, prefix string) *AuthCodeStore {
	return &AuthCodeStore{client: client, prefix: prefix}
}

func (s *AuthCodeStore) redisKey(code string) string {
	return fmt.Sprintf("%s:code:%s", s.prefix, cache.HashToken(code))
}

func (s *AuthCodeStore) FindByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	ac, err := s.get(ctx, s.client, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return ac, err
}

// GetByCode ignores lock; MarkUsed is an optimistic transaction instead.
func (s *AuthCodeStore) GetByCode(ctx context.Context, code string, _ bool) (*domain.AuthorizationCode, error) {
	return s.get(ctx, s.client, code)
}

func (s *AuthCodeStore) get(ctx context.Context, c redis.Cmdable, code string) (*domain.AuthorizationCode, error) {
	raw, err := c.Get(ctx, s.redisKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code from Redis: %w", err)
	}

	var ac domain.AuthorizationCode
	if err := json.Unmarshal(raw, &ac); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization code: %w", err)
	}
	return &ac, nil
}

// Save stores code with a key TTL matching its expiry.
func (s *AuthCodeStore) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	raw, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization code: %w", err)
	}

	ttl := time.Until(code.ExpiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, s.redisKey(code.Code), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set authorization code in Redis: %w", err)
	}
	return nil
}

// MarkUsed flips used under WATCH so concurrent callers cannot both succeed.
func (s *AuthCodeStore) MarkUsed(ctx context.Context, code string, at time.Time) (bool, error) {
	key := s.redisKey(code)

	txf := func(tx *redis.Tx) error {
		ac, err := s.get(ctx, tx, code)
		if err != nil {
			return err
		}
		if ac.Used {
			return errAlreadyUsed
		}
		ac.MarkUsed(at)

		raw, err := json.Marshal(ac)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, errAlreadyUsed), errors.Is(err, domain.ErrNotFound):
			return false, nil
		case errors.Is(err, redis.TxFailedErr):
			log.Debug().Int("attempt", i+1).Msg("Authorization code changed during MarkUsed, retrying")
			continue
		default:
			return false, fmt.Errorf("failed to mark authorization code used: %w", err)
		}
	}
	return false, nil
}

// DeleteExpired is a no-op: Redis expires code keys by itself.
func (s *AuthCodeStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

var _ domain.AuthorizationCodeRepository = (*AuthCodeStore)(nil)
