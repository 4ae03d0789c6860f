package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.pilab.hu/shadow-oauth/domain"
)

// AccessTokenRepository stores access tokens in AccessTokensCollection.
type AccessTokenRepository struct {
	coll *mongo.Collection
}

func NewAccessTokenRepository(db *mongo.Database) *AccessTokenRepository {
	return &AccessTokenRepository{coll: db.Collection(AccessTokensCollection)}
}

func (r *AccessTokenRepository) FindByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	var at domain.AccessToken
	found, err := findOne(ctx, r.coll, bson.M{"token": token}, &at)
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving access token")
		return nil, fmt.Errorf("failed to retrieve access token: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &at, nil
}

func (r *AccessTokenRepository) GetByToken(ctx context.Context, token string, lock bool) (*domain.AccessToken, error) {
	var at domain.AccessToken
	if err := getOne(ctx, r.coll, bson.M{"token": token}, lock, &at); err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *AccessTokenRepository) Save(ctx context.Context, token *domain.AccessToken) error {
	if err := upsert(ctx, r.coll, bson.M{"_id": token.ID}, token); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	return nil
}

func (r *AccessTokenRepository) MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error) {
	return flipFlag(ctx, r.coll, bson.M{"token": token}, "revoked", "revoked_at", at)
}

func (r *AccessTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return deleteExpired(ctx, r.coll, now)
}

func (r *AccessTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	return revokeMany(ctx, r.coll, bson.M{"user_id": userID}, at)
}

func (r *AccessTokenRepository) RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error) {
	return revokeMany(ctx, r.coll, bson.M{"client_id": clientID}, at)
}

// RefreshTokenRepository stores refresh tokens in RefreshTokensCollection.
type RefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{coll: db.Collection(RefreshTokensCollection)}
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	found, err := findOne(ctx, r.coll, bson.M{"token": token}, &rt)
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving refresh token")
		return nil, fmt.Errorf("failed to retrieve refresh token: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &rt, nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string, lock bool) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	if err := getOne(ctx, r.coll, bson.M{"token": token}, lock, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	if err := upsert(ctx, r.coll, bson.M{"_id": token.ID}, token); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) MarkRevoked(ctx context.Context, token string, at time.Time) (bool, error) {
	return flipFlag(ctx, r.coll, bson.M{"token": token}, "revoked", "revoked_at", at)
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return deleteExpired(ctx, r.coll, now)
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	return revokeMany(ctx, r.coll, bson.M{"user_id": userID}, at)
}

func (r *RefreshTokenRepository) RevokeAllForClient(ctx context.Context, clientID string, at time.Time) (int64, error) {
	return revokeMany(ctx, r.coll, bson.M{"client_id": clientID}, at)
}
