package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.pilab.hu/shadow-oauth/domain"
)

type AuthCodeRepository struct {
	authCodes *mongo.Collection
}

func NewAuthCodeRepository(db *mongo.Database) *AuthCodeRepository {
	return &AuthCodeRepository{authCodes: db.Collection(CodesCollection)}
}

func (r *AuthCodeRepository) FindByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	var ac domain.AuthorizationCode
	found, err := findOne(ctx, r.authCodes, bson.M{"code": code}, &ac)
	if err != nil {
		log.Error().Err(err).Msg("Error retrieving authorization code")
		return nil, fmt.Errorf("failed to retrieve authorization code: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &ac, nil
}

func (r *AuthCodeRepository) GetByCode(ctx context.Context, code string, lock bool) (*domain.AuthorizationCode, error) {
	var ac domain.AuthorizationCode
	if err := getOne(ctx, r.authCodes, bson.M{"code": code}, lock, &ac); err != nil {
		return nil, err
	}
	return &ac, nil
}

func (r *AuthCodeRepository) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	if code.Code == "" {
		return errors.New("auth code value cannot be empty")
	}
	if err := upsert(ctx, r.authCodes, bson.M{"_id": code.ID}, code); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("authorization code already exists: %w", err)
		}
		log.Error().Err(err).Str("client_id", code.ClientID).Msg("Error saving authorization code")
		return fmt.Errorf("failed to save authorization code: %w", err)
	}

	log.Debug().Str("client_id", code.ClientID).Str("user_id", code.UserID).Msg("Authorization code saved")
	return nil
}

func (r *AuthCodeRepository) MarkUsed(ctx context.Context, code string, at time.Time) (bool, error) {
	ok, err := flipFlag(ctx, r.authCodes, bson.M{"code": code}, "used", "used_at", at)
	if err != nil {
		log.Error().Err(err).Msg("Error marking authorization code as used")
		return false, fmt.Errorf("failed to mark authorization code as used: %w", err)
	}
	return ok, nil
}

func (r *AuthCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return deleteExpired(ctx, r.authCodes, now)
}
