package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection         = "oauth_users"
	ClientsCollection       = "oauth_clients"
	ScopesCollection        = "oauth_scopes"
	CodesCollection         = "oauth_auth_codes"
	AccessTokensCollection  = "oauth_access_tokens"
	RefreshTokensCollection = "oauth_refresh_tokens"
)

// EnsureIndexes creates the unique lookup indexes and the secondary indexes
// used by bulk revocation and cleanup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	plain := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}}
	}

	indexes := map[string][]mongo.IndexModel{
		ClientsCollection:       {unique("client_id"), plain("active")},
		CodesCollection:         {unique("code"), plain("expires_at")},
		AccessTokensCollection:  {unique("token"), plain("user_id"), plain("client_id"), plain("expires_at")},
		RefreshTokensCollection: {unique("token"), plain("user_id"), plain("client_id"), plain("expires_at")},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		log.Debug().Str("collection", coll).Int("indexes", len(models)).Msg("Indexes ensured")
	}
	return nil
}
