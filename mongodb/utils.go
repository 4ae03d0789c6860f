package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.pilab.hu/shadow-oauth/domain"
)

// findOne decodes the first document matching filter. A missing document
// yields (false, nil).
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}) (bool, error) {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getOne is findOne returning domain.ErrNotFound. With lock set it stamps
// locked_at on the document, which makes a concurrent transaction touching
// the same document fail with a write conflict.
func getOne(ctx context.Context, coll *mongo.Collection, filter bson.M, lock bool, out interface{}) error {
	var err error
	if lock {
		err = coll.FindOneAndUpdate(ctx, filter,
			bson.M{"$set": bson.M{"locked_at": time.Now().UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(out)
	} else {
		err = coll.FindOne(ctx, filter).Decode(out)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}

// upsert replaces the document matching filter or inserts doc.
func upsert(ctx context.Context, coll *mongo.Collection, filter bson.M, doc interface{}) error {
	_, err := coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

// flipFlag sets field to true (and stampField to at) only if it is false.
func flipFlag(ctx context.Context, coll *mongo.Collection, filter bson.M, field, stampField string, at time.Time) (bool, error) {
	filter[field] = false
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: true, stampField: at.UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func revokeMany(ctx context.Context, coll *mongo.Collection, filter bson.M, at time.Time) (int64, error) {
	filter["revoked"] = false
	res, err := coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"revoked": true, "revoked_at": at.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func deleteExpired(ctx context.Context, coll *mongo.Collection, now time.Time) (int64, error) {
	res, err := coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired documents from %s: %w", coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)
	out := []*T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
