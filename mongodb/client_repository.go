package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.pilab.hu/shadow-oauth/domain"
)

// ClientRepository stores OAuth2 clients keyed by client_id.
type ClientRepository struct {
	coll *mongo.Collection
}

func NewClientRepository(db *mongo.Database) *ClientRepository {
	return &ClientRepository{coll: db.Collection(ClientsCollection)}
}

func (r *ClientRepository) FindByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	var c domain.Client
	found, err := findOne(ctx, r.coll, bson.M{"client_id": clientID}, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve client: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (r *ClientRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	var c domain.Client
	if err := getOne(ctx, r.coll, bson.M{"client_id": clientID}, false, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) FindActive(ctx context.Context) ([]*domain.Client, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *ClientRepository) FindAll(ctx context.Context) ([]*domain.Client, error) {
	return r.find(ctx, bson.M{})
}

func (r *ClientRepository) find(ctx context.Context, filter bson.M) ([]*domain.Client, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "client_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return decodeAll[domain.Client](ctx, cur)
}

func (r *ClientRepository) Save(ctx context.Context, client *domain.Client) error {
	if err := upsert(ctx, r.coll, bson.M{"client_id": client.ClientID}, client); err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, clientID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ScopeRepository stores the scope registry; the identifier is the _id.
type ScopeRepository struct {
	coll *mongo.Collection
}

func NewScopeRepository(db *mongo.Database) *ScopeRepository {
	return &ScopeRepository{coll: db.Collection(ScopesCollection)}
}

func (r *ScopeRepository) FindByIdentifiers(ctx context.Context, identifiers []string) ([]*domain.Scope, error) {
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": identifiers}})
	if err != nil {
		return nil, fmt.Errorf("failed to find scopes: %w", err)
	}
	return decodeAll[domain.Scope](ctx, cur)
}

func (r *ScopeRepository) FindAll(ctx context.Context) ([]*domain.Scope, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	return decodeAll[domain.Scope](ctx, cur)
}

func (r *ScopeRepository) Save(ctx context.Context, scope *domain.Scope) error {
	if err := upsert(ctx, r.coll, bson.M{"_id": scope.Identifier}, scope); err != nil {
		return fmt.Errorf("failed to save scope: %w", err)
	}
	return nil
}

// UserRepository resolves token owners from UsersCollection.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	found, err := findOne(ctx, r.coll, bson.M{"_id": id}, &u)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := upsert(ctx, r.coll, bson.M{"_id": user.ID}, user); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}
