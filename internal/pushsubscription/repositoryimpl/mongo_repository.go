package repositoryimpl

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kazz187/messmate-push/internal/pushsubscription"
	"github.com/kazz187/messmate-push/pkg/cerr"
)

const pushSubscriptionsCollection = "push_subscriptions"

// MongoRepository keeps subscriptions in the application's MongoDB database
// alongside the rest of its data.
type MongoRepository struct {
	c *mongo.Collection
}

var _ pushsubscription.Repository = (*MongoRepository)(nil)

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{c: db.Collection(pushSubscriptionsCollection)}
}

// EnsureIndexes creates the endpoint uniqueness constraint and the per-user
// lookup index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetName("idx_push_endpoint").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_push_email"),
		},
	}
	if _, err := r.c.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create push subscription indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, s *pushsubscription.Subscription) error {
	if _, err := r.c.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return cerr.NewError(cerr.AlreadyExists, "push subscription already exists", err)
		}
		return cerr.WrapStorageWriteError("push_subscription", err)
	}
	return nil
}

func (r *MongoRepository) Update(ctx context.Context, s *pushsubscription.Subscription) error {
	res, err := r.c.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return cerr.WrapStorageWriteError("push_subscription", err)
	}
	if res.MatchedCount == 0 {
		return cerr.NewError(cerr.NotFound, "push subscription not found", nil)
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*pushsubscription.Subscription, error) {
	var s pushsubscription.Subscription
	if err := r.c.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cerr.NewError(cerr.NotFound, "push subscription not found", err)
		}
		return nil, cerr.WrapStorageReadError("push_subscription", err)
	}
	return &s, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]*pushsubscription.Subscription, error) {
	cur, err := r.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, cerr.WrapStorageReadError("push_subscriptions", err)
	}
	var subs []*pushsubscription.Subscription
	if err := cur.All(ctx, &subs); err != nil {
		return nil, cerr.WrapStorageReadError("push_subscriptions", err)
	}
	return subs, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*pushsubscription.Subscription, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) List(ctx context.Context) ([]*pushsubscription.Subscription, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) ListByEmail(ctx context.Context, email string) ([]*pushsubscription.Subscription, error) {
	return r.find(ctx, bson.M{"email": email})
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	return r.deleteOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	return r.findOne(ctx, bson.M{"endpoint": endpoint})
}

func (r *MongoRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.deleteOne(ctx, bson.M{"endpoint": endpoint})
}

func (r *MongoRepository) deleteOne(ctx context.Context, filter bson.M) error {
	res, err := r.c.DeleteOne(ctx, filter)
	if err != nil {
		return cerr.WrapStorageDeleteError("push_subscription", err)
	}
	if res.DeletedCount == 0 {
		return cerr.NewError(cerr.NotFound, "push subscription not found", nil)
	}
	return nil
}
