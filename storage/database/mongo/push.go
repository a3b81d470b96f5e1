package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bataanhss/websystem/core/push"
)

type pushSubDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	UserID   primitive.ObjectID `bson:"userId"`
	Endpoint string             `bson:"endpoint"`
	Keys     struct {
		P256dh string `bson:"p256dh"`
		Auth   string `bson:"auth"`
	} `bson:"keys"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d pushSubDoc) toSubscription() push.Subscription {
	return push.Subscription{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Endpoint:  d.Endpoint,
		Keys:      push.Keys{P256dh: d.Keys.P256dh, Auth: d.Keys.Auth},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type pushRepository struct {
	coll *mongo.Collection
}

var _ push.Repository = (*pushRepository)(nil) // interface compliance check

func NewPushRepository(db *mongo.Database) *pushRepository {
	return &pushRepository{coll: db.Collection(pushSubsColl)}
}

func (repo pushRepository) UpsertSubscription(ctx context.Context, sub push.Subscription) (push.Subscription, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"userId":      parseID(sub.UserID),
			"keys.p256dh": sub.Keys.P256dh,
			"keys.auth":   sub.Keys.Auth,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"endpoint":  sub.Endpoint,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc pushSubDoc
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"endpoint": sub.Endpoint}, update, opts).Decode(&doc); err != nil {
		return push.Subscription{}, errors.Wrap(err, "upserting push subscription")
	}
	return doc.toSubscription(), nil
}

func (repo pushRepository) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	if err != nil {
		return errors.Wrap(err, "deleting push subscription")
	}
	if res.DeletedCount == 0 {
		return push.ErrNotFound
	}
	return nil
}

func (repo pushRepository) QueryAllSubscriptions(ctx context.Context) ([]push.Subscription, error) {
	cur, err := repo.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "querying push subscriptions")
	}
	defer cur.Close(ctx)

	subs := make([]push.Subscription, 0)
	for cur.Next(ctx) {
		var doc pushSubDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding push subscription")
		}
		subs = append(subs, doc.toSubscription())
	}
	return subs, errors.Wrap(cur.Err(), "querying push subscriptions")
}
